package repository

import (
	"context"

	"github.com/manos-expertas/scheduling-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Worker, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Worker, error)
	Upsert(ctx context.Context, worker *models.Worker) error
}

type workerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) FindByID(ctx context.Context, id string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.WithContext(ctx).First(&worker, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// FindByIDForUpdate acquires a row-level lock on the worker within the given transaction.
// Every booking write for the worker goes through this lock.
func (r *workerRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Worker, error) {
	var worker models.Worker
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&worker, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) Upsert(ctx context.Context, worker *models.Worker) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "last_name", "profession", "phone", "email", "address", "description", "updated_at"}),
	}).Create(worker).Error
}
