package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/manos-expertas/scheduling-service/internal/models"
	"github.com/manos-expertas/scheduling-service/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const upsertTimeout = 10 * time.Second

// errMalformed marks a message that can never be applied; it is dropped
// instead of requeued. Unique-key conflicts are dropped the same way.
var errMalformed = errors.New("malformed directory message")

// DirectoryConsumer replicates worker and user profiles published by the
// directory and identity services into the local tables.
type DirectoryConsumer struct {
	workers repository.WorkerRepository
	users   repository.UserRepository
	log     *zap.Logger
}

func NewDirectoryConsumer(workers repository.WorkerRepository, users repository.UserRepository, log *zap.Logger) *DirectoryConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirectoryConsumer{workers: workers, users: users, log: log}
}

// Start listens for messages until the delivery channel closes.
func (dc *DirectoryConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			dc.handleMessage(msg)
		}
		dc.log.Info("delivery channel closed, stopping directory consumer")
	}()
}

func (dc *DirectoryConsumer) handleMessage(msg amqp.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), upsertTimeout)
	defer cancel()

	err := dc.apply(ctx, msg.RoutingKey, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, errMalformed), errors.Is(err, gorm.ErrDuplicatedKey):
		dc.log.Warn("dropping directory message", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		_ = msg.Nack(false, false)
	default:
		dc.log.Error("directory upsert failed, requeueing", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		_ = msg.Nack(false, true)
	}
}

// apply routes worker.<action> and user.<action> messages to the matching
// upsert. Any action other than a deletion is treated as the latest state
// of the profile.
func (dc *DirectoryConsumer) apply(ctx context.Context, routingKey string, body []byte) error {
	entity, action, _ := strings.Cut(routingKey, ".")
	if action == "deleted" {
		// bookings and reviews keep referencing the replica
		dc.log.Debug("ignoring directory deletion", zap.String("routing_key", routingKey))
		return nil
	}

	switch entity {
	case "worker":
		var w models.Worker
		if err := decode(body, &w.ID, &w); err != nil {
			return err
		}
		if strings.TrimSpace(w.Name) == "" {
			return fmt.Errorf("%w: worker %s has no name", errMalformed, w.ID)
		}
		if err := dc.workers.Upsert(ctx, &w); err != nil {
			return fmt.Errorf("upsert worker %s: %w", w.ID, err)
		}
		dc.log.Info("worker synced", zap.String("worker_id", w.ID), zap.String("profession", w.Profession))
	case "user":
		var u models.User
		if err := decode(body, &u.ID, &u); err != nil {
			return err
		}
		if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Email) == "" {
			return fmt.Errorf("%w: user %s needs a name and email", errMalformed, u.ID)
		}
		if err := dc.users.Upsert(ctx, &u); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.ID, err)
		}
		dc.log.Info("user synced", zap.String("user_id", u.ID))
	default:
		return fmt.Errorf("%w: unexpected routing key %q", errMalformed, routingKey)
	}
	return nil
}

func decode(body []byte, id *string, into any) error {
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := uuid.Validate(*id); err != nil {
		return fmt.Errorf("%w: invalid id %q", errMalformed, *id)
	}
	return nil
}
