package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/manos-expertas/scheduling-service/internal/dto"
	"github.com/manos-expertas/scheduling-service/internal/service"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	svc      service.RatingService
	notifier Notifier
	log      *zap.Logger
}

func NewReviewHandler(svc service.RatingService, notifier Notifier, log *zap.Logger) *ReviewHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewHandler{svc: svc, notifier: notifier, log: log}
}

func (h *ReviewHandler) RegisterRoutes(g *echo.Group) {
	reviews := g.Group("/reviews")
	reviews.POST("", h.CreateReview)
	reviews.GET("/worker/:workerId/average-rating", h.AverageRating)
	reviews.GET("/worker/:workerId/count", h.ReviewCount)
	reviews.GET("/workers/:ranking", h.RankWorkers)
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	var req dto.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	review, err := h.svc.CreateReview(c.Request().Context(), service.CreateReviewInput{
		WorkerID:  req.Worker,
		UserID:    req.User,
		BookingID: req.Booking,
		Comment:   req.Comment,
		Rating:    req.Rating,
	})
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	resp := dto.ToReviewResponse(review)
	publish(h.notifier, h.log, "review.created", resp)
	return c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) AverageRating(c echo.Context) error {
	workerID, err := idParam(c, "workerId", "worker")
	if err != nil {
		return err
	}

	avg, err := h.svc.AverageRating(c.Request().Context(), workerID)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, dto.AverageRatingResponse{WorkerID: workerID, AverageRating: avg})
}

func (h *ReviewHandler) ReviewCount(c echo.Context) error {
	workerID, err := idParam(c, "workerId", "worker")
	if err != nil {
		return err
	}

	count, err := h.svc.ReviewCount(c.Request().Context(), workerID)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, dto.ReviewCountResponse{WorkerID: workerID, Count: count})
}

// RankWorkers serves /workers/highest-rated and /workers/lowest-rated.
func (h *ReviewHandler) RankWorkers(c echo.Context) error {
	raw, ok := strings.CutSuffix(c.Param("ranking"), "-rated")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "ranking must be highest-rated or lowest-rated")
	}
	order, ok := service.ParseRankOrder(raw)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "ranking must be highest-rated or lowest-rated")
	}

	limit := service.DefaultRankLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return fieldError("limit", "limit must be a positive integer")
		}
		limit = n
	}

	ranking, err := h.svc.RankWorkers(c.Request().Context(), order, limit)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, ranking)
}
