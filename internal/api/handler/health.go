package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const readinessTimeout = 3 * time.Second

// HealthHandler serves the liveness and readiness checks. Either backing
// store may be nil, in which case it is reported as disabled. Check failures
// are logged; the response only carries the status.
type HealthHandler struct {
	mongo *mongo.Database
	redis *redis.Client
	log   zerolog.Logger
}

func NewHealthHandler(db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{mongo: db, redis: rdb, log: log}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Liveness handles GET /health.
//
// @Summary  Liveness check
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready.
//
// @Summary  Readiness check
// @Tags     health
// @Produce  json
// @Success  200  {object}  readinessResponse
// @Failure  503  {object}  readinessResponse
// @Router   /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus, 2)
	healthy := true

	switch {
	case h.mongo == nil:
		deps["mongodb"] = dependencyStatus{Status: "disabled"}
	default:
		if err := h.mongo.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
			h.log.Warn().Err(err).Msg("readiness: mongodb ping failed")
			deps["mongodb"] = dependencyStatus{Status: "unhealthy"}
			healthy = false
		} else {
			deps["mongodb"] = dependencyStatus{Status: "ok"}
		}
	}

	switch {
	case h.redis == nil:
		deps["redis"] = dependencyStatus{Status: "disabled"}
	default:
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.log.Warn().Err(err).Msg("readiness: redis ping failed")
			deps["redis"] = dependencyStatus{Status: "unhealthy"}
			healthy = false
		} else {
			deps["redis"] = dependencyStatus{Status: "ok"}
		}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, readinessResponse{Status: status, Dependencies: deps})
}
