package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler handles GET /health: liveness check.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// BackendPinger reports whether the registry backend is reachable.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// HealthDependenciesHandler handles GET /health/ready: readiness check.
// Checks MongoDB, Redis and the registry backend before declaring the
// gateway ready.
type HealthDependenciesHandler struct {
	mongo   *mongo.Database
	redis   *redis.Client
	backend BackendPinger
}

func NewHealthDependenciesHandler(db *mongo.Database, rdb *redis.Client, backend BackendPinger) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		mongo:   db,
		redis:   rdb,
		backend: backend,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness reports dependency health.
//
// @Summary      Readiness check
// @Tags         health
// @Produce      json
// @Success      200   {object}  readinessResponse
// @Failure      503   {object}  readinessResponse
// @Router       /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := map[string]dependencyStatus{
		"mongodb": check(func() error {
			return h.mongo.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		}),
		"redis": check(func() error {
			return h.redis.Ping(ctx).Err()
		}),
		"backend": check(func() error {
			return h.backend.Ping(ctx)
		}),
	}

	status := "ok"
	httpStatus := http.StatusOK
	for _, d := range deps {
		if d.Status != "ok" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}

func check(ping func() error) dependencyStatus {
	if err := ping(); err != nil {
		return dependencyStatus{Status: "unhealthy", Error: err.Error()}
	}
	return dependencyStatus{Status: "ok"}
}
