package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/posterdash/backend/internal/infrastructure/scheduler"
	"github.com/posterdash/backend/internal/interfaces/http/dto"
)

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping() error
}

// JobLister reports the background jobs' last runs
type JobLister interface {
	Jobs() []scheduler.JobState
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	db        Pinger
	jobs      JobLister
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. jobs may be nil when the
// scheduler is disabled.
func NewSystemHandler(db Pinger, jobs JobLister, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		jobs:      jobs,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string               `json:"status"`
	Database  string               `json:"database"`
	Version   string               `json:"version"`
	GoVersion string               `json:"go_version"`
	Uptime    string               `json:"uptime"`
	Jobs      []scheduler.JobState `json:"jobs,omitempty"`
}

// Health handles GET /health. It answers 503 when the database is unreachable.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Database:  "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.jobs != nil {
		resp.Jobs = h.jobs.Jobs()
	}

	status := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}
