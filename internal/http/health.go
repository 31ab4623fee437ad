package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/permitportal/permitportal/internal/database"
)

// HealthResponse is the liveness report returned by /health. Checks
// maps each dependency to "ok" or a short failure description; the
// overall Status degrades when any check fails.
type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController answers liveness probes. The endpoint sits outside
// the auth surface: it needs no session, no CSRF token, and reveals
// nothing about users.
type HealthController struct {
	db      *database.Database
	version string
}

// NewHealthController creates a health controller. A nil database is
// reported as "not configured" rather than unhealthy, so the endpoint
// stays usable in partial wirings like tests.
func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

// Status reports overall health. A failing database ping degrades the
// response to 503 so load balancers stop routing here before requests
// start erroring.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.pingDatabase(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	})
}

// pingDatabase checks that the underlying connection still answers.
func (h *HealthController) pingDatabase() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
