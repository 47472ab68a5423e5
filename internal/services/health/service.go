package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/shared/storage/db"
	"resume-wizard/internal/shared/telemetry"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a health service. database may be nil when persistence is remote.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database}
}

// Status reports overall health and the state of each dependency.
func (s *Service) Status(ctx context.Context) (bool, map[string]string) {
	checks := map[string]string{}
	if s.DB == nil {
		checks["database"] = "not_configured"
		return true, checks
	}
	if err := db.Ping(ctx, s.DB, pingTimeout); err != nil {
		telemetry.Warn("health.database.unreachable", map[string]any{"error": err.Error()})
		checks["database"] = "unreachable"
		return false, checks
	}
	checks["database"] = "ok"
	return true, checks
}

// Handler serves the health payload; unhealthy dependencies yield 503.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, checks := s.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ok": ok, "checks": checks})
	}
}
