package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/resumes"
	"resume-wizard/internal/services/health"
	"resume-wizard/internal/shared/config"
	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/server/middleware"
	"resume-wizard/internal/shared/server/respond"
	"resume-wizard/internal/templates"
	"resume-wizard/internal/wizardapi"
)

// RouterDeps holds the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	ResumeHandler   *resumes.Handler
	TemplateHandler *templates.Handler
	WizardHandler   *wizardapi.Handler
	RateLimiter     *middleware.RateLimiter
}

// DefaultRateLimits allow normal traffic and throttle generation starts per caller.
var DefaultRateLimits = map[string]middleware.RateLimitRule{
	"DEFAULT":                  {Rate: 20, Burst: 40},
	middleware.GenerationGroup: {Rate: 0.1, Burst: 3},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:   DefaultRateLimits,
			Limiter: deps.RateLimiter,
			GroupFor: func(c *gin.Context) string {
				if wizardapi.IsGenerationRoute(c) {
					return middleware.GenerationGroup
				}
				return ""
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.Health != nil {
		api.GET("/health", deps.Health.Handler())
	} else {
		api.GET("/health", func(c *gin.Context) {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
		})
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api)
	}
	if deps.TemplateHandler != nil {
		deps.TemplateHandler.RegisterRoutes(api)
	}
	if deps.WizardHandler != nil {
		deps.WizardHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
