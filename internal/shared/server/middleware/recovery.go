package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/server/respond"
	"resume-wizard/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500. The log carries the wizard and
// resume the handler had resolved so far. A response that already started is
// left as is.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			metrics.IncPanic()
			telemetry.Error("request.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"method":     c.Request.Method,
				"route":      c.FullPath(),
				"user_id":    UserIDFromContext(c),
				"wizard_key": c.GetString(WizardKeyKey),
				"resume_id":  c.GetString(ResumeIDKey),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
