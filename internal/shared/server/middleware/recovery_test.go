package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/telemetry"
)

func TestRecoveryReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/api/v1/wizard/sessions/:key", func(c *gin.Context) {
		c.Set(WizardKeyKey, c.Param("key"))
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wizard/sessions/wiz-9", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"code":"internal_error"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	logs := buf.String()
	for _, want := range []string{`"msg":"request.panic"`, `"wizard_key":"wiz-9"`, `"route":"/api/v1/wizard/sessions/:key"`, `"error":"boom"`} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in panic log, got %s", want, logs)
		}
	}
	if !strings.Contains(metrics.Render(), "http_panics_total") {
		t.Fatalf("expected panic counter in metrics output")
	}
}

func TestRecoveryKeepsStartedResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(&bytes.Buffer{})
	defer restore()

	router := gin.New()
	router.Use(Recovery())
	router.GET("/export", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/markdown", []byte("# partial"))
		panic("late")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/export", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected the started 200 to stand, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "internal_error") {
		t.Fatalf("expected no error body appended, got %s", resp.Body.String())
	}
}
