package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resume-wizard/internal/resumes"
	"resume-wizard/internal/shared/config"
	"resume-wizard/internal/shared/server/middleware"
	"resume-wizard/internal/templates"
)

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouterMountsHandlers(t *testing.T) {
	catalog, err := templates.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	r := NewRouter(RouterDeps{
		Config:          config.Config{CORSAllowOrigin: []string{"http://localhost:3000"}},
		ResumeHandler:   resumes.NewHandler(resumes.NewService(resumes.NewMemoryRepo())),
		TemplateHandler: templates.NewHandler(catalog),
		RateLimiter:     middleware.NewRateLimiter(func() time.Time { return time.Unix(0, 0) }),
	})

	for _, path := range []string{"/api/v1/health", "/api/v1/templates", "/api/v1/resumes", "/metrics"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("GET %s expected 200, got %d", path, resp.Code)
		}
		if resp.Header().Get("X-Request-Id") == "" && strings.HasPrefix(path, "/api") {
			t.Fatalf("GET %s missing request id header", path)
		}
	}
}
