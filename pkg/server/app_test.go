package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ChiliPulse/pkg/cache"
	"ChiliPulse/pkg/config"
	applogger "ChiliPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("environment: test\nupstream:\n  base_url: http://upstream.local\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestAppServesRoutesAndHealth(t *testing.T) {
	app := New(testConfig(t), applogger.Nop(), pingHandler{}, cache.NewMemoryCache(), nil)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	for _, path := range []string{"/ping", "/health"} {
		rec := httptest.NewRecorder()
		app.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
