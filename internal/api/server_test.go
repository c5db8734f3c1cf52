package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-assistant/docclient/internal/api/handlers"
	"github.com/legal-assistant/docclient/internal/gateway"
	"github.com/legal-assistant/docclient/internal/session"
	"github.com/legal-assistant/docclient/pkg/config"
)

type checker struct{ err error }

func (c checker) Health(ctx context.Context) error { return c.err }

func newTestApp(t *testing.T, health error, mutate func(*config.ServerConfig)) *fiber.App {
	t.Helper()

	// The backend is never reached: submits below fail validation first.
	gw := gateway.New(gateway.Config{BaseURL: "http://127.0.0.1:1"})

	registry := handlers.NewRegistry(time.Hour, func(id string) *session.Session {
		return session.New(gw, session.Options{ID: id})
	}, nil)

	cfg := config.Default().Server
	cfg.AccessLog = false
	if mutate != nil {
		mutate(&cfg)
	}

	return NewApp(cfg, Deps{Registry: registry, Health: checker{err: health}})
}

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["sessionId"].(string)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		backend string
	}{
		{"backend up", nil, fiber.StatusOK, "ok"},
		{"backend down", errors.New("connection refused"), fiber.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.err, nil)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.backend, body["backend"])
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := newTestApp(t, nil, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))
}

func TestInputLimits(t *testing.T) {
	app := newTestApp(t, nil, func(cfg *config.ServerConfig) {
		cfg.MaxTextChars = 10
	})
	id := createSession(t, app)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/"+id+"/text", strings.NewReader(`{"text":"more than ten characters"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/sessions/"+id+"/text", strings.NewReader(`text=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestSubmitRateLimit(t *testing.T) {
	app := newTestApp(t, nil, func(cfg *config.ServerConfig) {
		cfg.SubmitsPerMinute = 2
	})
	id := createSession(t, app)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/submit", nil), -1)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, statuses)
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	app := newTestApp(t, nil, nil)
	id := createSession(t, app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/sessions/"+id, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestMetricsRoute(t *testing.T) {
	app := newTestApp(t, nil, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
