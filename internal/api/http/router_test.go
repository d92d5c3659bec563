package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/bless-tracker/internal/api/http/handlers"
	"github.com/spec-kit/bless-tracker/internal/auth"
	"github.com/spec-kit/bless-tracker/internal/config"
	"github.com/spec-kit/bless-tracker/internal/devicecache"
	"github.com/spec-kit/bless-tracker/internal/domain"
	"github.com/spec-kit/bless-tracker/internal/events"
	"github.com/spec-kit/bless-tracker/internal/geocode"
	"github.com/spec-kit/bless-tracker/internal/notify"
	"github.com/spec-kit/bless-tracker/internal/observability"
	"github.com/spec-kit/bless-tracker/internal/repository"
	"github.com/spec-kit/bless-tracker/internal/service"
	"github.com/spec-kit/bless-tracker/internal/testutil"
)

type apiFixture struct {
	app      *fiber.App
	notifier *testutil.Notifier
	sessions *service.SessionManager
	metrics  *observability.Metrics
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()
	mem := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	monitor := service.NewSyncMonitor(dispatcher, metrics, logger)
	monitor.RegisterHandlers()
	notifier := testutil.NewNotifier()

	sessions := service.NewSessionManager(service.SessionDependencies{
		ResidentRepo:    mem.Residents(),
		InteractionRepo: mem.Interactions(),
		ProfileRepo:     mem.Profiles(),
		Cache:           devicecache.NewMemoryCache(),
		Notifier:        notifier,
		Geocoder:        geocode.New(config.GeocodingConfig{}, logger),
		Dispatcher:      dispatcher,
		Logger:          logger,
		Reminder:        service.ReminderSettings{Hour: 8, Location: time.UTC, RetryInterval: time.Minute},
		Clock:           func() time.Time { return time.Date(2024, 5, 6, 6, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(func() { _ = sessions.CloseAll(context.Background()) })

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, mem.Profiles())

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("bless-tracker", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService, mem.Profiles(), sessions, monitor),
		Residents:      handlers.NewResidentsHandler(sessions),
		Dashboard:      handlers.NewDashboardHandler(sessions, monitor),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), mem.Profiles()),
		Metrics:        metrics,
	})
	return &apiFixture{app: app, notifier: notifier, sessions: sessions, metrics: metrics}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (f *apiFixture) register(t *testing.T, email string) string {
	t.Helper()
	status, body := f.do(t, fiber.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": "long-enough"})
	require.Equal(t, fiber.StatusCreated, status, body)
	return body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
}

func data(body map[string]any) map[string]any {
	return body["data"].(map[string]any)
}

func errorCode(body map[string]any) string {
	return body["error"].(map[string]any)["code"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = f.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "memory", body["dependencies"].(map[string]any)["postgres"])

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "bless_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "ana@example.com")

	status, body := f.do(t, fiber.MethodPost, "/auth/register", "", map[string]string{"email": "ana@example.com", "password": "long-enough"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = f.do(t, fiber.MethodPost, "/auth/register", "", map[string]string{"email": "not-an-email", "password": "short"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")

	status, _ = f.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = f.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "long-enough"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, data(body)["auth"].(map[string]any)["token"])

	status, body = f.do(t, fiber.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ana@example.com", data(body)["email"])

	status, body = f.do(t, fiber.MethodGet, "/residents", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _ = f.do(t, fiber.MethodGet, "/residents", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestResidentLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "ana@example.com")

	status, body := f.do(t, fiber.MethodPost, "/residents", token, map[string]any{"longitude": -98.5, "latitude": 39.8})
	require.Equal(t, fiber.StatusCreated, status, body)
	created := data(body)
	id := created["id"].(string)
	assert.Equal(t, "Lat: 39.8000, Lng: -98.5000", created["address"])
	assert.Equal(t, string(domain.BlessStatusPrayer), created["current_bless_status"])
	assert.Equal(t, domain.StatusColor(domain.BlessStatusPrayer), created["status_color"])
	assert.Len(t, created["interactions"], 1)
	assert.Contains(t, []any{"pending", "confirmed"}, body["sync"])

	status, body = f.do(t, fiber.MethodPatch, "/residents/"+id, token, map[string]any{"name": "Ana", "prayer_requests": "job"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Ana", data(body)["name"])
	assert.Equal(t, "job", data(body)["prayer_requests"])

	status, body = f.do(t, fiber.MethodPatch, "/residents/"+id, token, map[string]any{"current_bless_status": "Eat"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = f.do(t, fiber.MethodPost, "/residents/"+id+"/interactions", token,
		map[string]any{"type": "status_change", "content": "Moved to Eat", "status": "Eat"})
	require.Equal(t, fiber.StatusCreated, status, body)
	logged := data(body)
	assert.Equal(t, "Eat", logged["current_bless_status"])
	first := logged["interactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "Moved to Eat", first["content"])
	assert.Equal(t, first["timestamp"], logged["last_interaction"])

	status, _ = f.do(t, fiber.MethodPost, "/residents/"+id+"/interactions", token, map[string]any{"type": "note", "status": "Eat"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = f.do(t, fiber.MethodPost, "/residents/"+id+"/interactions", token, map[string]any{"type": "status_change", "status": "Dance"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = f.do(t, fiber.MethodGet, "/dashboard", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	dash := data(body)
	assert.EqualValues(t, 1, dash["total"])
	assert.EqualValues(t, 2, dash["coverage_percent"])
	assert.EqualValues(t, 50, dash["goal"])
	assert.Len(t, dash["focus"], 1)

	status, _ = f.do(t, fiber.MethodDelete, "/residents/"+id, token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, body = f.do(t, fiber.MethodGet, "/residents/"+id, token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
	status, _ = f.do(t, fiber.MethodDelete, "/residents/"+id, token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestResidentsAreScopedPerUser(t *testing.T) {
	f := newAPIFixture(t)
	ana := f.register(t, "ana@example.com")
	ben := f.register(t, "ben@example.com")

	status, body := f.do(t, fiber.MethodPost, "/residents", ana, map[string]any{"longitude": 1.0, "latitude": 2.0, "address": "1 Main"})
	require.Equal(t, fiber.StatusCreated, status)
	id := data(body)["id"].(string)

	status, _ = f.do(t, fiber.MethodGet, "/residents/"+id, ben, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	_, body = f.do(t, fiber.MethodGet, "/residents", ben, nil)
	assert.Empty(t, body["data"])
}

func TestLogoutEndsSessionAndReloadsFromStore(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "ana@example.com")

	status, _ := f.do(t, fiber.MethodPost, "/residents", token, map[string]any{"longitude": 1.0, "latitude": 2.0, "address": "1 Main"})
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = f.do(t, fiber.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	_, body := f.do(t, fiber.MethodGet, "/residents", token, nil)
	assert.Len(t, body["data"], 1)
}

func TestNotificationToggle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "ana@example.com")

	_, body := f.do(t, fiber.MethodGet, "/notifications", token, nil)
	assert.Equal(t, false, data(body)["enabled"])

	status, body := f.do(t, fiber.MethodPost, "/notifications/toggle", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, data(body)["enabled"])
	assert.Equal(t, true, data(body)["reminder_active"])
	require.NotEmpty(t, f.notifier.Messages())
	assert.Equal(t, service.WelcomeTitle, f.notifier.Messages()[0].Title)

	_, body = f.do(t, fiber.MethodPost, "/notifications/toggle", token, nil)
	assert.Equal(t, false, data(body)["enabled"])

	f.notifier.Permission = notify.PermissionDenied
	_, body = f.do(t, fiber.MethodPost, "/notifications/toggle", token, nil)
	assert.Equal(t, false, data(body)["enabled"])
	assert.Equal(t, "skipped", data(body)["sync"])
}

func TestUnknownRouteRendersError(t *testing.T) {
	f := newAPIFixture(t)
	status, body := f.do(t, fiber.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}
