package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/services-psychologists-psychotherapists/backend/internal/meeting"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/notify"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository/memory"
	"github.com/services-psychologists-psychotherapists/backend/internal/service"
	"github.com/services-psychologists-psychotherapists/backend/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	practitionerID int64 = 7
	clientID       int64 = 42
	otherClientID  int64 = 43
)

type failingChecker struct{}

func (failingChecker) Ping(context.Context) error {
	return errors.New("connection refused")
}

func newTestRouter(t *testing.T, health HealthChecker) *gin.Engine {
	t.Helper()
	return newTestRouterWithConfig(t, health, RouterConfig{})
}

func newTestRouterWithConfig(t *testing.T, health HealthChecker, cfg RouterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	directory := memory.NewDirectory(3000)
	store := memory.NewStore(directory)

	pool := worker.NewPool(1, 16, logger)
	pool.Start(context.Background())
	t.Cleanup(func() {
		_ = pool.Stop(context.Background())
	})

	duration := model.DefaultSessionDuration
	policy := service.NewRefundPolicy(12*time.Hour, language.English)
	dispatcher := notify.NewDispatcher(notify.NewRenderer(language.English, time.UTC), logger)
	pipeline := service.NewPipeline(pool, store.Sessions(), meeting.Disabled{}, dispatcher, directory, duration, logger)
	clock := service.SystemClock{}

	if health == nil {
		health = store
	}

	handler := NewHandler(
		service.NewSlotService(store, service.NewOverlapValidator(duration), policy, pipeline, clock, 14*24*time.Hour, logger),
		service.NewBookingService(store, pipeline, clock, logger),
		service.NewCancellationService(store, policy, pipeline, clock, logger),
		health,
		logger,
	)

	return NewRouter(handler, cfg, logger)
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any, userID int64, role model.Role) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(HeaderUserID, strconv.FormatInt(userID, 10))
		req.Header.Set(HeaderUserRole, string(role))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func futureStart() time.Time {
	return time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)
}

func TestIdentityHeaders(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		userID string
		role   string
	}{
		{name: "missing headers"},
		{name: "not a number", userID: "abc", role: "client"},
		{name: "negative id", userID: "-1", role: "client"},
		{name: "unknown role", userID: "1", role: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+"00000000-0000-0000-0000-000000000000", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthenticated", decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestSlotRoutesRequirePractitioner(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/slots", map[string]any{"start_time": futureStart()}, clientID, model.RoleClient)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/sessions", map[string]any{"slot_id": "00000000-0000-0000-0000-000000000001"}, practitionerID, model.RolePractitioner)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSlotLifecycle(t *testing.T) {
	router := newTestRouter(t, nil)
	start := futureStart()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/slots", map[string]any{"start_time": start}, practitionerID, model.RolePractitioner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	slot := decode[model.Slot](t, rec)
	assert.True(t, slot.IsFree)
	assert.Equal(t, practitionerID, slot.PractitionerID)
	assert.True(t, slot.StartTime.Equal(start))
	assert.True(t, slot.EndTime.Equal(start.Add(model.DefaultSessionDuration)))

	rec = doRequest(t, router, http.MethodPost, "/api/v1/slots", map[string]any{"start_time": start.Add(30 * time.Minute)}, practitionerID, model.RolePractitioner)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "overlap_conflict", decode[map[string]string](t, rec)["error"])

	rec = doRequest(t, router, http.MethodPost, "/api/v1/slots", map[string]any{"start_time": time.Now().UTC().Add(-time.Hour)}, practitionerID, model.RolePractitioner)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "past_start_time", decode[map[string]string](t, rec)["error"])

	rec = doRequest(t, router, http.MethodGet, "/api/v1/slots", nil, practitionerID, model.RolePractitioner)
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[[]model.SlotView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, slot.ID, views[0].ID)

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/slots/"+slot.ID.String(), nil, practitionerID+1, model.RolePractitioner)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/slots/"+slot.ID.String(), nil, practitionerID, model.RolePractitioner)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/slots", nil, practitionerID, model.RolePractitioner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/slots/"+slot.ID.String(), nil, practitionerID, model.RolePractitioner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadRequests(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/slots", map[string]any{}, practitionerID, model.RolePractitioner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/slots?since=09.03.2025", nil, practitionerID, model.RolePractitioner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_since", decode[map[string]string](t, rec)["error"])

	rec = doRequest(t, router, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil, clientID, model.RoleClient)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/practitioners/abc/free-slots", nil, clientID, model.RoleClient)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/sessions", map[string]any{"slot_id": "00000000-0000-0000-0000-000000000000"}, clientID, model.RoleClient)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookAndCancel(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/slots", map[string]any{"start_time": futureStart()}, practitionerID, model.RolePractitioner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	slot := decode[model.Slot](t, rec)

	freePath := "/api/v1/practitioners/" + strconv.FormatInt(practitionerID, 10) + "/free-slots"
	rec = doRequest(t, router, http.MethodGet, freePath, nil, clientID, model.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]model.Slot](t, rec), 1)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/sessions", map[string]any{"slot_id": slot.ID}, clientID, model.RoleClient)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[model.Session](t, rec)
	assert.Equal(t, clientID, session.ClientID)
	assert.Equal(t, 3000, session.Price)
	assert.Equal(t, model.SessionStatusPaid, session.Status)

	rec = doRequest(t, router, http.MethodGet, freePath, nil, clientID, model.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/api/v1/sessions", map[string]any{"slot_id": slot.ID}, otherClientID, model.RoleClient)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_already_booked", decode[map[string]string](t, rec)["error"])

	sessionPath := "/api/v1/sessions/" + session.ID.String()

	rec = doRequest(t, router, http.MethodGet, sessionPath, nil, otherClientID, model.RoleClient)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_participant", decode[map[string]string](t, rec)["error"])

	rec = doRequest(t, router, http.MethodGet, sessionPath, nil, practitionerID, model.RolePractitioner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.ID, decode[model.Session](t, rec).ID)

	rec = doRequest(t, router, http.MethodDelete, sessionPath, nil, clientID, model.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decision := decode[model.RefundDecision](t, rec)
	assert.True(t, decision.Granted)
	assert.False(t, decision.LateCancel)
	assert.NotEmpty(t, decision.Message)

	rec = doRequest(t, router, http.MethodGet, sessionPath, nil, clientID, model.RoleClient)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, freePath, nil, clientID, model.RoleClient)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Slot](t, rec), 1)
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestRouter(t, nil), http.MethodGet, "/healthz", nil, 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doRequest(t, newTestRouter(t, failingChecker{}), http.MethodGet, "/healthz", nil, 0, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimitPerUser(t *testing.T) {
	router := newTestRouterWithConfig(t, nil, RouterConfig{RateLimit: 1, RateBurst: 2})
	path := "/api/v1/practitioners/" + strconv.FormatInt(practitionerID, 10) + "/free-slots"

	for i := 0; i < 2; i++ {
		rec := doRequest(t, router, http.MethodGet, path, nil, clientID, model.RoleClient)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, path, nil, clientID, model.RoleClient)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode[map[string]string](t, rec)["error"])

	rec = doRequest(t, router, http.MethodGet, path, nil, otherClientID, model.RoleClient)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterEvictsIdleUsers(t *testing.T) {
	limiter := newRateLimiter(1, 1, 2)

	require.True(t, limiter.get(clientID).Allow())
	require.False(t, limiter.get(clientID).Allow())

	limiter.get(otherClientID)
	limiter.get(practitionerID)
	assert.Equal(t, 2, limiter.limiters.Len())
	assert.False(t, limiter.limiters.Contains(clientID))

	assert.True(t, limiter.get(clientID).Allow(), "evicted user starts with a fresh bucket")
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouterWithConfig(t, nil, RouterConfig{AllowOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
