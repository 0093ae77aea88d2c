package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-rental-marketplace/internal/config"
	"github.com/iliyamo/car-rental-marketplace/internal/handler"
	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
	"github.com/iliyamo/car-rental-marketplace/internal/service"
	"github.com/iliyamo/car-rental-marketplace/internal/utils"
)

const secret = "0123456789abcdef0123456789abcdef"

type staticUsers map[uint64]model.User

func (s staticUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

// emptyCatalogue answers every listing with no cars.
type emptyCatalogue struct{ handler.CarCatalogue }

func (emptyCatalogue) List(context.Context, repository.CarFilter) (service.CarPage, error) {
	return service.CarPage{Cars: []model.Car{}, CurrentPage: 1}, nil
}

func testDeps() Deps {
	users := staticUsers{
		1: {ID: 1, FullName: "Asha", Email: "asha@example.com", Role: model.RoleUser, IsActive: true},
		2: {ID: 2, FullName: "Ravi", Email: "ravi@example.com", Role: model.RoleUser, IsActive: true},
	}
	return Deps{
		App:       config.AppConfig{FrontendURL: "http://localhost:5173"},
		JWTSecret: secret,
		Users:     users,
		Auth:      handler.NewAuthHandler(config.JWTConfig{Secret: secret}, 4, nil, nil),
		User:      handler.NewUserHandler(nil),
		Car:       handler.NewCarHandler(emptyCatalogue{}, nil),
		Booking:   handler.NewBookingHandler(nil, nil),
		Upload:    handler.NewUploadHandler(nil, ""),
		Chatbot:   handler.NewChatbotHandler(nil),
	}
}

func testServer() *echo.Echo { return New(testDeps()) }

// recordingScripter admits every request and remembers the bucket keys.
type recordingScripter struct {
	mu   sync.Mutex
	keys []string
}

func (s *recordingScripter) run(keys []string) *redis.Cmd {
	s.mu.Lock()
	s.keys = append(s.keys, keys...)
	s.mu.Unlock()
	return redis.NewCmdResult([]any{int64(1), int64(9), int64(0)}, nil)
}

func (s *recordingScripter) Eval(_ context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	return s.run(keys)
}

func (s *recordingScripter) EvalSha(_ context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	return s.run(keys)
}

func (s *recordingScripter) EvalRO(_ context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	return s.run(keys)
}

func (s *recordingScripter) EvalShaRO(_ context.Context, _ string, keys []string, _ ...any) *redis.Cmd {
	return s.run(keys)
}

func (s *recordingScripter) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (s *recordingScripter) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func get(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRegistered(t *testing.T) {
	e := testServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"POST /api/auth/signup", "POST /api/auth/login", "POST /api/auth/refresh",
		"POST /api/auth/logout", "GET /api/auth/me", "PUT /api/users/profile",
		"GET /api/cars", "GET /api/cars/:id", "POST /api/cars", "PUT /api/cars/:id",
		"DELETE /api/cars/:id", "PATCH /api/cars/:id/toggle-status",
		"GET /api/cars/host/my-cars", "GET /api/cars/host/stats",
		"POST /api/bookings", "GET /api/bookings/my-bookings", "GET /api/bookings/stats",
		"GET /api/bookings/host/bookings", "GET /api/bookings/:id", "PUT /api/bookings/:id/status",
		"PUT /api/bookings/:id/cancel", "POST /api/bookings/:id/review",
		"POST /api/upload/single", "POST /api/upload/multiple", "DELETE /api/upload/:publicId",
		"POST /api/chatbot/message", "GET /api/chatbot/suggestions",
	} {
		assert.True(t, have[want], "missing route %s", want)
	}
}

func TestPublicAndProtected(t *testing.T) {
	e := testServer()

	rec := get(e, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = get(e, "/api/cars", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = get(e, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := utils.NewAccessToken(secret, 1, model.RoleUser, 5)
	require.NoError(t, err)
	rec = get(e, "/api/auth/me", tok.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "asha@example.com", body["user"].(map[string]any)["email"])
}

func TestRateLimitKeyedPerUser(t *testing.T) {
	store := &recordingScripter{}
	d := testDeps()
	d.RateStore = store
	d.RateLimit = config.RateLimitConfig{Enabled: true, Capacity: 10, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, KeyStrategy: "user", Prefix: "rl"}
	e := New(d)

	for _, id := range []uint64{1, 2} {
		tok, err := utils.NewAccessToken(secret, id, model.RoleUser, 5)
		require.NoError(t, err)
		rec := get(e, "/api/auth/me", tok.Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	}
	get(e, "/api/cars", "")

	assert.Equal(t, []string{"rl:user:1", "rl:user:2", "rl:user:anon"}, store.keys)
}

func TestUnknownRoute(t *testing.T) {
	rec := get(testServer(), "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, rec.Body.String())
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, allowedOrigins(""))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, allowedOrigins(" http://a.test/ ,http://b.test"))
}
