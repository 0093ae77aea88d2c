package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/car-rental-marketplace/internal/config"
	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
	"github.com/iliyamo/car-rental-marketplace/internal/utils"
)

const secret = "0123456789abcdef0123456789abcdef"

type fakeUsers map[uint64]model.User

func (f fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type downUsers struct{}

func (downUsers) GetByID(context.Context, uint64) (model.User, error) {
	return model.User{}, errors.New("dial tcp 127.0.0.1:3306: connection refused")
}

func protectedEcho(users UserLoader, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	chain := append([]echo.MiddlewareFunc{JWTAuth(secret, users)}, mw...)
	e.GET("/me", func(c echo.Context) error {
		id, _ := UserID(c)
		u, _ := CurrentUser(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c), "email": u.Email})
	}, chain...)
	return e
}

func bearer(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, 15)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuth(t *testing.T) {
	users := fakeUsers{
		1: {ID: 1, Email: "a@example.com", Role: model.RoleHost, IsActive: true},
		2: {ID: 2, Email: "gone@example.com", Role: model.RoleUser, IsActive: false},
	}
	e := protectedEcho(users)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Not authorized to access this route"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Not authorized to access this route"},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"unknown user", bearer(t, 99, model.RoleUser), http.StatusUnauthorized, "User not found"},
		{"inactive user", bearer(t, 2, model.RoleUser), http.StatusUnauthorized, "User not found"},
		{"valid", bearer(t, 1, model.RoleUser), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.JSONEq(t, `{"success":false,"message":"`+tt.message+`"}`, rec.Body.String())
			}
		})
	}

	t.Run("role comes from the stored user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, bearer(t, 1, model.RoleUser))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.JSONEq(t, `{"id":1,"role":"host","email":"a@example.com"}`, rec.Body.String())
	})
}

func TestJWTAuth_StoreFailureIsServerError(t *testing.T) {
	e := protectedEcho(downUsers{})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 1, model.RoleUser))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireRole(t *testing.T) {
	users := fakeUsers{
		1: {ID: 1, Role: model.RoleUser, IsActive: true},
		9: {ID: 9, Role: model.RoleAdmin, IsActive: true},
	}
	e := protectedEcho(users, RequireRole(model.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 1, model.RoleUser))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "User role user is not authorized to access this route")

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 9, model.RoleAdmin))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"success":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestCacheKeyFrom(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cars:cache", KeyStrategy: "route_query"}

	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/api/cars")
		return cacheKeyFrom(cfg, c)
	}
	assert.Equal(t, key("/api/cars?city=Mumbai"), key("/api/cars?city=Mumbai"))
	assert.NotEqual(t, key("/api/cars?city=Mumbai"), key("/api/cars?city=Delhi"))
	assert.Contains(t, key("/api/cars"), "cars:cache:")
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/bookings")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:POST /api/bookings", buildRateKey(cfg, c, secret))

	cfg.KeyStrategy = "user"
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 7, model.RoleUser))
	assert.Equal(t, "rl:user:7", buildRateKey(cfg, c, secret))

	req.Header.Set(echo.HeaderAuthorization, "Bearer forged")
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, c, secret))

	c.Set(CtxUserID, uint64(42))
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c, secret))
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	called := false
	h := func(echo.Context) error { called = true; return nil }
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	require.NoError(t, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, secret)(h)(c))
	require.NoError(t, NewRedisCache(config.CacheConfig{Enabled: true}, nil)(h)(c))
	assert.True(t, called)
	assert.NoError(t, NewCachePurger(config.CacheConfig{}, nil).Purge(context.Background()))
}
