package middleware

// identity.go holds the echo.Context keys that JWTAuth fills and the
// accessors other middleware and handlers read them through.

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxUser   = "user"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated user's role, or "" for guests.
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// CurrentUser returns the user row loaded by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(CtxUser).(model.User)
	return u, ok
}

// userKey is the user component of rate-limit keys. The limiter runs
// before JWTAuth, so without a stored id it reads the bearer token itself.
// Missing or invalid tokens give "anon".
func userKey(c echo.Context, secret string) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok || secret == "" {
		return "anon"
	}
	claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
	if err != nil {
		return "anon"
	}
	return strconv.FormatUint(claims.UserID, 10)
}
