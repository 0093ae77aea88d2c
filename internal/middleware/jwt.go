package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
	"github.com/iliyamo/car-rental-marketplace/internal/utils"
)

// UserLoader fetches the account behind a token.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
}

// JWTAuth validates the Bearer access token, loads its user and stores
// the id, role and user row in the context under CtxUserID, CtxRole and
// CtxUser. Deleted or deactivated accounts are rejected even while their
// tokens are still valid; a failing store is passed on as a server error.
func JWTAuth(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return unauthorized(c, "Not authorized to access this route")
			}

			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return unauthorized(c, "Invalid token")
			}

			u, err := users.GetByID(c.Request().Context(), claims.UserID)
			if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
				return unauthorized(c, "User not found")
			}
			if err != nil {
				return fmt.Errorf("load token user %d: %w", claims.UserID, err)
			}

			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)
			c.Set(CtxUser, u)
			return next(c)
		}
	}
}
