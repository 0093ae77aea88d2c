package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/config"
	"github.com/iliyamo/car-rental-marketplace/internal/logger"
	"github.com/iliyamo/car-rental-marketplace/internal/middleware"
	"github.com/iliyamo/car-rental-marketplace/internal/model"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
	"github.com/iliyamo/car-rental-marketplace/internal/utils"
)

// UserStore is the user persistence used by auth and profile endpoints.
type UserStore interface {
	Create(ctx context.Context, fullName, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, fullName, phone *string) (model.User, error)
}

// TokenStore keeps hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, userID uint64, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	JWT        config.JWTConfig
	BcryptCost int
	Users      UserStore
	Tokens     TokenStore
}

func NewAuthHandler(jwt config.JWTConfig, bcryptCost int, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{JWT: jwt, BcryptCost: bcryptCost, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
	FullName        string `json:"fullName" validate:"required,max=100" msg:"Full name is required"`
	Email           string `json:"email" validate:"required,email" msg:"Please provide a valid email"`
	Password        string `json:"password" validate:"min=6" msg:"Password must be at least 6 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password" msg:"Passwords do not match"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email" msg:"Please provide a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required" msg:"Refresh token is required"`
}

type logoutReq struct {
	RefreshToken string `json:"refreshToken"`
}

// userView is the public profile shape returned by auth and profile
// endpoints.
type userView struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone"`
	ProfileImage string    `json:"profileImage"`
	JoinDate     time.Time `json:"joinDate"`
}

func viewOf(u model.User) userView {
	return userView{
		ID: u.ID, Name: u.FullName, Email: u.Email, Role: u.Role,
		Phone: u.Phone, ProfileImage: u.ProfileImage, JoinDate: u.CreatedAt,
	}
}

// Signup creates a renter account and signs it in. Every new account gets
// the user role; host rights come from listing a car.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.FullName, req.Email, req.Password, model.RoleUser, h.BcryptCost)
	if err != nil {
		return err
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return err
	}
	return h.issue(ctx, c, http.StatusCreated, u)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}
	return h.issue(ctx, c, http.StatusOK, u)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is returned.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	oldHash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))
	uid, err := h.Tokens.ValidateRefresh(ctx, oldHash)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, "Invalid refresh token")
	}
	if err != nil {
		return err
	}
	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
		return fail(c, http.StatusUnauthorized, "User not found")
	}
	if err != nil {
		return err
	}

	access, err := utils.NewAccessToken(h.JWT.Secret, u.ID, u.Role, h.JWT.AccessTTLMin)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.JWT.RefreshTTLDays)
	if err != nil {
		return err
	}
	if err := h.Tokens.Rotate(ctx, u.ID, oldHash, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return err
	}
	return respond(c, http.StatusOK, tokenPayload(u, access, refresh))
}

// Logout revokes the supplied refresh token, or every token of the user
// when none is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	var req logoutReq
	_ = c.Bind(&req) // body is optional

	ctx, cancel := withTimeout(c)
	defer cancel()

	var err error
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		err = h.Tokens.RevokeByHash(ctx, uid, utils.HashRefreshRaw(raw))
	} else {
		err = h.Tokens.RevokeAllForUser(ctx, uid)
	}
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Not authorized to access this route")
	}
	return respond(c, http.StatusOK, echo.Map{"user": viewOf(u)})
}

func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, u model.User) error {
	access, err := utils.NewAccessToken(h.JWT.Secret, u.ID, u.Role, h.JWT.AccessTTLMin)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.JWT.RefreshTTLDays)
	if err != nil {
		return err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return err
	}
	logger.Debug("tokens issued", "user_id", u.ID)
	return respond(c, status, tokenPayload(u, access, refresh))
}

func tokenPayload(u model.User, access utils.AccessToken, refresh utils.RefreshToken) echo.Map {
	return echo.Map{
		"token":          access.Token,
		"tokenExpires":   access.Exp,
		"refreshToken":   refresh.Raw,
		"refreshExpires": refresh.Exp,
		"user":           viewOf(u),
	}
}
