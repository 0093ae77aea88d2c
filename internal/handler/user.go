package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-rental-marketplace/internal/middleware"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
)

type UserHandler struct {
	Users UserStore
}

func NewUserHandler(u UserStore) *UserHandler { return &UserHandler{Users: u} }

type profileReq struct {
	FullName *string `json:"fullName" validate:"omitempty,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
}

// UpdateProfile changes the caller's name and phone. An empty name keeps
// the current one; an explicit empty phone clears it.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	var req profileReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		req.FullName = nil
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, uid, req.FullName, req.Phone)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "User not found")
	}
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"message": "Profile updated successfully", "user": viewOf(u)})
}
