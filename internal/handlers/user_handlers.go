package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubsphere/internal/middleware"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
	"clubsphere/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers returns every user (admin)
func (h *UserHandler) ListUsers(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	if err := policy.Evaluate(actor, policy.UserList, policy.Resource{}); err != nil {
		return err
	}

	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"users": users})
}

// Me returns the caller's profile
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.users.GetByEmail(c.Request().Context(), middleware.UserEmail(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"user": user})
}

// SetRole changes the role of the user in the :email path parameter
func (h *UserHandler) SetRole(c echo.Context) error {
	var req RoleRequest
	if err := bindAndValidate(c, &req, "Invalid role"); err != nil {
		return err
	}
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}

	if _, err := h.users.SetRole(c.Request().Context(), actor, c.Param("email"), models.Role(req.Role)); err != nil {
		return err
	}
	return message(c, "User role updated successfully")
}
