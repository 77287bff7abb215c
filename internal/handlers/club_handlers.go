package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"clubsphere/internal/middleware"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
	"clubsphere/internal/services"
)

// ClubHandler handles club endpoints
type ClubHandler struct {
	clubs *services.ClubService
	users *services.UserService
}

// NewClubHandler creates a new ClubHandler
func NewClubHandler(clubs *services.ClubService, users *services.UserService) *ClubHandler {
	return &ClubHandler{clubs: clubs, users: users}
}

// ListClubs returns approved clubs filtered by ?search, ?category and ?sort
func (h *ClubHandler) ListClubs(c echo.Context) error {
	clubs, err := h.clubs.ListApproved(c.Request().Context(), services.ClubFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"clubs": clubs})
}

// ListPending returns clubs awaiting review
func (h *ClubHandler) ListPending(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	if err := policy.Evaluate(actor, policy.ClubListPending, policy.Resource{}); err != nil {
		return err
	}

	clubs, err := h.clubs.ListPending(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"clubs": clubs})
}

// MyClubs returns the clubs managed by the caller
func (h *ClubHandler) MyClubs(c echo.Context) error {
	clubs, err := h.clubs.ListByManager(c.Request().Context(), middleware.UserEmail(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"clubs": clubs})
}

func (h *ClubHandler) GetClub(c echo.Context) error {
	club, err := h.clubs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"club": club})
}

// CreateClub stores a pending club managed by the caller
func (h *ClubHandler) CreateClub(c echo.Context) error {
	var input services.CreateClubInput
	if err := bind(c, &input); err != nil {
		return err
	}

	club, err := h.clubs.Create(c.Request().Context(), middleware.UserEmail(c), input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, echo.Map{
		"message": "Club created successfully. Awaiting admin approval.",
		"clubId":  club.ID,
	})
}

func (h *ClubHandler) UpdateClub(c echo.Context) error {
	var input services.UpdateClubInput
	if err := bind(c, &input); err != nil {
		return err
	}
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}

	if _, err := h.clubs.Update(c.Request().Context(), actor, c.Param("id"), input); err != nil {
		return err
	}
	return message(c, "Club updated successfully")
}

// SetStatus approves or rejects a club
func (h *ClubHandler) SetStatus(c echo.Context) error {
	var req StatusRequest
	if err := bindAndValidate(c, &req, "Invalid status"); err != nil {
		return err
	}
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}

	club, err := h.clubs.SetStatus(c.Request().Context(), actor, c.Param("id"), models.ClubStatus(req.Status))
	if err != nil {
		return err
	}
	return message(c, fmt.Sprintf("Club %s successfully", club.Status))
}

func (h *ClubHandler) DeleteClub(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	if err := h.clubs.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return message(c, "Club deleted successfully")
}
