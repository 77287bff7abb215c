package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubsphere/internal/middleware"
	"clubsphere/internal/models"
	"clubsphere/internal/services"
)

type MembershipHandler struct {
	memberships *services.MembershipService
	users       *services.UserService
}

func NewMembershipHandler(memberships *services.MembershipService, users *services.UserService) *MembershipHandler {
	return &MembershipHandler{memberships: memberships, users: users}
}

// MyMemberships returns the caller's memberships with their clubs
func (h *MembershipHandler) MyMemberships(c echo.Context) error {
	memberships, err := h.memberships.ListMine(c.Request().Context(), middleware.UserEmail(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"memberships": memberships})
}

// ClubMembers returns the members of a club managed by the caller
func (h *MembershipHandler) ClubMembers(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	memberships, err := h.memberships.ListForClub(c.Request().Context(), actor, c.Param("clubId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"memberships": memberships})
}

// Join makes the caller a member. Replaying a join with the paymentId that
// created the membership answers 200 instead of 201.
func (h *MembershipHandler) Join(c echo.Context) error {
	var req JoinClubRequest
	if err := bindAndValidate(c, &req, "Club ID is required"); err != nil {
		return err
	}

	membership, created, err := h.memberships.Join(c.Request().Context(), middleware.UserEmail(c), req.ClubID, req.PaymentID)
	if err != nil {
		return err
	}
	code := http.StatusCreated
	if !created {
		code = http.StatusOK
	}
	return respond(c, code, echo.Map{
		"message":      "Successfully joined the club",
		"membershipId": membership.ID,
	})
}

func (h *MembershipHandler) SetStatus(c echo.Context) error {
	var req StatusRequest
	if err := bindAndValidate(c, &req, "Invalid status"); err != nil {
		return err
	}
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}

	if _, err := h.memberships.SetStatus(c.Request().Context(), actor, c.Param("id"), models.MembershipStatus(req.Status)); err != nil {
		return err
	}
	return message(c, "Membership status updated successfully")
}
