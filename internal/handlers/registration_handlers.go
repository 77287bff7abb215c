package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubsphere/internal/middleware"
	"clubsphere/internal/services"
)

type RegistrationHandler struct {
	registrations *services.RegistrationService
	users         *services.UserService
}

func NewRegistrationHandler(registrations *services.RegistrationService, users *services.UserService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, users: users}
}

func (h *RegistrationHandler) MyRegistrations(c echo.Context) error {
	registrations, err := h.registrations.ListMine(c.Request().Context(), middleware.UserEmail(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"registrations": registrations})
}

// EventRegistrations lists the attendees of an event for its club manager
func (h *RegistrationHandler) EventRegistrations(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	registrations, err := h.registrations.ListForEvent(c.Request().Context(), actor, c.Param("eventId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"registrations": registrations})
}

func (h *RegistrationHandler) Register(c echo.Context) error {
	var req RegisterEventRequest
	if err := bindAndValidate(c, &req, "Event ID is required"); err != nil {
		return err
	}

	registration, created, err := h.registrations.Register(c.Request().Context(), middleware.UserEmail(c), req.EventID, req.PaymentID)
	if err != nil {
		return err
	}
	code := http.StatusCreated
	if !created {
		code = http.StatusOK
	}
	return respond(c, code, echo.Map{
		"message":        "Successfully registered for the event",
		"registrationId": registration.ID,
	})
}

func (h *RegistrationHandler) Cancel(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	if _, err := h.registrations.Cancel(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return message(c, "Registration cancelled successfully")
}
