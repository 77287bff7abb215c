package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubsphere/internal/middleware"
	"clubsphere/internal/services"
)

// EventHandler handles event endpoints
type EventHandler struct {
	events *services.EventService
	users  *services.UserService
}

func NewEventHandler(events *services.EventService, users *services.UserService) *EventHandler {
	return &EventHandler{events: events, users: users}
}

// ListEvents returns upcoming events filtered by ?search, ?clubId and ?sort
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.events.ListUpcoming(c.Request().Context(), services.EventFilter{
		Search: c.QueryParam("search"),
		ClubID: c.QueryParam("clubId"),
		Sort:   c.QueryParam("sort"),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"events": events})
}

func (h *EventHandler) ClubEvents(c echo.Context) error {
	events, err := h.events.ListByClub(c.Request().Context(), c.Param("clubId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"events": events})
}

// MyEvents returns the events of the clubs the caller manages
func (h *EventHandler) MyEvents(c echo.Context) error {
	events, err := h.events.ListByManager(c.Request().Context(), middleware.UserEmail(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"events": events})
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	event, err := h.events.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"event": event})
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var input services.CreateEventInput
	if err := bind(c, &input); err != nil {
		return err
	}
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}

	event, err := h.events.Create(c.Request().Context(), actor, input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, echo.Map{
		"message": "Event created successfully",
		"eventId": event.ID,
	})
}

func (h *EventHandler) UpdateEvent(c echo.Context) error {
	var input services.UpdateEventInput
	if err := bind(c, &input); err != nil {
		return err
	}
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}

	if _, err := h.events.Update(c.Request().Context(), actor, c.Param("id"), input); err != nil {
		return err
	}
	return message(c, "Event updated successfully")
}

func (h *EventHandler) DeleteEvent(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	if err := h.events.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return message(c, "Event deleted successfully")
}
