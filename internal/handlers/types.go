package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubsphere/internal/errorz"
)

// StatusRequest is the body of the status change endpoints
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type JoinClubRequest struct {
	ClubID    string `json:"clubId" validate:"required"`
	PaymentID string `json:"paymentId"`
}

type RegisterEventRequest struct {
	EventID   string `json:"eventId" validate:"required"`
	PaymentID string `json:"paymentId"`
}

type MembershipIntentRequest struct {
	ClubID string `json:"clubId" validate:"required"`
}

type EventIntentRequest struct {
	EventID string `json:"eventId" validate:"required"`
}

type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// respond writes the {success: true, ...payload} envelope
func respond(c echo.Context, code int, payload echo.Map) error {
	if payload == nil {
		payload = echo.Map{}
	}
	payload["success"] = true
	return c.JSON(code, payload)
}

func message(c echo.Context, msg string) error {
	return respond(c, http.StatusOK, echo.Map{"message": msg})
}

// bind decodes the request body into dest
func bind(c echo.Context, dest interface{}) error {
	if err := c.Bind(dest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// bindAndValidate decodes the body and reports a failed validation with msg
func bindAndValidate(c echo.Context, dest interface{}, msg string) error {
	if err := bind(c, dest); err != nil {
		return err
	}
	if err := c.Validate(dest); err != nil {
		return errorz.New(errorz.Validation, msg)
	}
	return nil
}
