package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clubsphere/internal/errorz"
	"clubsphere/internal/logger"
	"clubsphere/internal/middleware"
	"clubsphere/internal/services"
)

// PaymentHandler handles the Stripe payment endpoints
type PaymentHandler struct {
	payments *services.PaymentService
	users    *services.UserService
}

func NewPaymentHandler(payments *services.PaymentService, users *services.UserService) *PaymentHandler {
	return &PaymentHandler{payments: payments, users: users}
}

func (h *PaymentHandler) CreateMembershipIntent(c echo.Context) error {
	var req MembershipIntentRequest
	if err := bindAndValidate(c, &req, "Club ID is required"); err != nil {
		return err
	}

	intent, err := h.payments.CreateMembershipIntent(c.Request().Context(), middleware.UserEmail(c), req.ClubID)
	if err != nil {
		return err
	}
	return respondIntent(c, intent)
}

func (h *PaymentHandler) CreateEventIntent(c echo.Context) error {
	var req EventIntentRequest
	if err := bindAndValidate(c, &req, "Event ID is required"); err != nil {
		return err
	}

	intent, err := h.payments.CreateEventIntent(c.Request().Context(), middleware.UserEmail(c), req.EventID)
	if err != nil {
		return err
	}
	return respondIntent(c, intent)
}

// ConfirmPayment records a succeeded intent and creates what it paid for.
// When the payment is recorded but fulfillment fails the answer is 202 with
// fulfilled=false; the worker retries the fulfillment.
func (h *PaymentHandler) ConfirmPayment(c echo.Context) error {
	var input services.ConfirmPaymentInput
	if err := bind(c, &input); err != nil {
		return err
	}

	email := middleware.UserEmail(c)
	result, err := h.payments.ConfirmPayment(c.Request().Context(), email, input)
	if err != nil {
		if result == nil || result.Payment == nil {
			return err
		}

		logger.Named("payments").Warnw("payment recorded but not fulfilled",
			"paymentIntentId", result.Payment.StripePaymentIntentID,
			"user", email,
			"error", err,
		)
		msg := errorz.Message(err)
		if msg == "" {
			msg = "Fulfillment will be retried"
		}
		return respond(c, http.StatusAccepted, echo.Map{
			"message":   "Payment recorded. " + msg,
			"paymentId": result.Payment.StripePaymentIntentID,
			"fulfilled": false,
		})
	}

	return respond(c, http.StatusOK, echo.Map{
		"message":   "Payment confirmed successfully",
		"paymentId": result.Payment.StripePaymentIntentID,
		"fulfilled": result.Fulfilled,
	})
}

func (h *PaymentHandler) MyPayments(c echo.Context) error {
	payments, err := h.payments.ListMine(c.Request().Context(), middleware.UserEmail(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"payments": payments})
}

// ClubPayments lists the payments made to a club managed by the caller
func (h *PaymentHandler) ClubPayments(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	payments, err := h.payments.ListForClub(c.Request().Context(), actor, c.Param("clubId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"payments": payments})
}

func (h *PaymentHandler) AllPayments(c echo.Context) error {
	actor, err := middleware.CurrentActor(c, h.users)
	if err != nil {
		return err
	}
	payments, err := h.payments.ListAll(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"payments": payments})
}

func respondIntent(c echo.Context, intent *services.IntentResult) error {
	return respond(c, http.StatusOK, echo.Map{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.PaymentIntentID,
		"amount":          intent.Amount,
		"currency":        intent.Currency,
	})
}
