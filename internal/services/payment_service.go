package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"clubsphere/internal/errorz"
	"clubsphere/internal/logger"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
)

// PaymentService creates payment intents and turns succeeded intents into
// payments and the memberships or registrations they pay for.
//
// Confirmation is two-phase: the payment row is recorded first, keyed by the
// intent id, then fulfilled. A failed fulfillment leaves FulfilledAt empty and
// FulfillPending retries it.
type PaymentService struct {
	db            *gorm.DB
	gateway       PaymentGateway
	currency      string
	memberships   *MembershipService
	registrations *RegistrationService
	events        *Publisher
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, currency string, memberships *MembershipService, registrations *RegistrationService, events *Publisher) *PaymentService {
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		db:            db,
		gateway:       gateway,
		currency:      currency,
		memberships:   memberships,
		registrations: registrations,
		events:        events,
	}
}

// IntentResult is what the client needs to complete a payment
type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type ConfirmPaymentInput struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
	Type            string `json:"type"`
	ClubID          string `json:"clubId"`
	EventID         string `json:"eventId"`
}

// ConfirmResult is the recorded payment. Fulfilled reports whether the membership
// or registration it pays for exists.
type ConfirmResult struct {
	Payment   *models.Payment
	Fulfilled bool
}

// FulfillReport summarizes one reconciliation pass
type FulfillReport struct {
	Pending   int      `json:"pending"`
	Fulfilled int      `json:"fulfilled"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// CreateMembershipIntent starts the payment of a paid club membership
func (s *PaymentService) CreateMembershipIntent(ctx context.Context, email, clubID string) (*IntentResult, error) {
	if clubID == "" {
		return nil, errorz.New(errorz.Validation, "Club ID is required")
	}

	club, err := findClub(s.db.WithContext(ctx), clubID)
	if err != nil {
		return nil, err
	}
	if club.Status != models.ClubStatusApproved {
		return nil, errorz.New(errorz.NotFound, "Club not found or not approved")
	}
	if !club.IsPaid() {
		return nil, errorz.New(errorz.Validation, "This club has free membership")
	}

	var members int64
	err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_email = ? AND club_id = ?", email, club.ID).
		Count(&members).Error
	if err != nil {
		return nil, err
	}
	if members > 0 {
		return nil, errorz.New(errorz.Conflict, "You are already a member of this club")
	}

	return s.createIntent(ctx, club.MembershipFee, map[string]string{
		"type":      string(models.PaymentTypeMembership),
		"clubId":    club.ID,
		"userEmail": email,
	})
}

// CreateEventIntent starts the payment of a paid event registration
func (s *PaymentService) CreateEventIntent(ctx context.Context, email, eventID string) (*IntentResult, error) {
	if eventID == "" {
		return nil, errorz.New(errorz.Validation, "Event ID is required")
	}

	event, err := findEvent(s.db.WithContext(ctx), eventID)
	if err != nil {
		return nil, err
	}
	if !event.RequiresPayment() {
		return nil, errorz.New(errorz.Validation, "This event is free")
	}

	var registered int64
	err = s.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Where("user_email = ? AND event_id = ?", email, event.ID).
		Count(&registered).Error
	if err != nil {
		return nil, err
	}
	if registered > 0 {
		return nil, errorz.New(errorz.Conflict, "You are already registered for this event")
	}

	if event.MaxAttendees != nil && *event.MaxAttendees > 0 {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.EventRegistration{}).
			Where("event_id = ? AND status = ?", event.ID, models.RegistrationStatusRegistered).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count >= int64(*event.MaxAttendees) {
			return nil, errorz.New(errorz.CapacityExceeded, "Event is full")
		}
	}

	return s.createIntent(ctx, event.EventFee, map[string]string{
		"type":      string(models.PaymentTypeEvent),
		"eventId":   event.ID,
		"clubId":    event.ClubID,
		"userEmail": email,
	})
}

func (s *PaymentService) createIntent(ctx context.Context, amount float64, metadata map[string]string) (*IntentResult, error) {
	minor := toMinorUnits(amount)
	intent, err := s.gateway.CreateIntent(ctx, minor, s.currency, metadata)
	if err != nil {
		return nil, err
	}
	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          minor,
		Currency:        s.currency,
	}, nil
}

// ConfirmPayment records a succeeded intent and fulfills it.
// Confirming the same intent again returns the stored payment.
func (s *PaymentService) ConfirmPayment(ctx context.Context, email string, input ConfirmPaymentInput) (*ConfirmResult, error) {
	if err := validateInput(input, "Payment intent ID is required"); err != nil {
		return nil, err
	}

	intent, err := s.gateway.RetrieveIntent(ctx, input.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if !intent.Succeeded() {
		return nil, errorz.New(errorz.PaymentNotSucceeded, "Payment not successful")
	}

	if owner := intent.Metadata["userEmail"]; owner != "" && owner != email {
		return nil, errorz.New(errorz.Forbidden, "This payment belongs to another user")
	}

	paymentType, err := reconcileField(intent.Metadata["type"], input.Type, "Payment type does not match the payment intent")
	if err != nil {
		return nil, err
	}
	clubID, err := reconcileField(intent.Metadata["clubId"], input.ClubID, "Club does not match the payment intent")
	if err != nil {
		return nil, err
	}
	eventID, err := reconcileField(intent.Metadata["eventId"], input.EventID, "Event does not match the payment intent")
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserEmail:             email,
		Amount:                float64(intent.Amount) / 100,
		Type:                  models.PaymentType(paymentType),
		ClubID:                stringPtr(clubID),
		EventID:               stringPtr(eventID),
		StripePaymentIntentID: intent.ID,
		Status:                models.PaymentStatusCompleted,
	}
	if !payment.Type.Valid() {
		return nil, errorz.New(errorz.Validation, "Invalid payment type")
	}
	if payment.Type == models.PaymentTypeMembership && clubID == "" {
		return nil, errorz.New(errorz.Validation, "Club ID is required")
	}
	if payment.Type == models.PaymentTypeEvent && eventID == "" {
		return nil, errorz.New(errorz.Validation, "Event ID is required")
	}

	payment, err = s.record(ctx, payment)
	if err != nil {
		return nil, err
	}

	if err := s.fulfill(ctx, payment); err != nil {
		return &ConfirmResult{Payment: payment}, err
	}
	return &ConfirmResult{Payment: payment, Fulfilled: true}, nil
}

// record inserts the payment, or returns the row already stored for its intent
func (s *PaymentService) record(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	err := s.db.WithContext(ctx).Create(payment).Error
	if err == nil {
		s.events.publish(ctx, EventPaymentCompleted, payment)
		return payment, nil
	}
	if !isDuplicate(err) {
		return nil, err
	}

	var existing models.Payment
	if err := s.db.WithContext(ctx).Where("stripe_payment_intent_id = ?", payment.StripePaymentIntentID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// fulfill creates the membership or registration paid for and stamps FulfilledAt
func (s *PaymentService) fulfill(ctx context.Context, payment *models.Payment) error {
	if payment.FulfilledAt != nil {
		return nil
	}

	var err error
	switch payment.Type {
	case models.PaymentTypeMembership:
		_, _, err = s.memberships.Join(ctx, payment.UserEmail, derefString(payment.ClubID), payment.StripePaymentIntentID)
	case models.PaymentTypeEvent:
		_, _, err = s.registrations.Register(ctx, payment.UserEmail, derefString(payment.EventID), payment.StripePaymentIntentID)
	default:
		err = fmt.Errorf("unknown payment type %q", payment.Type)
	}
	// an existing membership or registration already grants what was paid for
	if err != nil && !errors.Is(err, errorz.Conflict) {
		return err
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(payment).Update("fulfilled_at", now).Error; err != nil {
		return err
	}
	payment.FulfilledAt = &now
	return nil
}

// FulfillPending retries fulfillment of every recorded payment that has none yet
func (s *PaymentService) FulfillPending(ctx context.Context) (*FulfillReport, error) {
	var pending []models.Payment
	err := s.db.WithContext(ctx).
		Where("fulfilled_at IS NULL AND status = ?", models.PaymentStatusCompleted).
		Order("created_at asc").
		Find(&pending).Error
	if err != nil {
		return nil, err
	}

	log := logger.Named("payments")
	report := &FulfillReport{Pending: len(pending)}
	for i := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		payment := &pending[i]
		if err := s.fulfill(ctx, payment); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", payment.StripePaymentIntentID, err))
			log.Warnw("payment fulfillment failed", "paymentIntentId", payment.StripePaymentIntentID, "error", err)
			continue
		}
		report.Fulfilled++
	}
	return report, nil
}

// ListMine returns the payments of email, newest first
func (s *PaymentService) ListMine(ctx context.Context, email string) ([]models.Payment, error) {
	return s.list(ctx, s.db.Where("user_email = ?", email))
}

// ListForClub returns the payments made to a club owned by actor
func (s *PaymentService) ListForClub(ctx context.Context, actor policy.Actor, clubID string) ([]models.Payment, error) {
	club, err := findClub(s.db.WithContext(ctx), clubID)
	if err != nil {
		return nil, err
	}
	if err := policy.Evaluate(actor, policy.ClubViewPayments, policy.Resource{OwnerEmail: club.ManagerEmail}); err != nil {
		return nil, err
	}
	return s.list(ctx, s.db.Where("club_id = ?", club.ID))
}

// ListAll returns every payment, newest first
func (s *PaymentService) ListAll(ctx context.Context, actor policy.Actor) ([]models.Payment, error) {
	if err := policy.Evaluate(actor, policy.PaymentListAll, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, s.db)
}

func (s *PaymentService) list(ctx context.Context, query *gorm.DB) ([]models.Payment, error) {
	var payments []models.Payment
	err := query.WithContext(ctx).
		Preload("Club").
		Preload("Event").
		Order("created_at desc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// reconcileField prefers the intent metadata value and rejects a conflicting request value
func reconcileField(fromIntent, fromRequest, mismatch string) (string, error) {
	switch {
	case fromIntent == "":
		return fromRequest, nil
	case fromRequest != "" && fromRequest != fromIntent:
		return "", errorz.New(errorz.Validation, mismatch)
	default:
		return fromIntent, nil
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
