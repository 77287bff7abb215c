package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"clubsphere/internal/errorz"
)

const intentStatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)

// PaymentIntent is the subset of a provider payment intent the app relies on
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64 // minor units
	Currency     string
	Metadata     map[string]string
}

// Succeeded reports whether the provider captured the payment
func (i *PaymentIntent) Succeeded() bool {
	return i.Status == intentStatusSucceeded
}

// PaymentGateway creates and looks up payment intents
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

type StripeService struct {
	client *client.API
}

func NewStripeService(secretKey string) *StripeService {
	return &StripeService{client: client.New(secretKey, nil)}
}

// CreateIntent creates a payment intent with automatic payment methods
func (s *StripeService) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.client.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return toPaymentIntent(pi), nil
}

// RetrieveIntent fetches the current state of a payment intent
func (s *StripeService) RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.client.PaymentIntents.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, errorz.New(errorz.NotFound, "Payment intent not found")
		}
		return nil, fmt.Errorf("stripe retrieve payment intent: %w", err)
	}
	return toPaymentIntent(pi), nil
}

func toPaymentIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
