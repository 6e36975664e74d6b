package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/nvelasquez/threadline-backend/pkg/enums"
	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
	"github.com/nvelasquez/threadline-backend/pkg/metrics"
)

type paymentSettler interface {
	ApplyCheckoutResult(ctx context.Context, checkoutID string, status enums.PaymentStatus) error
}

// Service maps checkout session events onto payment transitions.
type Service struct {
	payments paymentSettler
	webhooks *metrics.WebhookMetrics
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Payments paymentSettler
	Metrics  *metrics.WebhookMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment service required")
	}
	return &Service{
		payments: params.Payments,
		webhooks: params.Metrics,
	}, nil
}

// HandleEvent settles the payment referenced by a checkout session event.
// Event types outside the checkout session lifecycle are ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event required")
	}

	var status enums.PaymentStatus
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		status = enums.PaymentStatusSuccessful
	case stripe.EventTypeCheckoutSessionExpired:
		status = enums.PaymentStatusExpired
	default:
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		s.webhooks.IncFailure(string(event.Type))
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	if session.ID == "" {
		s.webhooks.IncFailure(string(event.Type))
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	if err := s.payments.ApplyCheckoutResult(ctx, session.ID, status); err != nil {
		s.webhooks.IncFailure(string(event.Type))
		return err
	}
	s.webhooks.IncProcessed(string(event.Type))
	return nil
}
