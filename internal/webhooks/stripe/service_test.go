package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/nvelasquez/threadline-backend/pkg/enums"
	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
)

type stubSettler struct {
	checkoutID string
	status     enums.PaymentStatus
	calls      int
	err        error
}

func (s *stubSettler) ApplyCheckoutResult(ctx context.Context, checkoutID string, status enums.PaymentStatus) error {
	s.calls++
	s.checkoutID = checkoutID
	s.status = status
	return s.err
}

func sessionEvent(t *testing.T, eventType stripe.EventType, sessionID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(&stripe.CheckoutSession{ID: sessionID})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_test",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventCompletedSettlesSuccessful(t *testing.T) {
	settler := &stubSettler{}
	svc, err := NewService(ServiceParams{Payments: settler})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_done")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if settler.checkoutID != "cs_done" || settler.status != enums.PaymentStatusSuccessful {
		t.Fatalf("expected SUCCESSFUL settlement for cs_done, got %s/%s", settler.checkoutID, settler.status)
	}
}

func TestHandleEventExpiredSettlesExpired(t *testing.T) {
	settler := &stubSettler{}
	svc, err := NewService(ServiceParams{Payments: settler})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionExpired, "cs_gone")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if settler.status != enums.PaymentStatusExpired {
		t.Fatalf("expected EXPIRED settlement, got %s", settler.status)
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	settler := &stubSettler{}
	svc, err := NewService(ServiceParams{Payments: settler})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	event := sessionEvent(t, stripe.EventTypeCustomerCreated, "cs_whatever")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unrelated events must be acknowledged, got %v", err)
	}
	if settler.calls != 0 {
		t.Fatalf("unrelated events must not settle payments")
	}
}

func TestHandleEventMissingSessionID(t *testing.T) {
	settler := &stubSettler{}
	svc, err := NewService(ServiceParams{Payments: settler})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "")
	err = svc.HandleEvent(context.Background(), event)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}
