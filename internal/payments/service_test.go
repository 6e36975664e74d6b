package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/nvelasquez/threadline-backend/pkg/db/models"
	"github.com/nvelasquez/threadline-backend/pkg/enums"
	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
)

type stubPaymentRepo struct {
	created    *models.Payment
	byCheckout *models.Payment
	byIDUser   *models.Payment

	settleRows  int64
	settleCalls int
	expireRows  int64
}

func (s *stubPaymentRepo) WithTx(tx *gorm.DB) PaymentRepository { return s }

func (s *stubPaymentRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	s.created = payment
	return payment, nil
}

func (s *stubPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Payment, error) {
	if s.byIDUser == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.byIDUser, nil
}

func (s *stubPaymentRepo) FindByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	if s.byCheckout == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.byCheckout, nil
}

func (s *stubPaymentRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]models.Payment, int64, error) {
	return nil, 0, nil
}

func (s *stubPaymentRepo) SettlePending(ctx context.Context, checkoutID string, status enums.PaymentStatus) (int64, error) {
	s.settleCalls++
	return s.settleRows, nil
}

func (s *stubPaymentRepo) MarkExpired(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.expireRows, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProducts struct {
	rows []models.Product
}

func (s stubProducts) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return s.rows, nil
}

type stubCustomers struct{}

func (stubCustomers) EnsureCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	return "cus_test", nil
}

type stubCartItems struct {
	deleted []uuid.UUID
}

func (s *stubCartItems) DeleteItemsByIDsWithTx(tx *gorm.DB, itemIDs []uuid.UUID) error {
	s.deleted = append(s.deleted, itemIDs...)
	return nil
}

type stubCheckoutClient struct {
	session     *stripe.CheckoutSession
	lastParams  *stripe.CheckoutSessionParams
	expireCalls int
}

func (s *stubCheckoutClient) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.lastParams = params
	return s.session, nil
}

func (s *stubCheckoutClient) ExpireSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	s.expireCalls++
	return &stripe.CheckoutSession{ID: id}, nil
}

func newTestService(t *testing.T, repo *stubPaymentRepo, products stubProducts, cartItems *stubCartItems, client *stubCheckoutClient) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Tx:        stubTxRunner{},
		Products:  products,
		Customers: stubCustomers{},
		CartItems: cartItems,
		Stripe:    client,
		URLs:      CheckoutURLs{Success: "https://shop.test/thanks", Cancel: "https://shop.test/cart"},
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return svc
}

func TestCreateSnapshotsSessionTotals(t *testing.T) {
	productA := models.Product{ID: uuid.New(), StripePriceID: "price_a", PriceCents: 1500}
	productB := models.Product{ID: uuid.New(), StripePriceID: "price_b", PriceCents: 900}
	expires := time.Now().Add(30 * time.Minute).Unix()
	repo := &stubPaymentRepo{}
	client := &stubCheckoutClient{session: &stripe.CheckoutSession{
		ID:          "cs_test_123",
		URL:         "https://checkout.stripe.test/cs_test_123",
		AmountTotal: 3900,
		ExpiresAt:   expires,
	}}
	svc := newTestService(t, repo, stubProducts{rows: []models.Product{productA, productB}}, &stubCartItems{}, client)

	lineID := uuid.New()
	payment, err := svc.Create(context.Background(), uuid.New(), []ItemInput{
		{ProductID: productA.ID, Quantity: 2, CartItemID: &lineID},
		{ProductID: productB.ID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if payment.CheckoutID != "cs_test_123" {
		t.Fatalf("unexpected checkout id %s", payment.CheckoutID)
	}
	if payment.TotalCents != 3900 {
		t.Fatalf("total should come from the session, got %d", payment.TotalCents)
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected PENDING, got %s", payment.Status)
	}
	if payment.ExpiresAt == nil || payment.ExpiresAt.Unix() != expires {
		t.Fatalf("expected session expiry carried over")
	}
	if len(payment.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(payment.Items))
	}
	if payment.Items[0].CartItemID == nil || *payment.Items[0].CartItemID != lineID {
		t.Fatalf("expected cart line reference preserved")
	}
	if repo.created == nil {
		t.Fatalf("expected payment persisted")
	}
	if len(client.lastParams.LineItems) != 2 || *client.lastParams.LineItems[0].Price != "price_a" {
		t.Fatalf("expected stored price ids on line items")
	}
}

func TestCreateRejectsDuplicateProducts(t *testing.T) {
	productID := uuid.New()
	svc := newTestService(t, &stubPaymentRepo{}, stubProducts{}, &stubCartItems{}, &stubCheckoutClient{})

	_, err := svc.Create(context.Background(), uuid.New(), []ItemInput{
		{ProductID: productID, Quantity: 1},
		{ProductID: productID, Quantity: 2},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestCreateUnknownProduct(t *testing.T) {
	svc := newTestService(t, &stubPaymentRepo{}, stubProducts{}, &stubCartItems{}, &stubCheckoutClient{})

	_, err := svc.Create(context.Background(), uuid.New(), []ItemInput{{ProductID: uuid.New(), Quantity: 1}})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCancelNonPending(t *testing.T) {
	repo := &stubPaymentRepo{byIDUser: &models.Payment{ID: uuid.New(), Status: enums.PaymentStatusSuccessful}}
	svc := newTestService(t, repo, stubProducts{}, &stubCartItems{}, &stubCheckoutClient{})

	_, err := svc.Cancel(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestCancelLosesRaceToWebhook(t *testing.T) {
	repo := &stubPaymentRepo{
		byIDUser:   &models.Payment{ID: uuid.New(), Status: enums.PaymentStatusPending, CheckoutID: "cs_race"},
		expireRows: 0,
	}
	client := &stubCheckoutClient{}
	svc := newTestService(t, repo, stubProducts{}, &stubCartItems{}, client)

	_, err := svc.Cancel(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
	if client.expireCalls != 1 {
		t.Fatalf("expected session expire attempt")
	}
}

func TestApplyCheckoutResultClearsCartLines(t *testing.T) {
	lineID := uuid.New()
	repo := &stubPaymentRepo{
		settleRows: 1,
		byCheckout: &models.Payment{
			ID:     uuid.New(),
			Status: enums.PaymentStatusSuccessful,
			Items: []models.PaymentItem{
				{ProductID: uuid.New(), Quantity: 1, CartItemID: &lineID},
				{ProductID: uuid.New(), Quantity: 2},
			},
		},
	}
	cartItems := &stubCartItems{}
	svc := newTestService(t, repo, stubProducts{}, cartItems, &stubCheckoutClient{})

	err := svc.ApplyCheckoutResult(context.Background(), "cs_done", enums.PaymentStatusSuccessful)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(cartItems.deleted) != 1 || cartItems.deleted[0] != lineID {
		t.Fatalf("expected only tracked cart line cleared, got %v", cartItems.deleted)
	}
}

func TestApplyCheckoutResultAlreadySettled(t *testing.T) {
	repo := &stubPaymentRepo{
		settleRows: 0,
		byCheckout: &models.Payment{ID: uuid.New(), Status: enums.PaymentStatusSuccessful},
	}
	cartItems := &stubCartItems{}
	svc := newTestService(t, repo, stubProducts{}, cartItems, &stubCheckoutClient{})

	if err := svc.ApplyCheckoutResult(context.Background(), "cs_done", enums.PaymentStatusExpired); err != nil {
		t.Fatalf("expected replay to be a no-op, got %v", err)
	}
	if len(cartItems.deleted) != 0 {
		t.Fatalf("replay must not touch cart lines")
	}
}

func TestApplyCheckoutResultUnknownCheckout(t *testing.T) {
	repo := &stubPaymentRepo{settleRows: 0}
	svc := newTestService(t, repo, stubProducts{}, &stubCartItems{}, &stubCheckoutClient{})

	if err := svc.ApplyCheckoutResult(context.Background(), "cs_missing", enums.PaymentStatusSuccessful); err != nil {
		t.Fatalf("unknown checkout must not error, got %v", err)
	}
}

func TestApplyCheckoutResultRejectsNonTerminal(t *testing.T) {
	svc := newTestService(t, &stubPaymentRepo{}, stubProducts{}, &stubCartItems{}, &stubCheckoutClient{})

	err := svc.ApplyCheckoutResult(context.Background(), "cs_x", enums.PaymentStatusPending)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}
