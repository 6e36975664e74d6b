package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/nvelasquez/threadline-backend/pkg/db/models"
	"github.com/nvelasquez/threadline-backend/pkg/enums"
	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
	"github.com/nvelasquez/threadline-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type customerProvider interface {
	EnsureCustomer(ctx context.Context, userID uuid.UUID) (string, error)
}

type cartItemRemover interface {
	DeleteItemsByIDsWithTx(tx *gorm.DB, itemIDs []uuid.UUID) error
}

// ItemInput is one checkout line: the product, the quantity snapshot, and the
// originating cart line (when the checkout came from a cart).
type ItemInput struct {
	ProductID  uuid.UUID
	Quantity   int
	CartItemID *uuid.UUID
}

// CheckoutURLs carries the fixed redirect targets for hosted sessions.
type CheckoutURLs struct {
	Success string
	Cancel  string
}

// Service exposes payment lifecycle semantics.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, items []ItemInput) (*models.Payment, error)
	List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]models.Payment, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error)
	ApplyCheckoutResult(ctx context.Context, checkoutID string, status enums.PaymentStatus) error
}

type service struct {
	repo      PaymentRepository
	tx        txRunner
	products  productLoader
	customers customerProvider
	cartItems cartItemRemover
	stripe    StripeCheckoutClient
	urls      CheckoutURLs
	logg      *logger.Logger
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Repo      PaymentRepository
	Tx        txRunner
	Products  productLoader
	Customers customerProvider
	CartItems cartItemRemover
	Stripe    StripeCheckoutClient
	URLs      CheckoutURLs
	Logger    *logger.Logger
}

// NewService builds a payment service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer provider required")
	}
	if params.CartItems == nil {
		return nil, fmt.Errorf("cart item remover required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.URLs.Success == "" || params.URLs.Cancel == "" {
		return nil, fmt.Errorf("checkout redirect urls required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		products:  params.Products,
		customers: params.Customers,
		cartItems: params.CartItems,
		stripe:    params.Stripe,
		urls:      params.URLs,
		logg:      params.Logger,
	}, nil
}

// Create opens a hosted checkout session and persists the PENDING payment.
// Total and expiry come from the session response, not from local math.
func (s *service) Create(ctx context.Context, userID uuid.UUID, items []ItemInput) (*models.Payment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	productIDs := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in checkout")
		}
		seen[item.ProductID] = struct{}{}
		productIDs = append(productIDs, item.ProductID)
	}

	customerID, err := s.customers.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	products, err := s.products.FindActiveByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	if len(products) != len(productIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more products are unavailable")
	}
	priceByProduct := make(map[uuid.UUID]string, len(products))
	for _, product := range products {
		priceByProduct[product.ID] = product.StripePriceID
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(priceByProduct[item.ProductID]),
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	session, err := s.stripe.CreateSession(ctx, &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(s.urls.Success),
		CancelURL:  stripe.String(s.urls.Cancel),
		LineItems:  lineItems,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if session == nil || session.ID == "" || session.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout session incomplete")
	}

	payment := &models.Payment{
		UserID:      userID,
		CheckoutID:  session.ID,
		PaymentLink: session.URL,
		Status:      enums.PaymentStatusPending,
		TotalCents:  int(session.AmountTotal),
	}
	if session.ExpiresAt > 0 {
		expires := time.Unix(session.ExpiresAt, 0).UTC()
		payment.ExpiresAt = &expires
	}
	for _, item := range items {
		payment.Items = append(payment.Items, models.PaymentItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			CartItemID: item.CartItemID,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, createErr := s.repo.WithTx(tx).Create(ctx, payment)
		return createErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
	}
	return payment, nil
}

// List returns the user's payment history, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]models.Payment, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	rows, total, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, total, nil
}

// Get returns the payment or nil when absent.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

// Cancel expires a PENDING payment owned by the user. The Stripe session
// expire call is best-effort; the local transition is what counts.
func (s *service) Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	payment, err := s.repo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is no longer pending")
	}

	if _, expErr := s.stripe.ExpireSession(ctx, payment.CheckoutID); expErr != nil && s.logg != nil {
		s.logg.Error(ctx, "expire checkout session", expErr)
	}

	rows, err := s.repo.MarkExpired(ctx, payment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire payment")
	}
	if rows == 0 {
		// lost the race against the webhook
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is no longer pending")
	}

	payment.Status = enums.PaymentStatusExpired
	payment.ExpiresAt = nil
	return payment, nil
}

// ApplyCheckoutResult settles the payment for a checkout session exactly once
// and clears the originating cart lines in the same transaction.
func (s *service) ApplyCheckoutResult(ctx context.Context, checkoutID string, status enums.PaymentStatus) error {
	if checkoutID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout id is required")
	}
	if !status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeValidation, "status must be terminal")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.SettlePending(ctx, checkoutID, status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
		}
		if rows == 0 {
			payment, findErr := repo.FindByCheckoutID(ctx, checkoutID)
			switch {
			case errors.Is(findErr, gorm.ErrRecordNotFound):
				if s.logg != nil {
					s.logg.Warn(ctx, fmt.Sprintf("checkout %s has no payment row", checkoutID))
				}
			case findErr != nil:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load payment")
			default:
				if s.logg != nil {
					s.logg.Info(ctx, fmt.Sprintf("payment %s already settled", payment.ID))
				}
			}
			return nil
		}

		payment, err := repo.FindByCheckoutID(ctx, checkoutID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settled payment")
		}

		var cartItemIDs []uuid.UUID
		for _, item := range payment.Items {
			if item.CartItemID != nil {
				cartItemIDs = append(cartItemIDs, *item.CartItemID)
			}
		}
		if len(cartItemIDs) == 0 {
			return nil
		}
		if err := s.cartItems.DeleteItemsByIDsWithTx(tx, cartItemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		return nil
	})
}
