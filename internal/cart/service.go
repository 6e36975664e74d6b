package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nvelasquez/threadline-backend/internal/payments"
	"github.com/nvelasquez/threadline-backend/pkg/db/models"
	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
)

type productLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type paymentCreator interface {
	Create(ctx context.Context, userID uuid.UUID, items []payments.ItemInput) (*models.Payment, error)
}

// UpsertItemInput sets the quantity for one product line.
type UpsertItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// Service exposes cart semantics: one lazily-created cart per user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpsertItem(ctx context.Context, userID uuid.UUID, input UpsertItemInput) (*models.Cart, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error)
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Payment, error)
}

type service struct {
	repo     CartRepository
	products productLoader
	payments paymentCreator
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLoader, paymentSvc paymentCreator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if paymentSvc == nil {
		return nil, fmt.Errorf("payment service required")
	}
	return &service{
		repo:     repo,
		products: products,
		payments: paymentSvc,
	}, nil
}

// Get returns the user's cart, creating an empty one on first access.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// UpsertItem sets the quantity for (cart, product). Quantity at or below zero
// removes the line instead.
func (s *service) UpsertItem(ctx context.Context, userID uuid.UUID, input UpsertItemInput) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if _, err := s.products.FindActiveByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if input.Quantity <= 0 {
		if err := s.repo.DeleteItemByProduct(ctx, cart.ID, input.ProductID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
	} else {
		if _, err := s.repo.UpsertItem(ctx, cart.ID, input.ProductID, input.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart item")
		}
	}

	refreshed, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return refreshed, nil
}

// DeleteItem removes a line scoped through the user's cart, so one user can
// never delete another user's lines.
func (s *service) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	rows, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	refreshed, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return refreshed, nil
}

// Checkout snapshots the cart into a payment. The cart itself is left intact;
// webhook settlement clears the lines.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*models.Payment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	items := make([]payments.ItemInput, 0, len(cart.Items))
	for _, line := range cart.Items {
		lineID := line.ID
		items = append(items, payments.ItemInput{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			CartItemID: &lineID,
		})
	}
	return s.payments.Create(ctx, userID, items)
}
