package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nvelasquez/threadline-backend/pkg/db/models"
	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
	"github.com/nvelasquez/threadline-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type assetStorage interface {
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type paymentSweeper interface {
	ExpirePendingByProductWithTx(tx *gorm.DB, productID uuid.UUID) (int64, error)
}

type cartItemSweeper interface {
	DeleteItemsByProductWithTx(tx *gorm.DB, productID uuid.UUID) error
}

// Service exposes catalog management semantics.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*models.Product, error)
	Edit(ctx context.Context, userID, productID uuid.UUID, input EditProductInput) (*models.Product, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo     ProductRepository
	tx       txRunner
	stripe   StripeProductClient
	storage  assetStorage
	payments paymentSweeper
	cart     cartItemSweeper
	currency string
	logg     *logger.Logger
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Repo     ProductRepository
	Tx       txRunner
	Stripe   StripeProductClient
	Storage  assetStorage
	Payments paymentSweeper
	Cart     cartItemSweeper
	Currency string
	Logger   *logger.Logger
}

// NewService builds a product service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("asset storage required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment sweeper required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart item sweeper required")
	}
	currency := strings.TrimSpace(strings.ToLower(params.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		stripe:   params.Stripe,
		storage:  params.Storage,
		payments: params.Payments,
		cart:     params.Cart,
		currency: currency,
		logg:     params.Logger,
	}, nil
}

// List returns a catalog page excluding deleted products.
func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, total, nil
}

// Get returns the product or nil when absent, mirroring a public catalog lookup.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// Create registers the listing at Stripe first, then persists it with its assets.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	stripeProduct, err := s.stripe.CreateProduct(ctx, &stripe.ProductParams{
		Name:        stripe.String(input.Name),
		Description: stripe.String(input.Description),
		DefaultPriceData: &stripe.ProductDefaultPriceDataParams{
			Currency:   stripe.String(s.currency),
			UnitAmount: stripe.Int64(int64(input.PriceCents)),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe product")
	}
	if stripeProduct == nil || stripeProduct.DefaultPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe default price missing")
	}

	product := &models.Product{
		UserID:          userID,
		Name:            input.Name,
		Description:     input.Description,
		Category:        input.Category,
		PriceCents:      input.PriceCents,
		StripeProductID: stripeProduct.ID,
		StripePriceID:   stripeProduct.DefaultPrice.ID,
		ProductDetails:  input.ProductDetails,
		CareDetails:     input.CareDetails,
		ShippingReturns: input.ShippingReturns,
		Assets:          s.buildAssets(input.AssetKeys),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, createErr := s.repo.WithTx(tx).Create(ctx, product)
		return createErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist product")
	}
	return product, nil
}

// Edit applies a partial update owned by the seller. Asset replacement and
// price repointing happen before commit; external cleanup stays best-effort.
func (s *service) Edit(ctx context.Context, userID, productID uuid.UUID, input EditProductInput) (*models.Product, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	product, err := s.repo.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
		}
		product.Category = *input.Category
	}
	if input.ProductDetails != nil {
		product.ProductDetails = *input.ProductDetails
	}
	if input.CareDetails != nil {
		product.CareDetails = *input.CareDetails
	}
	if input.ShippingReturns != nil {
		product.ShippingReturns = *input.ShippingReturns
	}

	oldPriceID := ""
	if input.PriceCents != nil && *input.PriceCents != product.PriceCents {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		newPrice, priceErr := s.stripe.CreatePrice(ctx, &stripe.PriceParams{
			Product:    stripe.String(product.StripeProductID),
			Currency:   stripe.String(s.currency),
			UnitAmount: stripe.Int64(int64(*input.PriceCents)),
		})
		if priceErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, priceErr, "create stripe price")
		}
		if _, updErr := s.stripe.UpdateProduct(ctx, product.StripeProductID, &stripe.ProductParams{
			DefaultPrice: stripe.String(newPrice.ID),
		}); updErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, updErr, "repoint default price")
		}
		oldPriceID = product.StripePriceID
		product.StripePriceID = newPrice.ID
		product.PriceCents = *input.PriceCents
	}

	var supersededKeys []string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.AssetKeys != nil {
			existing, listErr := repo.ListAssets(ctx, product.ID)
			if listErr != nil {
				return listErr
			}
			supersededKeys = supersededAssetKeys(existing, *input.AssetKeys)
			if repErr := repo.ReplaceAssets(ctx, product.ID, s.buildAssets(*input.AssetKeys)); repErr != nil {
				return repErr
			}
		}
		_, updErr := repo.Update(ctx, product)
		return updErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist product update")
	}

	if oldPriceID != "" {
		if _, deactErr := s.stripe.DeactivatePrice(ctx, oldPriceID); deactErr != nil && s.logg != nil {
			s.logg.Error(ctx, "deactivate superseded stripe price", deactErr)
		}
	}
	s.cleanupStorage(ctx, supersededKeys)

	refreshed, err := s.repo.FindActiveByID(ctx, product.ID)
	if err != nil {
		return product, nil
	}
	return refreshed, nil
}

// Delete soft-deletes the listing and sweeps every reference in one transaction.
func (s *service) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var assetKeys []string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, markErr := repo.MarkDeleted(ctx, productID, userID)
		if markErr != nil {
			return markErr
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		if _, expErr := s.payments.ExpirePendingByProductWithTx(tx, productID); expErr != nil {
			return expErr
		}
		if cartErr := s.cart.DeleteItemsByProductWithTx(tx, productID); cartErr != nil {
			return cartErr
		}

		assets, listErr := repo.ListAssets(ctx, productID)
		if listErr != nil {
			return listErr
		}
		for _, asset := range assets {
			assetKeys = append(assetKeys, asset.Key)
		}
		return repo.DeleteAssets(ctx, productID)
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return appErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}

	s.cleanupStorage(ctx, assetKeys)
	return nil
}

func (s *service) buildAssets(keys []string) []models.ProductAsset {
	assets := make([]models.ProductAsset, 0, len(keys))
	for _, key := range keys {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		assets = append(assets, models.ProductAsset{
			Key:       trimmed,
			PublicURL: s.storage.PublicURL(trimmed),
		})
	}
	return assets
}

func (s *service) cleanupStorage(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	var errs error
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil && s.logg != nil {
		s.logg.Error(ctx, "cleanup storage objects", errs)
	}
}

func supersededAssetKeys(existing []models.ProductAsset, next []string) []string {
	keep := make(map[string]struct{}, len(next))
	for _, key := range next {
		keep[strings.TrimSpace(key)] = struct{}{}
	}
	var superseded []string
	for _, asset := range existing {
		if _, ok := keep[asset.Key]; !ok {
			superseded = append(superseded, asset.Key)
		}
	}
	return superseded
}
