package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/nvelasquez/threadline-backend/pkg/db/models"
)

type productView struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	PriceCents      int         `json:"price_cents"`
	ProductDetails  []string    `json:"product_details"`
	CareDetails     []string    `json:"care_details"`
	ShippingReturns string      `json:"shipping_returns"`
	Assets          []assetView `json:"assets"`
	CreatedAt       time.Time   `json:"created_at"`
}

type assetView struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	PublicURL string    `json:"public_url"`
}

type productSummaryView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceCents int       `json:"price_cents"`
	Deleted    bool      `json:"deleted"`
}

type cartView struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	Items      []cartItemView `json:"items"`
	TotalCents int            `json:"total_cents"`
}

type cartItemView struct {
	ID       uuid.UUID           `json:"id"`
	Quantity int                 `json:"quantity"`
	Product  *productSummaryView `json:"product,omitempty"`
}

type paymentView struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	CheckoutID  string            `json:"checkout_id"`
	PaymentLink string            `json:"payment_link"`
	Status      string            `json:"status"`
	TotalCents  int               `json:"total_cents"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	Items       []paymentItemView `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
}

type paymentItemView struct {
	ID       uuid.UUID           `json:"id"`
	Quantity int                 `json:"quantity"`
	Product  *productSummaryView `json:"product,omitempty"`
}

type pageView struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Take  int   `json:"take"`
}

func newProductView(product *models.Product) productView {
	view := productView{
		ID:              product.ID,
		UserID:          product.UserID,
		Name:            product.Name,
		Description:     product.Description,
		Category:        product.Category.String(),
		PriceCents:      product.PriceCents,
		ProductDetails:  []string(product.ProductDetails),
		CareDetails:     []string(product.CareDetails),
		ShippingReturns: product.ShippingReturns,
		Assets:          make([]assetView, 0, len(product.Assets)),
		CreatedAt:       product.CreatedAt,
	}
	for _, asset := range product.Assets {
		view.Assets = append(view.Assets, assetView{
			ID:        asset.ID,
			Key:       asset.Key,
			PublicURL: asset.PublicURL,
		})
	}
	return view
}

func newProductSummaryView(product *models.Product) *productSummaryView {
	if product == nil {
		return nil
	}
	return &productSummaryView{
		ID:         product.ID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Deleted:    product.Deleted,
	}
}

func newCartView(cart *models.Cart) cartView {
	view := cartView{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]cartItemView, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		view.Items = append(view.Items, cartItemView{
			ID:       item.ID,
			Quantity: item.Quantity,
			Product:  newProductSummaryView(item.Product),
		})
		if item.Product != nil {
			view.TotalCents += item.Product.PriceCents * item.Quantity
		}
	}
	return view
}

func newPaymentView(payment *models.Payment) paymentView {
	view := paymentView{
		ID:          payment.ID,
		UserID:      payment.UserID,
		CheckoutID:  payment.CheckoutID,
		PaymentLink: payment.PaymentLink,
		Status:      payment.Status.String(),
		TotalCents:  payment.TotalCents,
		ExpiresAt:   payment.ExpiresAt,
		Items:       make([]paymentItemView, 0, len(payment.Items)),
		CreatedAt:   payment.CreatedAt,
	}
	for _, item := range payment.Items {
		view.Items = append(view.Items, paymentItemView{
			ID:       item.ID,
			Quantity: item.Quantity,
			Product:  newProductSummaryView(item.Product),
		})
	}
	return view
}
