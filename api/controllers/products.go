package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nvelasquez/threadline-backend/api/responses"
	"github.com/nvelasquez/threadline-backend/api/validators"
	productsvc "github.com/nvelasquez/threadline-backend/internal/products"
	"github.com/nvelasquez/threadline-backend/pkg/enums"
	pkgerrors "github.com/nvelasquez/threadline-backend/pkg/errors"
	"github.com/nvelasquez/threadline-backend/pkg/logger"
	"github.com/nvelasquez/threadline-backend/pkg/pagination"
)

type createProductRequest struct {
	Name            string   `json:"name" validate:"required,min=1,max=120"`
	Description     string   `json:"description" validate:"required,max=2000"`
	Category        string   `json:"category" validate:"required"`
	PriceCents      int      `json:"price_cents" validate:"required,min=50"`
	ProductDetails  []string `json:"product_details" validate:"omitempty,max=5,dive,max=200"`
	CareDetails     []string `json:"care_details" validate:"omitempty,max=5,dive,max=200"`
	ShippingReturns string   `json:"shipping_returns" validate:"omitempty,max=2000"`
	AssetKeys       []string `json:"asset_keys" validate:"omitempty,max=5,dive,required"`
}

type editProductRequest struct {
	Name            *string   `json:"name" validate:"omitempty,min=1,max=120"`
	Description     *string   `json:"description" validate:"omitempty,max=2000"`
	Category        *string   `json:"category"`
	PriceCents      *int      `json:"price_cents" validate:"omitempty,min=50"`
	ProductDetails  *[]string `json:"product_details" validate:"omitempty,max=5,dive,max=200"`
	CareDetails     *[]string `json:"care_details" validate:"omitempty,max=5,dive,max=200"`
	ShippingReturns *string   `json:"shipping_returns" validate:"omitempty,max=2000"`
	AssetKeys       *[]string `json:"asset_keys" validate:"omitempty,max=5,dive,required"`
}

// ProductList serves the public catalog with optional filters.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		skip, err := validators.ParseQueryInt(r, "skip", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		take, err := validators.ParseQueryInt(r, "take", pagination.DefaultTake, 1, pagination.MaxTake)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceGte, err := validators.ParseQueryIntPtr(r, "price_gte", 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceLte, err := validators.ParseQueryIntPtr(r, "price_lte", 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := productsvc.ListFilter{
			Name:     validators.SanitizeString(r.URL.Query().Get("name"), 0),
			PriceGte: priceGte,
			PriceLte: priceLte,
			Page:     pagination.Params{Skip: skip, Take: take},
		}
		for _, raw := range r.URL.Query()["category"] {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			category, parseErr := enums.ParseProductCategory(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid category filter"))
				return
			}
			filter.Categories = append(filter.Categories, category)
		}

		rows, total, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]productView, 0, len(rows))
		for i := range rows {
			views = append(views, newProductView(&rows[i]))
		}
		responses.WriteSuccess(w, pageView{Items: views, Total: total, Skip: skip, Take: take})
	}
}

// ProductGet returns a single active product, nil data when absent.
func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if product == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, newProductView(product))
	}
}

// ProductCreate registers a new listing for the authenticated seller.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseProductCategory(payload.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		product, err := svc.Create(r.Context(), userID, productsvc.CreateProductInput{
			Name:            validators.SanitizeString(payload.Name, 0),
			Description:     validators.SanitizeString(payload.Description, 0),
			Category:        category,
			PriceCents:      payload.PriceCents,
			ProductDetails:  sanitizeLines(payload.ProductDetails),
			CareDetails:     sanitizeLines(payload.CareDetails),
			ShippingReturns: validators.SanitizeString(payload.ShippingReturns, 0),
			AssetKeys:       payload.AssetKeys,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductView(product))
	}
}

// ProductEdit applies a partial update to a listing owned by the caller.
func ProductEdit(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload editProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.EditProductInput{
			PriceCents:     payload.PriceCents,
			ProductDetails: sanitizeLinesPtr(payload.ProductDetails),
			CareDetails:    sanitizeLinesPtr(payload.CareDetails),
			AssetKeys:      payload.AssetKeys,
		}
		if payload.Name != nil {
			name := validators.SanitizeString(*payload.Name, 0)
			input.Name = &name
		}
		if payload.Description != nil {
			description := validators.SanitizeString(*payload.Description, 0)
			input.Description = &description
		}
		if payload.ShippingReturns != nil {
			shipping := validators.SanitizeString(*payload.ShippingReturns, 0)
			input.ShippingReturns = &shipping
		}
		if payload.Category != nil {
			category, parseErr := enums.ParseProductCategory(*payload.Category)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid category"))
				return
			}
			input.Category = &category
		}

		product, err := svc.Edit(r.Context(), userID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(product))
	}
}

// ProductDelete retires a listing and sweeps its dependent state.
func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

func sanitizeLines(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, validators.SanitizeString(line, 0))
	}
	return out
}

func sanitizeLinesPtr(lines *[]string) *[]string {
	if lines == nil {
		return nil
	}
	out := sanitizeLines(*lines)
	return &out
}
