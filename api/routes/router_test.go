package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nvelasquez/threadline-backend/internal/cart"
	"github.com/nvelasquez/threadline-backend/internal/payments"
	"github.com/nvelasquez/threadline-backend/internal/products"
	"github.com/nvelasquez/threadline-backend/internal/uploads"
	pkgauth "github.com/nvelasquez/threadline-backend/pkg/auth"
	"github.com/nvelasquez/threadline-backend/pkg/config"
	"github.com/nvelasquez/threadline-backend/pkg/db/models"
	"github.com/nvelasquez/threadline-backend/pkg/enums"
	"github.com/nvelasquez/threadline-backend/pkg/logger"
)

type stubProductService struct{}

func (stubProductService) List(ctx context.Context, filter products.ListFilter) ([]models.Product, int64, error) {
	return nil, 0, nil
}

func (stubProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, nil
}

func (stubProductService) Create(ctx context.Context, userID uuid.UUID, input products.CreateProductInput) (*models.Product, error) {
	return &models.Product{ID: uuid.New(), Name: input.Name}, nil
}

func (stubProductService) Edit(ctx context.Context, userID, productID uuid.UUID, input products.EditProductInput) (*models.Product, error) {
	return &models.Product{ID: productID}, nil
}

func (stubProductService) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (stubCartService) UpsertItem(ctx context.Context, userID uuid.UUID, input cart.UpsertItemInput) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (stubCartService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New()}, nil
}

func (stubCartService) Checkout(ctx context.Context, userID uuid.UUID) (*models.Payment, error) {
	return &models.Payment{ID: uuid.New()}, nil
}

type stubPaymentService struct{}

func (stubPaymentService) Create(ctx context.Context, userID uuid.UUID, items []payments.ItemInput) (*models.Payment, error) {
	return &models.Payment{ID: uuid.New()}, nil
}

func (stubPaymentService) List(ctx context.Context, userID uuid.UUID, filter payments.ListFilter) ([]models.Payment, int64, error) {
	return nil, 0, nil
}

func (stubPaymentService) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return nil, nil
}

func (stubPaymentService) Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error) {
	return &models.Payment{ID: id}, nil
}

func (stubPaymentService) ApplyCheckoutResult(ctx context.Context, checkoutID string, status enums.PaymentStatus) error {
	return nil
}

type stubUploadService struct{}

func (stubUploadService) PresignUpload(ctx context.Context, userID uuid.UUID) (*uploads.PresignOutput, error) {
	return &uploads.PresignOutput{Key: "u/" + userID.String() + "/obj"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "threadline"},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		nil, // *db.Client
		nil, // *redis.Client
		nil, // *metrics.HTTPMetrics
		nil, // *metrics.WebhookMetrics
		stubProductService{},
		stubCartService{},
		stubPaymentService{},
		stubUploadService{},
		nil, // *stripe.Client
		nil, // *stripewebhook.Service
		nil, // *stripewebhook.IdempotencyGuard
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgauth.SignAccessToken(cfg.JWT, uuid.New(), "buyer@example.com", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestProductWritesRequireJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	body := `{"name":"Tote","description":"Canvas","category":"accessories","price_cents":5000}`
	authed := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	authed.Header.Set("Content-Type", "application/json")
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 with token got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestCartRequiresJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestPaymentGetIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public payment lookup got %d", resp.Code)
	}
}

func TestPaymentListRequiresJWT(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestUploadPresignRequiresJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestWebhookRejectsUnsignedDelivery(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsigned webhook got %d", resp.Code)
	}
}

func TestLivenessEndpoint(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Threadline-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}
