package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nvelasquez/threadline-backend/api/controllers"
	webhookcontrollers "github.com/nvelasquez/threadline-backend/api/controllers/webhooks"
	"github.com/nvelasquez/threadline-backend/api/middleware"
	"github.com/nvelasquez/threadline-backend/internal/cart"
	"github.com/nvelasquez/threadline-backend/internal/payments"
	"github.com/nvelasquez/threadline-backend/internal/products"
	"github.com/nvelasquez/threadline-backend/internal/uploads"
	stripewebhook "github.com/nvelasquez/threadline-backend/internal/webhooks/stripe"
	"github.com/nvelasquez/threadline-backend/pkg/config"
	"github.com/nvelasquez/threadline-backend/pkg/db"
	"github.com/nvelasquez/threadline-backend/pkg/logger"
	"github.com/nvelasquez/threadline-backend/pkg/metrics"
	"github.com/nvelasquez/threadline-backend/pkg/redis"
	"github.com/nvelasquez/threadline-backend/pkg/stripe"
)

const (
	webhookRateLimit  = 300
	webhookRateWindow = time.Minute
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	webhookMetrics *metrics.WebhookMetrics,
	productService products.Service,
	cartService cart.Service,
	paymentService payments.Service,
	uploadService uploads.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	var dbPing, redisPing controllers.PingFunc
	if dbClient != nil {
		dbPing = dbClient.Ping
	}
	if redisClient != nil {
		redisPing = redisClient.Ping
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPing, redisPing))
	})

	r.Handle("/metrics", promhttp.Handler())

	webhookHandler := webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, webhookMetrics, logg)
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		if redisClient != nil {
			r.With(middleware.RateLimit("webhooks", redisClient, webhookRateLimit, webhookRateWindow, logg)).
				Post("/stripe", webhookHandler)
			return
		}
		r.Post("/stripe", webhookHandler)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(productService, logg))
		r.Get("/{id}", controllers.ProductGet(productService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Patch("/{id}", controllers.ProductEdit(productService, logg))
			r.Delete("/{id}", controllers.ProductDelete(productService, logg))
		})
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Get("/{id}", controllers.PaymentGet(paymentService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/", controllers.PaymentList(paymentService, logg))
			r.Post("/", controllers.PaymentCreate(paymentService, logg))
			r.Post("/{id}/cancel", controllers.PaymentCancel(paymentService, logg))
		})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/", controllers.CartGet(cartService, logg))
		r.Post("/items", controllers.CartUpsertItem(cartService, logg))
		r.Delete("/items/{id}", controllers.CartDeleteItem(cartService, logg))
		r.Post("/checkout", controllers.CartCheckout(cartService, logg))
	})

	r.Route("/api/v1/uploads", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/presign", controllers.UploadPresign(uploadService, logg))
	})

	return r
}
