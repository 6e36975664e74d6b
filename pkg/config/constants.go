package config

const (
	EnvPrefix = "THREADLINE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "THREADLINE_APP_ENV"
	EnvPort   = "THREADLINE_APP_PORT"

	EnvDBDSN  = "THREADLINE_DB_DSN"
	EnvDBHost = "THREADLINE_DB_HOST"
	EnvDBUser = "THREADLINE_DB_USER"
	EnvDBName = "THREADLINE_DB_NAME"

	EnvRedisURL = "THREADLINE_REDIS_URL"

	EnvJWTSecret = "THREADLINE_JWT_SECRET"
	EnvJWTIssuer = "THREADLINE_JWT_ISSUER"

	EnvStripeAPIKey        = "THREADLINE_STRIPE_API_KEY"
	EnvStripeWebhookSecret = "THREADLINE_STRIPE_WEBHOOK_SECRET"

	EnvR2AccountID     = "THREADLINE_R2_ACCOUNT_ID"
	EnvR2Bucket        = "THREADLINE_R2_BUCKET"
	EnvR2PublicBaseURL = "THREADLINE_R2_PUBLIC_BASE_URL"

	EnvCheckoutSuccessURL = "THREADLINE_CHECKOUT_SUCCESS_URL"
	EnvCheckoutCancelURL  = "THREADLINE_CHECKOUT_CANCEL_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
