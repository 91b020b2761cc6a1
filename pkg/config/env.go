package config

// EnvPrefix is handed to envconfig; every field overrides it with a full name.
const EnvPrefix = "OPTIQUOTE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "OPTIQUOTE_APP_ENV"
	EnvPort     = "OPTIQUOTE_APP_PORT"
	EnvDBDSN    = "OPTIQUOTE_DB_DSN"
	EnvDBHost   = "OPTIQUOTE_DB_HOST"
	EnvDBUser   = "OPTIQUOTE_DB_USER"
	EnvDBName   = "OPTIQUOTE_DB_NAME"
	EnvRedisURL = "OPTIQUOTE_REDIS_URL"

	EnvGCPProjectID          = "OPTIQUOTE_GCP_PROJECT_ID"
	EnvPubSubQuotesTopic     = "OPTIQUOTE_PUBSUB_QUOTES_TOPIC"
	EnvPubSubNotificationSub = "OPTIQUOTE_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvPricingTaxRate    = "OPTIQUOTE_PRICING_TAX_RATE"
	EnvPricingAnnualRate = "OPTIQUOTE_PRICING_ANNUAL_SUPPLY_RATE"
	EnvPricingPOFFee     = "OPTIQUOTE_PRICING_POF_FEE_CENTS"

	EnvPricingSecondPairLens = "OPTIQUOTE_PRICING_SECOND_PAIR_LENS_CENTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
