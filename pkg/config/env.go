package config

// EnvPrefix namespaces envconfig lookups; tagged fields fall back to their explicit key.
const EnvPrefix = "ORDERDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "ORDERDESK_APP_ENV"
	EnvPort     = "ORDERDESK_APP_PORT"
	EnvLogLevel = "ORDERDESK_LOG_LEVEL"

	EnvDBDSN    = "ORDERDESK_DB_DSN"
	EnvDBDriver = "ORDERDESK_DB_DRIVER"
	EnvDBHost   = "ORDERDESK_DB_HOST"
	EnvDBUser   = "ORDERDESK_DB_USER"
	EnvDBName   = "ORDERDESK_DB_NAME"

	EnvRedisURL     = "ORDERDESK_REDIS_URL"
	EnvCacheEnabled = "ORDERDESK_CACHE_ENABLED"

	EnvPubSubEnabled = "ORDERDESK_PUBSUB_ENABLED"
	EnvGCPProjectID  = "ORDERDESK_GCP_PROJECT_ID"
	EnvOrdersTopic   = "ORDERDESK_PUBSUB_ORDERS_TOPIC"
	EnvProductsTopic = "ORDERDESK_PUBSUB_PRODUCTS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
