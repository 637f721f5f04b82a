package config

const EnvPrefix = "COLLETTE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "COLLETTE_APP_ENV"
	EnvPort         = "COLLETTE_APP_PORT"
	EnvLogLevel     = "COLLETTE_LOG_LEVEL"
	EnvDBDSN        = "COLLETTE_DB_DSN"
	EnvDBHost       = "COLLETTE_DB_HOST"
	EnvDBUser       = "COLLETTE_DB_USER"
	EnvDBName       = "COLLETTE_DB_NAME"
	EnvRedisURL     = "COLLETTE_REDIS_URL"
	EnvGCPProjectID = "COLLETTE_GCP_PROJECT_ID"

	EnvOrderCodePrefix      = "COLLETTE_ORDER_CODE_PREFIX"
	EnvOrderCodeDigits      = "COLLETTE_ORDER_CODE_DIGITS"
	EnvLowStockThreshold    = "COLLETTE_INVENTORY_LOW_STOCK_THRESHOLD"
	EnvLowStockPolicy       = "COLLETTE_INVENTORY_LOW_STOCK_POLICY"
	EnvLowStockWindow       = "COLLETTE_INVENTORY_LOW_STOCK_WINDOW"
	EnvPubSubOrdersTopic    = "COLLETTE_PUBSUB_ORDERS_TOPIC"
	EnvPubSubInventoryTopic = "COLLETTE_PUBSUB_INVENTORY_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
