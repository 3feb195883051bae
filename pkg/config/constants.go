package config

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "GEARBOOK"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv           = "GEARBOOK_APP_ENV"
	EnvPort             = "GEARBOOK_APP_PORT"
	EnvDBDSN            = "GEARBOOK_DB_DSN"
	EnvDBHost           = "GEARBOOK_DB_HOST"
	EnvDBUser           = "GEARBOOK_DB_USER"
	EnvDBName           = "GEARBOOK_DB_NAME"
	EnvRedisURL         = "GEARBOOK_REDIS_URL"
	EnvInventoryBaseURL = "GEARBOOK_INVENTORY_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
