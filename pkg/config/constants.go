package config

const (
	EnvPrefix = "WORKSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "WORKSHOP_DB_DSN"
	EnvDBHost = "WORKSHOP_DB_HOST"
	EnvDBUser = "WORKSHOP_DB_USER"
	EnvDBName = "WORKSHOP_DB_NAME"

	EnvAppEnv     = "WORKSHOP_APP_ENV"
	EnvPort       = "WORKSHOP_APP_PORT"
	EnvRedisURL   = "WORKSHOP_REDIS_URL"
	EnvJWTSecret  = "WORKSHOP_JWT_SECRET"
	EnvJWTIssuer  = "WORKSHOP_JWT_ISSUER"
	EnvJWTExpMins = "WORKSHOP_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
