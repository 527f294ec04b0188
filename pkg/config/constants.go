package config

// EnvPrefix is empty because every variable already carries the TRASHPOINT_
// prefix in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "TRASHPOINT_APP_ENV"
	EnvPort     = "TRASHPOINT_APP_PORT"
	EnvDBDSN    = "TRASHPOINT_DB_DSN"
	EnvDBHost   = "TRASHPOINT_DB_HOST"
	EnvDBUser   = "TRASHPOINT_DB_USER"
	EnvDBName   = "TRASHPOINT_DB_NAME"
	EnvRedisURL = "TRASHPOINT_REDIS_URL"

	EnvClassifierBaseURL = "TRASHPOINT_CLASSIFIER_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
