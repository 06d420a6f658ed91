package config

// EnvPrefix scopes every environment variable the server reads.
const EnvPrefix = "GIFTGINNIE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "GIFTGINNIE_DB_DSN"
	EnvDBHost = "GIFTGINNIE_DB_HOST"
	EnvDBUser = "GIFTGINNIE_DB_USER"
	EnvDBName = "GIFTGINNIE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
