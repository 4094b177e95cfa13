package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "jar"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "JAR_DB_DSN"
	EnvDBHost = "JAR_DB_HOST"
	EnvDBUser = "JAR_DB_USER"
	EnvDBName = "JAR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
