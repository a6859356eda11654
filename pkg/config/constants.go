package config

const (
	// EnvPrefix is the envconfig prefix shared by every variable.
	EnvPrefix = "DEVICECOST"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DEVICECOST_DB_DSN"
	EnvDBHost = "DEVICECOST_DB_HOST"
	EnvDBUser = "DEVICECOST_DB_USER"
	EnvDBName = "DEVICECOST_DB_NAME"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
