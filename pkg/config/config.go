package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DEVICECOST_APP_ENV" required:"true"`
	Port         string `envconfig:"DEVICECOST_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DEVICECOST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DEVICECOST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DEVICECOST_DB_DSN"`
	Driver string `envconfig:"DEVICECOST_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DEVICECOST_DB_HOST"`
	Port     int    `envconfig:"DEVICECOST_DB_PORT" default:"5432"`
	User     string `envconfig:"DEVICECOST_DB_USER"`
	Password string `envconfig:"DEVICECOST_DB_PASSWORD"`
	Name     string `envconfig:"DEVICECOST_DB_NAME"`
	SSLMode  string `envconfig:"DEVICECOST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEVICECOST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEVICECOST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEVICECOST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEVICECOST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEVICECOST_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	componentValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if componentValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("database config incomplete: set %s or %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.User, db.Password),
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	query := dsn.Query()
	query.Set("sslmode", db.SSLMode)
	dsn.RawQuery = query.Encode()

	db.DSN = dsn.String()
	return nil
}
