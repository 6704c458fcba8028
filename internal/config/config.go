// Package config loads per-service settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const minSecretLen = 32

// Common is shared by every service.
type Common struct {
	Port           string `envconfig:"PORT"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	RedisURL       string `envconfig:"REDIS_URL"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	MetricsToken   string `envconfig:"METRICS_TOKEN"`
	Tracing        bool   `envconfig:"TRACING_ENABLED" default:"false"`
	DevMode        bool   `envconfig:"DEV_MODE" default:"false"`
}

type Auth struct {
	Common
	DatabaseURL string `envconfig:"DATABASE_URL"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
}

type Catalog struct {
	Common
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

type Gateway struct {
	Common
	JWTSecret  string `envconfig:"JWT_SECRET"`
	AuthURL    string `envconfig:"AUTH_URL" default:"http://auth:8081"`
	CatalogURL string `envconfig:"CATALOG_URL" default:"http://catalog:8082"`
}

var ErrWeakSecret = fmt.Errorf("JWT_SECRET is required and must be at least %d chars", minSecretLen)

func LoadAuth() (Auth, error) {
	var c Auth
	if err := load(&c); err != nil {
		return Auth{}, err
	}
	c.Port = orDefault(c.Port, "8081")
	if err := checkSecret(&c.JWTSecret, c.DevMode); err != nil {
		return Auth{}, err
	}
	return c, nil
}

func LoadCatalog() (Catalog, error) {
	var c Catalog
	if err := load(&c); err != nil {
		return Catalog{}, err
	}
	c.Port = orDefault(c.Port, "8082")
	return c, nil
}

func LoadGateway() (Gateway, error) {
	var c Gateway
	if err := load(&c); err != nil {
		return Gateway{}, err
	}
	c.Port = orDefault(c.Port, "8080")
	if err := checkSecret(&c.JWTSecret, c.DevMode); err != nil {
		return Gateway{}, err
	}
	return c, nil
}

func load(spec any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", spec); err != nil {
		return fmt.Errorf("process env: %w", err)
	}
	return nil
}

// checkSecret enforces a real signing secret outside dev mode; dev mode
// falls back to a fixed one.
func checkSecret(secret *string, dev bool) error {
	if len(*secret) >= minSecretLen {
		return nil
	}
	if dev && *secret == "" {
		*secret = "dev-secret-dev-secret-dev-secret!"
		return nil
	}
	return ErrWeakSecret
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
