package config // package config loads application configuration from environment variables

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/iliyamo/store-rating/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; a .env file in the working directory is read
// first when present.
type Config struct {
	Env            string `envconfig:"APP_ENV" default:"development"` // development, test or production
	Port           string `envconfig:"APP_PORT" default:"8080"`       // HTTP port to listen on
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error or off
	FrontendURL    string `envconfig:"FRONTEND_URL"`                  // extra CORS origin
	DBDriver       string `envconfig:"DB_DRIVER" default:"mysql"`     // mysql or sqlite
	DBUser         string `envconfig:"DB_USER" default:"root"`
	DBPass         string `envconfig:"DB_PASS"`
	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         string `envconfig:"DB_PORT" default:"3306"`
	DBName         string `envconfig:"DB_NAME" required:"true"` // database name, or file path for sqlite
	AutoMigrate    bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`
	AccessTTLMin   int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"15"`
	RefreshTTLDays int    `envconfig:"REFRESH_TOKEN_TTL_DAYS" default:"7"`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"10"`
}

// Load reads configuration values from the environment.  Missing required
// variables are reported as an error so the caller decides how to exit.
func Load() (Config, error) {
	_ = godotenv.Load() // optional; real environment wins over .env
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return c, nil
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool { return c.Env == "production" }

// AccessTTL is the access token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL is the refresh token and cookie lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// Database returns the connection options for database.Open.
func (c Config) Database() database.Options {
	return database.Options{
		Driver: c.DBDriver,
		User:   c.DBUser,
		Pass:   c.DBPass,
		Host:   c.DBHost,
		Port:   c.DBPort,
		Name:   c.DBName,
	}
}
