package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DevJWTSecret is the secret LoadWithDefaults falls back to.
const DevJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Store StoreConfig
	HTTP  HTTPConfig
	GRPC  GRPCConfig
	Auth  AuthConfig
	Log   LogConfig
}

// StoreConfig selects and locates durable storage.
type StoreConfig struct {
	Backend    string `env:"STORE_BACKEND" envDefault:"file"`         // "file" or "sqlite"
	DataDir    string `env:"DATA_DIR" envDefault:"data"`              // users.json / articles.json live here
	DBPath     string `env:"DB_PATH" envDefault:"data/app.db"`        // SQLite database file path
	UploadsDir string `env:"UPLOADS_DIR" envDefault:"data/uploads"` // uploaded files
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address            string   `env:"HTTP_ADDRESS" envDefault:":3000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	UploadURLPrefix    string   `env:"UPLOAD_URL_PREFIX" envDefault:"./assets/uploads/"`
	MaxUploadBytes     int64    `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Enabled bool   `env:"GRPC_ENABLED" envDefault:"true"`
	Address string `env:"GRPC_ADDRESS" envDefault:":50051"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`                  // JWT signing secret
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"0s"`   // 0 issues tokens without expiry
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"` // password hash work factor
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file, then the environment. JWT_SECRET must be set.
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, cfg.Validate()
}

// LoadWithDefaults is like Load but uses a fixed JWT_SECRET when none is set.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DevJWTSecret
	}
	return cfg, cfg.Validate()
}

func parse() (*Config, error) {
	// A missing .env file is fine; variables already set take precedence.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendFile, BackendSQLite, c.Store.Backend))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL must not be negative"))
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	grpcAddr := "disabled"
	if c.GRPC.Enabled {
		grpcAddr = c.GRPC.Address
	}
	return fmt.Sprintf("Config{Store: %s (data=%s db=%s uploads=%s), HTTP: %s, gRPC: %s, Auth: *** (masked) ***}",
		c.Store.Backend, c.Store.DataDir, c.Store.DBPath, c.Store.UploadsDir, c.HTTP.Address, grpcAddr)
}
