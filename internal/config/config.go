package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	AlgHS256 = "HS256"
	AlgEdDSA = "EdDSA"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"userauth"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// DB
	DatabaseURL string `env:"DATABASE_URL" envDefault:"userauth.db"`
	LogSQL      bool   `env:"LOG_SQL"`

	// Tokens / issuer
	Issuer       string        `env:"ISSUER" envDefault:"userauth"`
	Audience     string        `env:"AUDIENCE" envDefault:"userauth-clients"`
	AccessTTL    time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL   time.Duration `env:"REFRESH_TTL" envDefault:"1200h"` // 50 days
	SigningAlg   string        `env:"SIGNING_ALG" envDefault:"HS256"`
	SigningKey   string        `env:"SIGNING_KEY,notEmpty"` // HS256 secret, or base64 ed25519 private key for EdDSA
	SigningKeyID string        `env:"SIGNING_KEY_ID" envDefault:"kid-1"`

	// Identity / profile
	MaxFieldLength int    `env:"MAX_FIELD_LENGTH" envDefault:"100"`
	DefaultAvatar  string `env:"DEFAULT_AVATAR" envDefault:"default-user.png"`

	// HTTP
	Addr           string        `env:"ADDR" envDefault:":8081"`
	TrustProxy     bool          `env:"TRUST_PROXY"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimit      int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	BlacklistPurgeInterval time.Duration `env:"BLACKLIST_PURGE_INTERVAL" envDefault:"1h"`
}

// Load reads the given dotenv files (".env" when none are named) and then
// the environment. Variables already set win over file values; missing
// files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.SigningAlg != AlgHS256 && c.SigningAlg != AlgEdDSA:
		return fmt.Errorf("SIGNING_ALG must be %s or %s, got %q", AlgHS256, AlgEdDSA, c.SigningAlg)
	case c.SigningAlg == AlgHS256 && len(c.SigningKey) < 32:
		return errors.New("SIGNING_KEY must be at least 32 bytes for HS256")
	case c.AccessTTL <= 0 || c.RefreshTTL <= 0:
		return errors.New("ACCESS_TTL and REFRESH_TTL must be positive")
	case c.AccessTTL >= c.RefreshTTL:
		return errors.New("ACCESS_TTL must be shorter than REFRESH_TTL")
	case c.MaxFieldLength <= 0:
		return errors.New("MAX_FIELD_LENGTH must be positive")
	}
	return nil
}

func (c Config) IsPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}
