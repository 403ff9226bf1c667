// Package config loads the process configuration.
//
// The configuration is read exactly once, in main, and passed down as a
// value. Nothing else in the module reads environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinJWTSecretLength is the shortest signing secret accepted at startup.
const MinJWTSecretLength = 16

// Config holds every setting the server needs.
type Config struct {
	Port  int    `env:"PORT" envDefault:"3000"`
	DBURI string `env:"DB_URI" envDefault:"data/contacts.db"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	// StatelessTokens accepts any valid, unexpired token even after logout.
	// Off by default: logout revokes the session token immediately.
	StatelessTokens bool `env:"AUTH_STATELESS_TOKENS" envDefault:"false"`
	BcryptCost      int  `env:"BCRYPT_COST" envDefault:"10"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM"`
	// PublicBaseURL prefixes the links in outgoing email.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`

	Avatar AvatarConfig

	CORSOrigins []string   `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string     `env:"LOG_FORMAT" envDefault:"text"`
}

// AvatarConfig selects where uploaded avatars go. With S3Bucket empty they
// are written to Dir and served by the API itself.
type AvatarConfig struct {
	Dir      string `env:"AVATAR_DIR" envDefault:"public/avatars"`
	MaxBytes int64  `env:"AVATAR_MAX_BYTES" envDefault:"5242880"`

	S3Bucket    string `env:"AVATAR_S3_BUCKET"`
	S3Region    string `env:"AVATAR_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"AVATAR_S3_ENDPOINT"`
	S3AccessKey string `env:"AVATAR_S3_ACCESS_KEY"`
	S3SecretKey string `env:"AVATAR_S3_SECRET_KEY"`
	PublicURL   string `env:"AVATAR_PUBLIC_URL"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set in the environment win over .env.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is normal in production

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be set and at least %d characters", MinJWTSecretLength))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.DBURI == "" {
		errs = append(errs, errors.New("DB_URI must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.SendGridAPIKey != "" && c.MailFrom == "" {
		errs = append(errs, errors.New("MAIL_FROM is required when SENDGRID_API_KEY is set"))
	}
	if c.Avatar.MaxBytes <= 0 {
		errs = append(errs, errors.New("AVATAR_MAX_BYTES must be positive"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be text or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
