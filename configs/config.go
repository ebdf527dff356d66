package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Log        LogConfig
	Cloudinary CloudinaryConfig
	Email      EmailConfig
	Seed       SeedConfig
	Jobs       JobsConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port         int           `env:"PORT"                 env-default:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT"  env-default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT"  env-default:"60s"`
	AllowOrigins string        `env:"CORS_ALLOW_ORIGINS"   env-default:"*"`
	TimeZone     string        `env:"SERVER_TIME_ZONE"     env-default:"Africa/Nairobi"`
}

const (
	DriverPostgres = "postgres"
	// DriverMemory keeps everything in process. Data is lost on restart.
	DriverMemory = "memory"
)

type DatabaseConfig struct {
	Driver       string        `env:"DATABASE_DRIVER"         env-default:"postgres"`
	URL          string        `env:"DATABASE_URL"`
	MaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS" env-default:"5"`
	ConnLifetime time.Duration `env:"DATABASE_CONN_LIFETIME"  env-default:"1h"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"JWT_TTL"    env-default:"72h"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// CloudinaryConfig is optional; attachments are disabled when URL is empty.
type CloudinaryConfig struct {
	URL    string `env:"CLOUDINARY_URL"`
	Folder string `env:"CLOUDINARY_FOLDER" env-default:"counsel_connect_attachments"`
}

type EmailConfig struct {
	BrevoAPIKey string `env:"BREVO_API_KEY"`
	SenderEmail string `env:"EMAIL_SENDER"`
	SenderName  string `env:"EMAIL_SENDER_NAME" env-default:"Counsel Connect"`
}

type SeedConfig struct {
	ChairpersonEmail    string `env:"CHAIRPERSON_EMAIL"`
	ChairpersonPassword string `env:"CHAIRPERSON_PASSWORD"`
	ChairpersonName     string `env:"CHAIRPERSON_FULL_NAME" env-default:"Department Chairperson"`
}

type JobsConfig struct {
	ReminderSpec string `env:"JOBS_REMINDER_SPEC" env-default:"0 18 * * *"`
}

type RateLimitConfig struct {
	LoginRPS   float64 `env:"RATE_LIMIT_LOGIN_RPS"   env-default:"1"`
	LoginBurst int     `env:"RATE_LIMIT_LOGIN_BURST" env-default:"5"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}
	if c.Database.MaxOpenConns <= 0 || c.Database.MaxIdleConns < 0 {
		errs = append(errs, errors.New("database pool sizes must be positive"))
	}
	if c.RateLimit.LoginRPS <= 0 || c.RateLimit.LoginBurst <= 0 {
		errs = append(errs, errors.New("login rate limit must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// EmailEnabled reports whether all Brevo credentials are present.
func (c EmailConfig) EmailEnabled() bool {
	return c.BrevoAPIKey != "" && c.SenderEmail != "" && c.SenderName != ""
}
