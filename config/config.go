// Package config loads the DataRoom server configuration from a JSON file
// and overlays DATAROOM_* environment variables on top of it.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

// Config represents the full server configuration
type Config struct {
	Network  NetworkConfig  `json:"network"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Mail     MailConfig     `json:"mail"`
	Blob     BlobConfig     `json:"blob"`
	Payments PaymentsConfig `json:"payments"`
	Seed     SeedConfig     `json:"seed"`
}

type NetworkConfig struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

type DatabaseConfig struct {
	// DSN selects the engine: duckdb://<path> (empty path is in-memory) or postgres://...
	DSN              string        `json:"dsn"`
	MaxAttempts      int           `json:"max_attempts"`
	RetryDelay       Duration      `json:"retry_delay"`
	StatementTimeout Duration      `json:"statement_timeout"`
	LogBatchSize     int           `json:"log_batch_size"`
	LogFlushInterval Duration      `json:"log_flush_interval"`
	OTPSweepInterval time.Duration `json:"-"`
}

type AuthConfig struct {
	JWTSecret string   `json:"jwt_secret"`
	TokenTTL  Duration `json:"token_ttl"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// BlobConfig selects the S3 bucket for uploads. Static keys are optional;
// without them the default AWS credential chain is used. An empty bucket
// keeps objects in memory.
type BlobConfig struct {
	Bucket          string   `json:"bucket"`
	Region          string   `json:"region"`
	Endpoint        string   `json:"endpoint,omitempty"`
	AccessKeyID     string   `json:"access_key_id,omitempty"`
	SecretAccessKey string   `json:"secret_access_key,omitempty"`
	PresignTTL      Duration `json:"presign_ttl"`
}

type PaymentsConfig struct {
	KeyID     string `json:"key_id"`
	KeySecret string `json:"key_secret"`
	BaseURL   string `json:"base_url"`
	Currency  string `json:"currency"`
}

// SeedConfig is only read by `dataroom -seed`.
type SeedConfig struct {
	AdminEmail    string `json:"admin_email"`
	AdminName     string `json:"admin_name"`
	AdminPassword string `json:"admin_password,omitempty"`
	DemoFolders   int    `json:"demo_folders"`
	RandSeed      int64  `json:"rand_seed"`
}

// Duration lets durations be written as "2s" in config.json.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer nanoseconds: %w", err)
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Default returns the configuration used when no file or env overrides exist
func Default() *Config {
	return &Config{
		Network: NetworkConfig{Address: "0.0.0.0", Port: 5000},
		Database: DatabaseConfig{
			DSN:              "duckdb://dataroom.db",
			MaxAttempts:      5,
			RetryDelay:       Duration(2 * time.Second),
			StatementTimeout: Duration(30 * time.Second),
			LogBatchSize:     100,
			LogFlushInterval: Duration(500 * time.Millisecond),
			OTPSweepInterval: time.Minute,
		},
		Auth: AuthConfig{TokenTTL: Duration(24 * time.Hour)},
		Blob: BlobConfig{Region: "us-east-1", PresignTTL: Duration(time.Hour)},
		Payments: PaymentsConfig{
			BaseURL:  "https://api.razorpay.com/v1",
			Currency: "INR",
		},
	}
}

// Load reads the config file at path (if it exists), then applies env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("expand config path: %w", err)
		}
		data, err := os.ReadFile(expanded)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case os.IsNotExist(err):
			log.Printf("⚠️  Config file %s not found, using defaults and environment", expanded)
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret (or DATAROOM_JWT_SECRET) is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Network.Address = stringEnv("DATAROOM_ADDRESS", cfg.Network.Address)
	cfg.Network.Port = intEnv("DATAROOM_PORT", cfg.Network.Port)

	cfg.Database.DSN = stringEnv("DATAROOM_DB_DSN", cfg.Database.DSN)
	cfg.Database.MaxAttempts = intEnv("DATAROOM_DB_MAX_ATTEMPTS", cfg.Database.MaxAttempts)
	cfg.Database.RetryDelay = Duration(durationEnv("DATAROOM_DB_RETRY_DELAY", cfg.Database.RetryDelay.Std()))
	cfg.Database.StatementTimeout = Duration(durationEnv("DATAROOM_DB_STATEMENT_TIMEOUT", cfg.Database.StatementTimeout.Std()))

	cfg.Auth.JWTSecret = stringEnv("DATAROOM_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = Duration(durationEnv("DATAROOM_TOKEN_TTL", cfg.Auth.TokenTTL.Std()))

	// MAIL_* and EMAIL_* are both accepted for the SMTP credentials.
	cfg.Mail.Host = stringEnv("DATAROOM_MAIL_HOST", cfg.Mail.Host)
	cfg.Mail.Port = intEnv("DATAROOM_MAIL_PORT", cfg.Mail.Port)
	cfg.Mail.User = stringEnv("DATAROOM_MAIL_USER", stringEnv("EMAIL_USER", cfg.Mail.User))
	cfg.Mail.Password = stringEnv("DATAROOM_MAIL_PASS", stringEnv("EMAIL_PASS", cfg.Mail.Password))
	cfg.Mail.From = stringEnv("DATAROOM_MAIL_FROM", cfg.Mail.From)
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.User
	}

	cfg.Blob.Bucket = stringEnv("DATAROOM_BLOB_BUCKET", cfg.Blob.Bucket)
	cfg.Blob.Region = stringEnv("DATAROOM_BLOB_REGION", cfg.Blob.Region)
	cfg.Blob.Endpoint = stringEnv("DATAROOM_BLOB_ENDPOINT", cfg.Blob.Endpoint)
	cfg.Blob.AccessKeyID = stringEnv("DATAROOM_BLOB_ACCESS_KEY_ID", stringEnv("AWS_ACCESS_KEY_ID", cfg.Blob.AccessKeyID))
	cfg.Blob.SecretAccessKey = stringEnv("DATAROOM_BLOB_SECRET_ACCESS_KEY", stringEnv("AWS_SECRET_ACCESS_KEY", cfg.Blob.SecretAccessKey))

	cfg.Payments.KeyID = stringEnv("DATAROOM_PAYMENTS_KEY_ID", cfg.Payments.KeyID)
	cfg.Payments.KeySecret = stringEnv("DATAROOM_PAYMENTS_KEY_SECRET", cfg.Payments.KeySecret)

	cfg.Seed.AdminEmail = stringEnv("DATAROOM_ADMIN_EMAIL", cfg.Seed.AdminEmail)
	cfg.Seed.AdminPassword = stringEnv("DATAROOM_ADMIN_PASSWORD", cfg.Seed.AdminPassword)
}

func stringEnv(name, fallback string) string {
	if raw := strings.TrimSpace(os.Getenv(name)); raw != "" {
		return raw
	}
	return fallback
}

func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}
