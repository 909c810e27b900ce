// Package config loads server settings from the environment.
//
// An optional .env file in the working directory is read first (it never
// overrides variables that are already set), then viper resolves each key
// from the environment with the defaults below.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sakif/art-market/internal/media"
	"github.com/sakif/art-market/internal/storage"
)

type Config struct {
	Port    int
	BaseURL string
	DBPath  string

	Storage storage.Config

	MaxUploadBytes    int64
	MaxImageBytes     int64
	MaxImageDimension int
	ProcessingTimeout time.Duration

	// JWTSecret switches the auth gate to signed tokens when non-empty.
	JWTSecret string

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "data/market.db")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("STORAGE_PROVIDER", storage.ProviderLocal)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("MAX_UPLOAD_BYTES", 16<<20)
	v.SetDefault("MAX_IMAGE_BYTES", media.DefaultMaxBytes)
	v.SetDefault("MAX_IMAGE_DIMENSION", media.DefaultMaxDimension)
	v.SetDefault("PROCESSING_TIMEOUT", media.DefaultTimeout)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:   v.GetInt("PORT"),
		DBPath: v.GetString("DB_PATH"),
		Storage: storage.Config{
			Provider: strings.ToLower(v.GetString("STORAGE_PROVIDER")),
			LocalDir: v.GetString("UPLOAD_DIR"),
			S3: storage.S3Config{
				Bucket:    v.GetString("S3_BUCKET"),
				Region:    v.GetString("S3_REGION"),
				Endpoint:  v.GetString("S3_ENDPOINT"),
				AccessKey: v.GetString("S3_ACCESS_KEY"),
				SecretKey: v.GetString("S3_SECRET_KEY"),
				Prefix:    v.GetString("S3_PREFIX"),
			},
		},
		MaxUploadBytes:    v.GetInt64("MAX_UPLOAD_BYTES"),
		MaxImageBytes:     v.GetInt64("MAX_IMAGE_BYTES"),
		MaxImageDimension: v.GetInt("MAX_IMAGE_DIMENSION"),
		ProcessingTimeout: v.GetDuration("PROCESSING_TIMEOUT"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		BaseURL:           v.GetString("BASE_URL"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:         strings.ToLower(v.GetString("LOG_FORMAT")),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	case c.DBPath == "":
		return errors.New("config: DB_PATH is required")
	case c.MaxUploadBytes <= 0:
		return errors.New("config: MAX_UPLOAD_BYTES must be positive")
	case c.MaxImageBytes <= 0:
		return errors.New("config: MAX_IMAGE_BYTES must be positive")
	case c.MaxImageBytes > c.MaxUploadBytes:
		// The body cap must leave room for the image plus multipart framing.
		return fmt.Errorf("config: MAX_IMAGE_BYTES (%d) exceeds MAX_UPLOAD_BYTES (%d)", c.MaxImageBytes, c.MaxUploadBytes)
	case c.MaxImageDimension <= 0:
		return errors.New("config: MAX_IMAGE_DIMENSION must be positive")
	case c.ProcessingTimeout <= 0:
		return errors.New("config: PROCESSING_TIMEOUT must be positive")
	}

	switch c.Storage.Provider {
	case storage.ProviderLocal:
		if c.Storage.LocalDir == "" {
			return errors.New("config: UPLOAD_DIR is required for local storage")
		}
	case storage.ProviderS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("config: S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_PROVIDER %q", c.Storage.Provider)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Limits returns the validator limits derived from the config.
func (c *Config) Limits() media.Limits {
	return media.Limits{
		MaxBytes:     c.MaxImageBytes,
		MaxDimension: c.MaxImageDimension,
	}
}

// NewLogger builds the process logger: JSON when LOG_FORMAT=json, text otherwise.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown LOG_LEVEL %q", s)
	}
}
