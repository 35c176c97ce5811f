package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config is the central typed configuration struct.
//
// Values come from the process environment (optionally seeded from .env).
// Keys keep Laravel's naming; the first underscore separates the section:
// APP_PORT → app.port, UPLOAD_MAX_KB → upload.max_kb.
type Config struct {
	App      AppConfig      `koanf:"app" validate:"required"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Upload   UploadConfig   `koanf:"upload" validate:"required"`
	Metadata MetadataConfig `koanf:"metadata" validate:"required"`
	AWS      AWSConfig      `koanf:"aws"`
	Log      LogConfig      `koanf:"log" validate:"required"`
}

type AppConfig struct {
	Name  string `koanf:"name" validate:"required"`
	Env   string `koanf:"env" validate:"required,oneof=local production testing"`
	Debug bool   `koanf:"debug"`
	URL   string `koanf:"url" validate:"required"`
	Port  string `koanf:"port" validate:"required,numeric"`
}

// ServerConfig holds net/http server timeouts.
type ServerConfig struct {
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// UploadConfig drives the upload endpoint.
type UploadConfig struct {
	// MaxMemoryMB is how much of a multipart body stays in memory.
	MaxMemoryMB int64 `koanf:"max_memory_mb" validate:"gt=0"`
	// MaxBodyMB caps the whole request body.
	MaxBodyMB int64 `koanf:"max_body_mb" validate:"gt=0"`
	// MaxKB adds max:<n> to the file field when non-zero.
	MaxKB int64 `koanf:"max_kb" validate:"gte=0"`
	// Mimes adds mimes:<list> to the file field when set ("pdf,png").
	Mimes string `koanf:"mimes"`
	// Disk is the directory accepted files are written to.
	Disk string `koanf:"disk" validate:"required"`
	// Token, when set, guards the upload routes with a bearer token.
	Token string `koanf:"token"`
}

// MetadataConfig selects where file records are kept.
type MetadataConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=memory dynamodb"`
	Table  string `koanf:"table" validate:"required_if=Driver dynamodb"`
}

type AWSConfig struct {
	Region string `koanf:"region"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"required,oneof=trace debug info warn error"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:  "GoUploads",
			Env:   "local",
			Debug: true,
			URL:   "http://localhost",
			Port:  "8000",
		},
		Server: ServerConfig{
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Upload: UploadConfig{
			MaxMemoryMB: 32,
			MaxBodyMB:   64,
			Disk:        "./storage/app/files",
		},
		Metadata: MetadataConfig{Driver: "memory"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads .env (if present) and populates a Config from environment
// variables. Call once at bootstrap; a non-nil error means the process
// should not start.
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// envKey maps SECTION_REST to section.rest.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(s), "_", ".", 1)
}

// IsLocal reports APP_ENV=local.
func (c *Config) IsLocal() bool { return c.App.Env == "local" }

// MaxMemory returns Upload.MaxMemoryMB in bytes.
func (u UploadConfig) MaxMemory() int64 { return u.MaxMemoryMB << 20 }

// MaxBody returns Upload.MaxBodyMB in bytes.
func (u UploadConfig) MaxBody() int64 { return u.MaxBodyMB << 20 }
