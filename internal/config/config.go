package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mmenanno/media-janitor/internal/constants"
)

// Environment variables that override values from the config file
const (
	EnvAPIURL   = "JANITOR_API_URL"
	EnvAPIToken = "JANITOR_API_TOKEN"
)

// Config represents the application configuration
type Config struct {
	DatabasePath      string        `yaml:"database_path" validate:"required"`
	ListenPort        int           `yaml:"listen_port" validate:"min=1,max=65535"`
	APITimeout        time.Duration `yaml:"api_timeout"`
	ActionTimeout     time.Duration `yaml:"action_timeout"`
	CORSAllowedOrigin string        `yaml:"cors_allowed_origin"`
	StatusCacheTTL    time.Duration `yaml:"status_cache_ttl"`
	PageSize          int           `yaml:"page_size" validate:"min=1,max=500"`

	// Outbound rate limiting towards the Media Janitor server
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `yaml:"burst_size" validate:"min=1"`

	// Database connection pool settings
	DBMaxOpenConns    int           `yaml:"db_max_open_conns" validate:"min=1"`
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns" validate:"min=0"`
	DBConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime"`

	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig points at the Media Janitor server API
type ServerConfig struct {
	URL   string `yaml:"url" validate:"required,url"`
	Token string `yaml:"token"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"oneof=auto json console"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		DatabasePath:      "/appdata/data/janitor.db",
		ListenPort:        8788,
		APITimeout:        constants.DefaultAPITimeout,
		ActionTimeout:     constants.DefaultActionTimeout,
		CORSAllowedOrigin: "http://localhost:3000",
		StatusCacheTTL:    constants.DefaultStatusCacheTTL,
		PageSize:          constants.DefaultIssuesPerPage,
		RequestsPerSecond: constants.DefaultRequestsPerSecond,
		BurstSize:         constants.DefaultBurstSize,
		DBMaxOpenConns:    4,
		DBMaxIdleConns:    2,
		DBConnMaxLifetime: 5 * time.Minute,
		Server: ServerConfig{
			URL: "http://localhost:8000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.Server.URL = strings.TrimSuffix(cfg.Server.URL, "/")

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.Server.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIToken)); v != "" {
		c.Server.Token = v
	}
}

// Save saves the configuration to a YAML file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold the API token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report yaml names so errors match what users write in config.yaml
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describeFieldError(verrs[0])
		}
		return err
	}

	if c.APITimeout < time.Second {
		return fmt.Errorf("api_timeout must be at least 1 second")
	}

	if c.ActionTimeout < time.Second {
		return fmt.Errorf("action_timeout must be at least 1 second")
	}

	if c.StatusCacheTTL < 0 {
		return fmt.Errorf("status_cache_ttl cannot be negative")
	}

	if !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		return fmt.Errorf("server.url must start with http:// or https://")
	}

	if c.CORSAllowedOrigin != "" && c.CORSAllowedOrigin != "*" {
		if !strings.HasPrefix(c.CORSAllowedOrigin, "http://") && !strings.HasPrefix(c.CORSAllowedOrigin, "https://") {
			return fmt.Errorf("cors_allowed_origin must start with http:// or https:// (or be * for all origins)")
		}
	}

	return nil
}

// describeFieldError turns a validator error into a config.yaml oriented message
func describeFieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "url":
		return fmt.Errorf("%s must be a valid URL (got: %v)", field, fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s] (got: %v)", field, fe.Param(), fe.Value())
	case "min":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Errorf("%s failed %q validation", field, fe.Tag())
	}
}
