// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultAPIURL is the analysis service in local development
	DefaultAPIURL = "http://localhost:8000"
	// DefaultTimeout bounds a single API request
	DefaultTimeout = 60 * time.Second
	// DefaultStepTimeout bounds a single session step
	DefaultStepTimeout = 90 * time.Second
	// DefaultPrefsBackend stores preferences in a local JSON file
	DefaultPrefsBackend = "file"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional in the file; env and CLI flags fill the rest.
type Config struct {
	// Backend
	APIURL        string   `json:"api_url,omitempty" validate:"required,url"`
	Timeout       Duration `json:"timeout,omitempty"`
	StepTimeout   Duration `json:"step_timeout,omitempty"`
	ServiceSecret string   `json:"service_secret,omitempty"` // HS256 secret for bearer tokens
	ClientID      string   `json:"client_id,omitempty"`

	// Preferences
	Locale        string `json:"locale,omitempty" validate:"omitempty,oneof=en pt es"`
	PrefsBackend  string `json:"prefs_backend,omitempty" validate:"omitempty,oneof=file memory postgres redis"`
	PrefsPath     string `json:"prefs_path,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisAddr     string `json:"redis_addr,omitempty" validate:"omitempty,hostname_port"`
	RedisPassword string `json:"redis_password,omitempty"`

	// Delivery
	OutputDir   string `json:"output_dir,omitempty"`
	S3Bucket    string `json:"s3_bucket,omitempty"`
	S3Prefix    string `json:"s3_prefix,omitempty"`
	S3Region    string `json:"s3_region,omitempty"`
	S3Endpoint  string `json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3AccessKey string `json:"s3_access_key,omitempty"`
	S3SecretKey string `json:"s3_secret_key,omitempty"`
	VerifyPDF   bool   `json:"verify_pdf,omitempty"`

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Use headless browser for SPA job pages
	Verbose    bool `json:"verbose,omitempty"`     // Print detailed debug information
}

// Duration is a time.Duration that decodes from strings like "90s"
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(data))
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ValidationError describes a rejected configuration field
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config error: '%s' %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		Timeout:      Duration(DefaultTimeout),
		StepTimeout:  Duration(DefaultStepTimeout),
		PrefsBackend: DefaultPrefsBackend,
		OutputDir:    ".",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv() error {
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.APIURL, "RESUME_MATCHER_API_URL", "NEXT_PUBLIC_API_URL")
	setString(&c.PrefsBackend, "RESUME_MATCHER_PREFS_BACKEND")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.ServiceSecret, "RESUME_MATCHER_SERVICE_SECRET")
	setString(&c.S3Bucket, "S3_BUCKET")
	setString(&c.S3Region, "AWS_REGION")
	setString(&c.S3Endpoint, "S3_ENDPOINT")
	setString(&c.S3AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3SecretKey, "S3_SECRET_KEY")

	if v := strings.TrimSpace(os.Getenv("RESUME_MATCHER_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RESUME_MATCHER_TIMEOUT: %w", err)
		}
		c.Timeout = Duration(d)
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Field: jsonName(fe.StructField()), Message: describeTag(fe), Cause: err}
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Timeout < 0 {
		return &ValidationError{Field: "timeout", Message: "must be non-negative"}
	}
	if c.StepTimeout < 0 {
		return &ValidationError{Field: "step_timeout", Message: "must be non-negative"}
	}

	// Cross-field rules
	switch c.PrefsBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			return &ValidationError{Field: "database_url", Message: "is required for the postgres backend"}
		}
	case "redis":
		if c.RedisAddr == "" {
			return &ValidationError{Field: "redis_addr", Message: "is required for the redis backend"}
		}
	}
	if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		return &ValidationError{Field: "s3_secret_key", Message: "must be set together with 's3_access_key'"}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.APIURL, defaults.APIURL)
	fill(&result.ServiceSecret, defaults.ServiceSecret)
	fill(&result.ClientID, defaults.ClientID)
	fill(&result.Locale, defaults.Locale)
	fill(&result.PrefsBackend, defaults.PrefsBackend)
	fill(&result.PrefsPath, defaults.PrefsPath)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.RedisAddr, defaults.RedisAddr)
	fill(&result.RedisPassword, defaults.RedisPassword)
	fill(&result.OutputDir, defaults.OutputDir)
	fill(&result.S3Bucket, defaults.S3Bucket)
	fill(&result.S3Prefix, defaults.S3Prefix)
	fill(&result.S3Region, defaults.S3Region)
	fill(&result.S3Endpoint, defaults.S3Endpoint)
	fill(&result.S3AccessKey, defaults.S3AccessKey)
	fill(&result.S3SecretKey, defaults.S3SecretKey)

	// Duration fields: use default if zero
	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	if result.StepTimeout == 0 {
		result.StepTimeout = defaults.StepTimeout
	}

	// Bool fields: cannot distinguish unset from false, so we OR them
	// (CLI flags can only turn them on)
	result.VerifyPDF = result.VerifyPDF || defaults.VerifyPDF
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

func jsonName(field string) string {
	switch field {
	case "APIURL":
		return "api_url"
	case "PrefsBackend":
		return "prefs_backend"
	case "RedisAddr":
		return "redis_addr"
	case "S3Endpoint":
		return "s3_endpoint"
	case "Locale":
		return "locale"
	}
	return strings.ToLower(field)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "hostname_port":
		return fmt.Sprintf("must be host:port, got %q", fe.Value())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
