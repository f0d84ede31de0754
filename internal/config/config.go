package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Environments accepted by Validate.
const (
	EnvProduction = "production"
	EnvSandbox    = "sandbox"
)

// Output modes accepted by Validate.
const (
	ModeCombined   = "combined"
	ModeIndividual = "individual"
)

// MaxParallelCeiling is the hard cap on concurrent downloads,
// regardless of what the environment asks for.
const MaxParallelCeiling = 5

const envPrefix = "DOCUSIGN"

// Config is the immutable parameter set for one export session.
type Config struct {
	Token       string `mapstructure:"token"`
	AccountID   string `mapstructure:"account_id"`
	UserID      string `mapstructure:"user_id"`
	Cookie      string `mapstructure:"cookie"`
	Environment string `mapstructure:"environment"`

	OutputDir  string `mapstructure:"output_dir"`
	OutputMode string `mapstructure:"output_mode"`

	MaxParallel       int           `mapstructure:"max_parallel"`
	MaxRetries        int           `mapstructure:"max_retries"`
	BaseRetryDelay    time.Duration `mapstructure:"base_retry_delay"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
}

// ConfigurationError reports the first invalid or missing field found
// during construction. It is never retried and fatal to the session.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error returns the error message
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Field, e.Reason)
}

// Options carries caller-supplied overrides (CLI flags). Zero values
// fall back to environment variables and defaults.
type Options struct {
	OutputDir   string
	OutputMode  string
	MaxParallel int
}

// Load constructs a validated Config from DOCUSIGN_* environment
// variables merged with overrides. Construction is pure: no network
// or filesystem access.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)

	for _, key := range []string{
		"token", "account_id", "user_id", "cookie", "environment",
		"output_dir", "output_mode",
		"max_parallel", "max_retries", "base_retry_delay", "requests_per_second",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("environment", EnvProduction)
	v.SetDefault("output_dir", "./exports")
	v.SetDefault("output_mode", ModeCombined)
	v.SetDefault("max_parallel", 3)
	v.SetDefault("max_retries", 3)
	v.SetDefault("base_retry_delay", "1s")
	v.SetDefault("requests_per_second", 2)

	if opts.OutputDir != "" {
		v.Set("output_dir", opts.OutputDir)
	}
	if opts.OutputMode != "" {
		v.Set("output_mode", opts.OutputMode)
	}
	if opts.MaxParallel != 0 {
		v.Set("max_parallel", opts.MaxParallel)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Bounded parallelism, never above the hard ceiling.
	if cfg.MaxParallel > MaxParallelCeiling {
		cfg.MaxParallel = MaxParallelCeiling
	}

	return &cfg, nil
}

// validate checks fields in a fixed order; the first failure wins.
func (c *Config) validate() error {
	if c.Token == "" {
		return &ConfigurationError{Field: "token", Reason: "is required"}
	}
	if c.AccountID == "" {
		return &ConfigurationError{Field: "account_id", Reason: "is required"}
	}
	if c.Cookie == "" {
		return &ConfigurationError{Field: "cookie", Reason: "is required"}
	}
	switch c.Environment {
	case EnvProduction, EnvSandbox:
	default:
		return &ConfigurationError{Field: "environment", Reason: fmt.Sprintf("must be %q or %q", EnvProduction, EnvSandbox)}
	}
	switch c.OutputMode {
	case ModeCombined, ModeIndividual:
	default:
		return &ConfigurationError{Field: "output_mode", Reason: fmt.Sprintf("must be %q or %q", ModeCombined, ModeIndividual)}
	}
	if c.MaxParallel <= 0 {
		return &ConfigurationError{Field: "max_parallel", Reason: "must be positive"}
	}
	if c.MaxRetries <= 0 {
		return &ConfigurationError{Field: "max_retries", Reason: "must be positive"}
	}
	if c.BaseRetryDelay <= 0 {
		return &ConfigurationError{Field: "base_retry_delay", Reason: "must be positive"}
	}
	if c.RequestsPerSecond <= 0 {
		return &ConfigurationError{Field: "requests_per_second", Reason: "must be positive"}
	}
	return nil
}

// BaseURL returns the REST API root for the configured environment.
func (c *Config) BaseURL() string {
	if c.Environment == EnvSandbox {
		return "https://demo.docusign.net/restapi"
	}
	return "https://www.docusign.net/restapi"
}
