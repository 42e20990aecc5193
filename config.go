package goSession

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/roles"
	"github.com/MrEthical07/goSession/tokenstore"
	"gopkg.in/yaml.v3"
)

// Config configures a [SessionStore]. Durations in YAML are Go duration strings
// ("8h", "30s").
type Config struct {
	Session SessionConfig `yaml:"session"`
	Profile ProfileConfig `yaml:"profile"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls token storage and lifecycle timings.
type SessionConfig struct {
	// Lifetime is added to the sign-in time to produce the session expiry.
	Lifetime time.Duration `yaml:"lifetime"`
	// InitTimeout bounds the provider read in Initialize.
	InitTimeout time.Duration `yaml:"init_timeout"`
	// ValidityInterval is the period of the recurring validity check.
	ValidityInterval time.Duration `yaml:"validity_interval"`
	// TeardownTimeout bounds remote cleanup during sign-out and invalidation.
	TeardownTimeout time.Duration `yaml:"teardown_timeout"`
	// TokenKey is the durable key of the application token.
	TokenKey string `yaml:"token_key"`
	// ProviderTokenPrefix names the keys purged as identity provider tokens.
	ProviderTokenPrefix string `yaml:"provider_token_prefix"`
}

/*
====================================
PROFILE CONFIG
====================================
*/

// ProfileConfig controls profile provisioning and fallback.
type ProfileConfig struct {
	// FallbackRole is given to placeholder profiles.
	FallbackRole roles.Role `yaml:"fallback_role"`
	// DefaultRole is given to profiles provisioned on first sign-in.
	DefaultRole roles.Role `yaml:"default_role"`
}

// BridgeConfig controls identity provider event delivery.
type BridgeConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Lifetime:            8 * time.Hour,
			InitTimeout:         5 * time.Second,
			ValidityInterval:    5 * time.Minute,
			TeardownTimeout:     5 * time.Second,
			TokenKey:            tokenstore.DefaultTokenKey,
			ProviderTokenPrefix: "kratos.",
		},
		Profile: ProfileConfig{
			FallbackRole: roles.User,
			DefaultRole:  roles.User,
		},
		Bridge: BridgeConfig{
			BufferSize: 16,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result. Keys
// absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig over an in-memory document.
func ParseConfig(data []byte) (Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	if c.Session.Lifetime <= 0 {
		return errors.New("Session Lifetime must be > 0")
	}
	if c.Session.InitTimeout <= 0 {
		return errors.New("Session InitTimeout must be > 0")
	}
	if c.Session.InitTimeout > time.Minute {
		return errors.New("Session InitTimeout must be <= 1m")
	}
	if c.Session.ValidityInterval < time.Second {
		return errors.New("Session ValidityInterval must be >= 1s")
	}
	if c.Session.TeardownTimeout <= 0 {
		return errors.New("Session TeardownTimeout must be > 0")
	}
	if strings.TrimSpace(c.Session.TokenKey) == "" {
		return errors.New("Session TokenKey must not be empty")
	}
	if c.Session.ProviderTokenPrefix != "" && strings.HasPrefix(c.Session.TokenKey, c.Session.ProviderTokenPrefix) {
		return errors.New("Session TokenKey must not use the ProviderTokenPrefix namespace")
	}

	// Profile
	if !c.Profile.FallbackRole.Valid() {
		return fmt.Errorf("Profile FallbackRole %q is not a known role", c.Profile.FallbackRole)
	}
	if !c.Profile.DefaultRole.Valid() {
		return fmt.Errorf("Profile DefaultRole %q is not a known role", c.Profile.DefaultRole)
	}

	// Bridge
	if c.Bridge.BufferSize <= 0 {
		return errors.New("Bridge BufferSize must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
