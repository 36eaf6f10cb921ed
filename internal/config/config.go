// Package config loads process configuration from environment
// variables. The telephony endpoint and credentials are required and
// validated up front: a missing value aborts before any dial attempt.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Required environment variables. Names match the deployment
// convention of the telephony provider.
const (
	EnvURL       = "LIVEKIT_URL"
	EnvAPIKey    = "LIVEKIT_API_KEY"
	EnvAPISecret = "LIVEKIT_API_SECRET"
	EnvTrunkID   = "SIP_OUTBOUND_TRUNK_ID"
)

// LiveKit holds the telephony endpoint and credentials. These select
// which TelephonyBridge instance to construct; the engine core never
// reads the environment itself.
type LiveKit struct {
	URL       string
	APIKey    string
	APISecret string
	TrunkID   string
}

// Config is the full process configuration.
type Config struct {
	LiveKit LiveKit

	// RedisAddr, when set, enables the Redis record store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTPPort is the control API listen port.
	HTTPPort int

	LogLevel string
}

// MissingError lists every absent required variable, so the operator
// fixes the environment in one pass instead of one variable at a time.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing environment variables: %s", strings.Join(e.Keys, ", "))
}

// Load reads configuration from the environment. Callers that dial or
// dispatch must also call Validate; commands that only read records
// (e.g. the standalone record API) do not need the telephony settings.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{
		LiveKit: LiveKit{
			URL:       k.String(strings.ToLower(EnvURL)),
			APIKey:    k.String(strings.ToLower(EnvAPIKey)),
			APISecret: k.String(strings.ToLower(EnvAPISecret)),
			TrunkID:   k.String(strings.ToLower(EnvTrunkID)),
		},
		RedisAddr:     k.String("redis_addr"),
		RedisPassword: k.String("redis_password"),
		RedisDB:       k.Int("redis_db"),
		HTTPPort:      k.Int("http_port"),
		LogLevel:      k.String("log_level"),
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	return cfg, nil
}

// Validate checks the required telephony settings.
func (c *Config) Validate() error {
	var missing []string
	if c.LiveKit.URL == "" {
		missing = append(missing, EnvURL)
	}
	if c.LiveKit.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if c.LiveKit.APISecret == "" {
		missing = append(missing, EnvAPISecret)
	}
	if c.LiveKit.TrunkID == "" {
		missing = append(missing, EnvTrunkID)
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}
