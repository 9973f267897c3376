// Package config loads marketplace configuration from config.yaml and
// CLAWDNET_-prefixed environment variables.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Storage     StorageConfig     `koanf:"storage"`
	Facilitator FacilitatorConfig `koanf:"facilitator"`
	Invoke      InvokeConfig      `koanf:"invoke"`
	Events      EventsConfig      `koanf:"events"`
	Webhooks    WebhookConfig     `koanf:"webhooks"`
	Registry    RegistryConfig    `koanf:"registry"`
	Auth        AuthConfig        `koanf:"auth"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type FacilitatorConfig struct {
	URL            string `koanf:"url"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

type InvokeConfig struct {
	// Network is the CAIP-2 settlement network used in payment challenges.
	Network string `koanf:"network"`

	// ForwardTimeoutSeconds bounds one forwarded call.
	ForwardTimeoutSeconds int `koanf:"forward_timeout_seconds"`

	// ForwardFallback degrades forward failures to mock output. Demo only.
	ForwardFallback bool `koanf:"forward_fallback"`
}

type EventsConfig struct {
	Type string     `koanf:"type"` // direct, nats
	NATS NATSConfig `koanf:"nats"`
}

type NATSConfig struct {
	URL string `koanf:"url"`
}

type WebhookConfig struct {
	TimeoutSeconds int `koanf:"timeout_seconds"`
	Retries        int `koanf:"retries"`
}

type RegistryConfig struct {
	// Address is the ERC-8004 registry identifier published in the
	// well-known discovery document.
	Address string `koanf:"address"`
}

type AuthConfig struct {
	// APIKeyHashes are SHA-256 hashes of the keys allowed to mutate agent
	// registrations. Empty disables registration auth.
	APIKeyHashes []string `koanf:"api_key_hashes"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml (optional) and applies CLAWDNET_ environment
// overrides, then fills defaults.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables override file config
	if err := k.Load(env.Provider("CLAWDNET_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CLAWDNET_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]any{
		"server.port":                    8080,
		"storage.type":                   "sqlite",
		"storage.sqlite.path":            "./data/clawdnet.db",
		"facilitator.timeout_seconds":    10,
		"invoke.network":                 "eip155:84532",
		"invoke.forward_timeout_seconds": 30,
		"events.type":                    "direct",
		"webhooks.timeout_seconds":       5,
		"webhooks.retries":               1,
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in secret-bearing fields
	cfg.Facilitator.URL = substituteEnvVars(cfg.Facilitator.URL)
	cfg.Events.NATS.URL = substituteEnvVars(cfg.Events.NATS.URL)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
