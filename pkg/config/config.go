// Package config loads the proxy's startup configuration: listen address,
// credential verification parameters, the initial provider registry, and the
// policy table. Configuration is read once at startup; the only steady-state
// mutation afterwards is administrative provider registration.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/mcpcp/mcpcp/pkg/policy"
	"github.com/mcpcp/mcpcp/pkg/upstream"
)

type Config struct {
	Listen    string                   `mapstructure:"listen"`
	Auth      AuthConfig               `mapstructure:"auth"`
	Providers []ProviderConfig         `mapstructure:"providers"`
	Policies  map[string][]GrantConfig `mapstructure:"policies"`
}

type AuthConfig struct {
	PublicKeyFile string `mapstructure:"public_key_file"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
}

type ProviderConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// GrantConfig is one ordered policy entry. Tools is either tool names or the
// single "*" sentinel; a bare scalar "*" in YAML decodes to a one-element
// list.
type GrantConfig struct {
	Provider string   `mapstructure:"provider"`
	Tools    []string `mapstructure:"tools"`
}

// Load reads the configuration file and applies MCPCP_* environment
// overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("listen", ":9003")
	v.SetDefault("auth.issuer", "https://mcpcp")
	v.SetDefault("auth.audience", "mcpcp-server")
	v.SetEnvPrefix("MCPCP")
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Auth.PublicKeyFile == "" {
		return fmt.Errorf("auth.public_key_file is required")
	}
	for i, p := range c.Providers {
		if p.Name == "" || p.URL == "" {
			return fmt.Errorf("providers[%d]: name and url are required", i)
		}
	}
	return nil
}

// PublicKeyPEM reads the configured verification key.
func (c *Config) PublicKeyPEM() ([]byte, error) {
	pem, err := os.ReadFile(c.Auth.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	return pem, nil
}

// Registry builds the upstream registry from the configured providers.
// Provider name constraints (separator invariant) are enforced here, at load
// time.
func (c *Config) Registry() (*upstream.Registry, error) {
	registry := upstream.NewRegistry()
	for _, p := range c.Providers {
		if err := registry.Register(p.Name, p.URL); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// PolicyTable builds the validated policy table from the configured
// policies.
func (c *Config) PolicyTable() (*policy.Table, error) {
	grants := make(map[string][]policy.Grant, len(c.Policies))
	for caller, list := range c.Policies {
		for _, g := range list {
			spec, err := policy.NewToolSpec(g.Tools)
			if err != nil {
				return nil, fmt.Errorf("policy for caller %q, provider %q: %w", caller, g.Provider, err)
			}
			grants[caller] = append(grants[caller], policy.Grant{Provider: g.Provider, Tools: spec})
		}
	}
	return policy.NewTable(grants)
}
