// Package config loads and validates the Quarry server configuration.
package config

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

// Config represents the complete Quarry configuration
type Config struct {
	// Trees maps tree names to their index locations
	Trees map[string]TreeConfig `json:"trees" mapstructure:"trees"`

	// DefaultTree names the tree used for the help page. If empty,
	// mozilla-central is preferred when present, otherwise the
	// lexicographically first tree.
	DefaultTree string `json:"defaultTree" mapstructure:"defaultTree"`

	// StaticRoot is served for paths no dynamic handler claims
	StaticRoot string `json:"staticRoot" mapstructure:"staticRoot"`

	// StatusFile receives an appended marker once startup completes
	StatusFile string `json:"statusFile" mapstructure:"statusFile"`

	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// TreeConfig describes one indexed tree
type TreeConfig struct {
	// IndexPath is the directory holding the precomputed index files:
	// crossref, identifiers, codesearch.db, repo-files, objdir-files,
	// help.html, templates/, file/, dir/
	IndexPath string `json:"indexPath" mapstructure:"indexPath"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`

	// RequestTimeoutMs is the hard per-request wall-clock deadline
	RequestTimeoutMs int `json:"requestTimeoutMs" mapstructure:"requestTimeoutMs"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Trees: map[string]TreeConfig{},
		Server: ServerConfig{
			Host:             "",
			Port:             8000,
			RequestTimeoutMs: 15000,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads the configuration file at path and merges it over the defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	cfg := DefaultConfig()
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.requestTimeoutMs", cfg.Server.RequestTimeoutMs)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.level", cfg.Logging.Level)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for structural problems
func (c *Config) Validate() error {
	if len(c.Trees) == 0 {
		return fmt.Errorf("config declares no trees")
	}
	for name, tree := range c.Trees {
		if tree.IndexPath == "" {
			return fmt.Errorf("tree %q has no indexPath", name)
		}
	}
	if c.DefaultTree != "" {
		if _, ok := c.Trees[c.DefaultTree]; !ok {
			return fmt.Errorf("defaultTree %q is not a configured tree", c.DefaultTree)
		}
	}
	if c.Server.RequestTimeoutMs <= 0 {
		return fmt.Errorf("server.requestTimeoutMs must be positive")
	}
	return nil
}

// IndexPath returns the index directory for a tree, or ok=false if the tree
// is not configured.
func (c *Config) IndexPath(tree string) (string, bool) {
	t, ok := c.Trees[tree]
	if !ok {
		return "", false
	}
	return t.IndexPath, true
}

// MainTree returns the tree whose index backs the help page
func (c *Config) MainTree() string {
	if c.DefaultTree != "" {
		return c.DefaultTree
	}
	if _, ok := c.Trees["mozilla-central"]; ok {
		return "mozilla-central"
	}
	names := make([]string, 0, len(c.Trees))
	for name := range c.Trees {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// TreeNames returns the configured tree names in sorted order
func (c *Config) TreeNames() []string {
	names := make([]string, 0, len(c.Trees))
	for name := range c.Trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
