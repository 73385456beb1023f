// Package config handles lyricsroman configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	MusicURL     string             `yaml:"music_url"`
	Browser      BrowserConfig      `yaml:"browser"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Agent        AgentConfig        `yaml:"agent"`
	Server       ServerConfig       `yaml:"server"`
	Sinks        []SinkConfig       `yaml:"sinks"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	Mode             string   `yaml:"mode"` // headless | headful
	Stealth          *bool    `yaml:"stealth"`
	ResourceBlocking []string `yaml:"resource_blocking"`
	XvfbDisplay      string   `yaml:"xvfb_display"`
}

// OrchestratorConfig controls the automation tab.
type OrchestratorConfig struct {
	// Remote is the base URL of an orchestrator served elsewhere
	// (lyricsroman -serve). Empty = in-process.
	Remote          string        `yaml:"remote"`
	Token           string        `yaml:"token"`
	TranslateURL    string        `yaml:"translate_url"`
	LoadTimeout     time.Duration `yaml:"load_timeout"`
	InputTimeout    time.Duration `yaml:"input_timeout"`
	ResultTimeout   time.Duration `yaml:"result_timeout"`
	InputSelectors  []string      `yaml:"input_selectors"`
	ResultSelectors []string      `yaml:"result_selectors"`
}

// AgentConfig controls the page agent.
type AgentConfig struct {
	// AlwaysShowToggle shows the toggle even for Latin-only lyrics.
	AlwaysShowToggle *bool `yaml:"always_show_toggle"`
	// DeferredTabSwitch schedules the tab switch for the next Lyrics
	// entry when a song starts on another tab.
	DeferredTabSwitch *bool         `yaml:"deferred_tab_switch"`
	ToggleLabel       string        `yaml:"toggle_label"`
	RomanizeTimeout   time.Duration `yaml:"romanize_timeout"`
	MaxInjectRetries  int           `yaml:"max_inject_retries"`
}

// ServerConfig controls the HTTP message channel (-serve).
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// TokenHash is a bcrypt hash; empty disables bearer auth.
	TokenHash string `yaml:"token_hash"`
	// RateLimit is romanization requests per client per minute.
	// Negative disables it.
	RateLimit int `yaml:"rate_limit"`
}

// MetricsConfig enables the SQLite metrics store for romanization timings.
type MetricsConfig struct {
	Path string `yaml:"path"` // empty disables metrics
}

// SinkConfig defines an outcome backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | sqlite
	URL  string `yaml:"url"`  // webhook
	Path string `yaml:"path"` // sqlite
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without a file.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.MusicURL == "" {
		c.MusicURL = "https://music.youtube.com/"
	}
	if c.Browser.Mode == "" {
		c.Browser.Mode = "headless"
	}
	if c.Browser.Stealth == nil {
		c.Browser.Stealth = ptr(true)
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Orchestrator.LoadTimeout <= 0 {
		c.Orchestrator.LoadTimeout = 10 * time.Second
	}
	if c.Agent.AlwaysShowToggle == nil {
		c.Agent.AlwaysShowToggle = ptr(true)
	}
	if c.Agent.DeferredTabSwitch == nil {
		c.Agent.DeferredTabSwitch = ptr(true)
	}
	if c.Agent.ToggleLabel == "" {
		c.Agent.ToggleLabel = "Pronunciation"
	}
	if c.Agent.RomanizeTimeout <= 0 {
		c.Agent.RomanizeTimeout = 30 * time.Second
	}
	if c.Agent.MaxInjectRetries <= 0 {
		c.Agent.MaxInjectRetries = 30
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8417"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
}

func (c *Config) validate() error {
	if c.Browser.Mode != "headless" && c.Browser.Mode != "headful" {
		return fmt.Errorf("config: browser.mode %q: want headless or headful", c.Browser.Mode)
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sinks[%d]: webhook needs url", i)
			}
		case "sqlite":
			if s.Path == "" {
				return fmt.Errorf("config: sinks[%d]: sqlite needs path", i)
			}
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
