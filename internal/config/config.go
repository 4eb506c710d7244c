package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the workspace config file.
const FileName = "surveyline.yml"

// Config models surveyline.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`
	Autosave struct {
		Enabled  *bool  `yaml:"enabled"`
		Interval string `yaml:"interval"`
	} `yaml:"autosave"`
	Auth struct {
		JWTSecret        string `yaml:"jwt_secret"`
		DevLogin         bool   `yaml:"dev_login"`
		AllowOwnerHeader bool   `yaml:"allow_owner_header"`
	} `yaml:"auth"`
	Plans struct {
		Default string `yaml:"default"`
	} `yaml:"plans"`
	Events struct {
		RedisAddr    string `yaml:"redis_addr"`
		RedisChannel string `yaml:"redis_channel"`
	} `yaml:"events"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
	Logging  struct {
		Mode string `yaml:"mode"`
	} `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

var validPlans = map[string]bool{"free": true, "pro": true, "enterprise": true}

// AutosaveEnabled defaults to true when unset.
func (c *Config) AutosaveEnabled() bool {
	return c.Autosave.Enabled == nil || *c.Autosave.Enabled
}

// AutosaveInterval parses autosave.interval, defaulting to 30s.
func (c *Config) AutosaveInterval() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Autosave.Interval))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "sqlite", "sqlite3":
	case "postgres", "postgresql", "pgx":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("config.storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config.storage.driver %q is not supported", c.Storage.Driver)
	}
	if v := strings.TrimSpace(c.Autosave.Interval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config.autosave.interval: %w", err)
		}
		if d < time.Second {
			return fmt.Errorf("config.autosave.interval must be at least 1s")
		}
	}
	if p := c.Plans.Default; p != "" && !validPlans[p] {
		return fmt.Errorf("config.plans.default must be free, pro or enterprise")
	}
	if b := c.Server.BasePath; b != "" && !strings.HasPrefix(b, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("config.webhooks[%d].timeout_seconds must be positive", i)
		}
		for _, evt := range hook.Events {
			if strings.TrimSpace(evt) == "" {
				return fmt.Errorf("config.webhooks[%d] has empty event type", i)
			}
		}
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("config.tracing.sample_ratio must be within [0,1]")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with sv config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes. Missing keys
// keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /v1

storage:
  driver: sqlite
  dsn: ""

autosave:
  enabled: true
  interval: 30s

auth:
  jwt_secret: ""
  dev_login: false
  allow_owner_header: false

plans:
  default: free

events:
  redis_addr: ""
  redis_channel: surveyline.events

webhooks: []

logging:
  mode: development

tracing:
  enabled: false
  endpoint: ""
  sample_ratio: 0.1
  service_name: surveyline
`
