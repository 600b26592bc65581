package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models taskcycle.yml.
type Config struct {
	Project struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	} `yaml:"project"`
	Recurrence struct {
		InitialBatch int `yaml:"initial_batch"`
		LowWater     int `yaml:"low_water"`
		TopupBatch   int `yaml:"topup_batch"`
	} `yaml:"recurrence"`
	Plans    map[string]Plan `yaml:"plans"`
	Webhooks []Webhook       `yaml:"webhooks"`
}

type Plan struct {
	Description        string `yaml:"description"`
	AdvancedRecurrence bool   `yaml:"advanced_recurrence"`
	// MaxActiveSeries caps active series per project; 0 means unlimited.
	MaxActiveSeries int `yaml:"max_active_series"`
}

type Webhook struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with tc project config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("config.project.id is required")
	}
	if c.Project.Kind != "task-project" {
		return fmt.Errorf("config.project.kind must be 'task-project'")
	}
	if c.Recurrence.InitialBatch < 1 {
		return fmt.Errorf("config.recurrence.initial_batch must be at least 1")
	}
	if c.Recurrence.LowWater < 0 {
		return fmt.Errorf("config.recurrence.low_water must not be negative")
	}
	if c.Recurrence.TopupBatch < 1 {
		return fmt.Errorf("config.recurrence.topup_batch must be at least 1")
	}
	if len(c.Plans) > 0 {
		if _, ok := c.Plans["free"]; !ok {
			return fmt.Errorf("config.plans must include free")
		}
	}
	for name, p := range c.Plans {
		if p.MaxActiveSeries < 0 {
			return fmt.Errorf("config.plans.%s.max_active_series must not be negative", name)
		}
	}
	for i, wh := range c.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
		for _, ev := range wh.Events {
			if ev == "" {
				return fmt.Errorf("webhook %d has empty event filter", i)
			}
		}
	}
	return nil
}

// PlanAllows reports whether the named plan may use advanced recurrence
// patterns. Unknown plan names fall back to the free plan's rights.
func (c *Config) PlanAllows(plan string) bool {
	if p, ok := c.Plans[plan]; ok {
		return p.AdvancedRecurrence
	}
	if p, ok := c.Plans["free"]; ok {
		return p.AdvancedRecurrence
	}
	return false
}

// MaxActiveSeriesFor returns the active-series cap for the named plan,
// 0 for unlimited. Unknown plan names fall back to the free plan.
func (c *Config) MaxActiveSeriesFor(plan string) int {
	if p, ok := c.Plans[plan]; ok {
		return p.MaxActiveSeries
	}
	if p, ok := c.Plans["free"]; ok {
		return p.MaxActiveSeries
	}
	return 0
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "taskcycle.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(projectID string) string {
	return fmt.Sprintf(defaultTemplate, projectID)
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

// Default returns the default Config struct for a project.
func Default(projectID string) *Config {
	var cfg Config
	cfg.Project.ID = projectID
	cfg.Project.Kind = "task-project"
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, projectID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `project:
  id: %s
  kind: task-project

recurrence:
  initial_batch: 3
  low_water: 2
  topup_batch: 3

plans:
  free:
    description: "Simple daily repetition only"
    advanced_recurrence: false
    max_active_series: 3
  premium:
    description: "All recurrence kinds, any interval"
    advanced_recurrence: true
    max_active_series: 0
`
