// Package config loads and validates tessera.yml, the project file every
// CLI command reads.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tessera3d/tessera/internal/logging"
	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
	"github.com/tessera3d/tessera/pkg/tiletree"
)

// Redis keys and channels are namespaced by briefcase, so the name has to
// stay a plain DNS-style label.
var briefcasePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Config represents the top-level tessera.yml configuration.
type Config struct {
	Version   string      `yaml:"version"`
	Briefcase string      `yaml:"briefcase"`
	Redis     RedisConfig `yaml:"redis"`
	Log       LogConfig   `yaml:"log,omitempty"`
	View      ViewConfig  `yaml:"view,omitempty"`
	Models    []Model     `yaml:"models"`
}

// RedisConfig locates the change feed.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls CLI logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn or error (default: info)
}

// ViewConfig holds the tile tree tuning shared by every model.
type ViewConfig struct {
	Tolerance  float32 `yaml:"tolerance,omitempty"`   // refinement tolerance (default: 0.5)
	MaxDepth   int     `yaml:"max_depth,omitempty"`   // static subdivision cap, 1..12 (default: 6)
	PruneAfter string  `yaml:"prune_after,omitempty"` // idle time before static tiles drop (default: 5m)
}

// Model declares one model the commands build a tile tree for.
type Model struct {
	ID       string     `yaml:"id"`
	Range    [6]float32 `yaml:"range"`              // committed extent: min x,y,z then max x,y,z
	Location [3]float32 `yaml:"location,omitempty"` // world placement (default: origin)
	Priority string     `yaml:"priority,omitempty"` // primary, context, map or terrain
}

// Validate performs strict validation on the configuration and fills in
// defaults for the optional sections.
func (c *Config) Validate() error {
	if c.Version != "1" {
		return fmt.Errorf("unsupported version: %s (expected: 1)", c.Version)
	}

	if len(c.Briefcase) > 63 || !briefcasePattern.MatchString(c.Briefcase) {
		return fmt.Errorf("invalid briefcase name %q (lowercase letters, digits and hyphens, at most 63 characters)", c.Briefcase)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	if err := c.View.validate(); err != nil {
		return err
	}

	if len(c.Models) == 0 {
		return fmt.Errorf("no models defined")
	}
	seen := make(map[string]bool)
	for i := range c.Models {
		if err := c.Models[i].Validate(); err != nil {
			return err
		}
		if seen[c.Models[i].ID] {
			return fmt.Errorf("duplicate model id %q", c.Models[i].ID)
		}
		seen[c.Models[i].ID] = true
	}

	return nil
}

func (v *ViewConfig) validate() error {
	if v.Tolerance == 0 {
		v.Tolerance = 0.5
	}
	if v.Tolerance < 0 {
		return fmt.Errorf("view.tolerance must be positive, got %g", v.Tolerance)
	}

	if v.MaxDepth == 0 {
		v.MaxDepth = 6
	}
	if v.MaxDepth < 1 || v.MaxDepth > 12 {
		return fmt.Errorf("view.max_depth must be between 1 and 12, got %d", v.MaxDepth)
	}

	if v.PruneAfter == "" {
		v.PruneAfter = "5m"
	}
	d, err := time.ParseDuration(v.PruneAfter)
	if err != nil {
		return fmt.Errorf("invalid view.prune_after: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("view.prune_after must be positive, got %s", v.PruneAfter)
	}

	return nil
}

// PruneAfterDuration returns the parsed prune_after interval. Only valid
// after Validate.
func (v ViewConfig) PruneAfterDuration() time.Duration {
	d, err := time.ParseDuration(v.PruneAfter)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// Validate performs validation on a single model entry.
func (m *Model) Validate() error {
	if err := changeset.ModelID(m.ID).Validate(); err != nil {
		return fmt.Errorf("model %q: %w", m.ID, err)
	}
	for axis := 0; axis < 3; axis++ {
		if m.Range[axis] > m.Range[axis+3] {
			return fmt.Errorf("model %q: range min exceeds max on axis %d", m.ID, axis)
		}
	}
	if _, err := tiletree.ParseLoadPriority(m.Priority); err != nil {
		return fmt.Errorf("model %q: %w", m.ID, err)
	}
	return nil
}

// ModelID returns the entry's id as the changeset type.
func (m Model) ModelID() changeset.ModelID {
	return changeset.ModelID(m.ID)
}

// Range3 returns the model's committed extent.
func (m Model) Range3() geometry.Range3 {
	return geometry.NewRange3(
		geometry.V3(m.Range[0], m.Range[1], m.Range[2]),
		geometry.V3(m.Range[3], m.Range[4], m.Range[5]),
	)
}

// TileParams returns the tile tree params for this model. Only valid after
// Validate.
func (m Model) TileParams() tiletree.Params {
	priority, _ := tiletree.ParseLoadPriority(m.Priority)
	return tiletree.Params{
		Model:    m.ModelID(),
		Location: geometry.Transform{Translation: geometry.V3(m.Location[0], m.Location[1], m.Location[2])},
		Priority: priority,
	}
}

// Load reads and validates tessera.yml from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
