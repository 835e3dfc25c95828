// Package config provides unified configuration loading for aisim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/aisim/internal/constants"
	"github.com/nvandessel/aisim/internal/engine"
	"github.com/nvandessel/aisim/internal/phases"
)

// AisimConfig contains all aisim configuration settings.
type AisimConfig struct {
	// Seed seeds the simulation's random source.
	Seed int64 `json:"seed" yaml:"seed"`

	// MaxTicks bounds a run in simulated months.
	MaxTicks int `json:"max_ticks" yaml:"max_ticks"`

	// Simulation holds every tunable of the world and its phases.
	Simulation phases.Config `json:"simulation" yaml:"simulation"`

	// Batch contains settings for multi-run batches.
	Batch BatchConfig `json:"batch" yaml:"batch"`

	// Logging contains settings for operational logging and event traces.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Store contains settings for run persistence.
	Store StoreConfig `json:"store" yaml:"store"`
}

// BatchConfig configures batch runs.
type BatchConfig struct {
	// Runs is the default number of runs in a batch.
	Runs int `json:"runs" yaml:"runs"`

	// Workers is the number of engines stepped concurrently.
	Workers int `json:"workers" yaml:"workers"`
}

// LoggingConfig configures aisim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" adds per-phase diagnostics, "trace" adds per-event records.
	Level string `json:"level" yaml:"level"`

	// TraceFile, when set, receives every event as JSONL.
	TraceFile string `json:"trace_file,omitempty" yaml:"trace_file"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	// Path is the SQLite database path. Empty means ~/.aisim/runs.db.
	Path string `json:"path,omitempty" yaml:"path"`

	// ArchiveDir is where exported runs are written. Empty means ~/.aisim/archives.
	ArchiveDir string `json:"archive_dir,omitempty" yaml:"archive_dir"`
}

// Default returns an AisimConfig with sensible defaults.
func Default() *AisimConfig {
	return &AisimConfig{
		Seed:       constants.DefaultSeed,
		MaxTicks:   constants.DefaultMaxTicks,
		Simulation: phases.DefaultConfig(),
		Batch: BatchConfig{
			Runs:    100,
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.aisim/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".aisim", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.aisim/config.yaml -> environment variables
func Load() (*AisimConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadPath loads configuration from path when it is non-empty, otherwise
// from the default locations. Environment overrides always apply.
func LoadPath(path string) (*AisimConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*AisimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)
	config.Store.ArchiveDir = expandEnvVars(config.Store.ArchiveDir)
	config.Logging.TraceFile = expandEnvVars(config.Logging.TraceFile)

	return config, nil
}

// Save writes the configuration as YAML to path.
func (c *AisimConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *AisimConfig) Validate() error {
	if c.MaxTicks < 1 {
		return fmt.Errorf("max_ticks must be at least 1, got %d", c.MaxTicks)
	}
	if c.Batch.Runs < 0 {
		return fmt.Errorf("batch.runs must be non-negative, got %d", c.Batch.Runs)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	return nil
}

// Engine returns the engine configuration described by c.
func (c *AisimConfig) Engine() engine.Config {
	return engine.Config{
		Seed:     c.Seed,
		MaxTicks: c.MaxTicks,
		Tunables: c.Simulation,
	}
}

// Get returns the value at a dot-notation key such as
// "simulation.wake.capability".
func (c *AisimConfig) Get(key string) (any, bool) {
	tree, err := c.tree()
	if err != nil {
		return nil, false
	}
	var node any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[part]; !ok {
			return nil, false
		}
	}
	return node, true
}

// Set parses value as YAML and stores it at a dot-notation key. The key
// must already exist.
func (c *AisimConfig) Set(key, value string) error {
	tree, err := c.tree()
	if err != nil {
		return err
	}

	parts := strings.Split(key, ".")
	m := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			return fmt.Errorf("unknown configuration key: %s", key)
		}
		m = next
	}
	leaf := parts[len(parts)-1]
	if _, ok := m[leaf]; !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if _, isMap := m[leaf].(map[string]any); isMap {
		return fmt.Errorf("%s is a section, not a value", key)
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	m[leaf] = parsed

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	updated := Default()
	if err := yaml.Unmarshal(data, updated); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*c = *updated
	return nil
}

// Flatten returns every leaf setting keyed by dot-notation path, along with
// the keys in sorted order.
func (c *AisimConfig) Flatten() (map[string]any, []string, error) {
	tree, err := c.tree()
	if err != nil {
		return nil, nil, err
	}
	flat := make(map[string]any)
	flatten("", tree, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return flat, keys, nil
}

func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

// tree returns the configuration as nested maps keyed by YAML field name.
func (c *AisimConfig) tree() (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return tree, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *AisimConfig) {
	if v := os.Getenv("AISIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Seed = n
		}
	}

	if v := os.Getenv("AISIM_MAX_TICKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxTicks = n
		}
	}

	if v := os.Getenv("AISIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("AISIM_DB_PATH"); v != "" {
		config.Store.Path = v
	}

	if v := os.Getenv("AISIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Batch.Workers = n
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
