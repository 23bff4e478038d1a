// Package config handles configuration loading and management for tandem.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/tandem/internal/state"
)

const (
	appName           = "tandem"
	projectConfigName = ".tandem.yaml"
	envPrefix         = "TANDEM"
)

// Config holds all configuration for tandem.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Workflow     WorkflowConfig     `mapstructure:"workflow"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Progress     ProgressConfig     `mapstructure:"progress"`
	State        StateConfig        `mapstructure:"state"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// OrchestratorConfig holds routing settings.
type OrchestratorConfig struct {
	// HistorySize is how many finished tasks are kept in memory.
	HistorySize int `mapstructure:"history_size"`
	// MaxDuration is advisory and only reported alongside progress.
	MaxDuration time.Duration `mapstructure:"max_duration"`
	// ParallelLimit caps concurrent subtasks. Zero means unlimited.
	ParallelLimit int `mapstructure:"parallel_limit"`
	// WorkersFile is an optional YAML file with worker profiles.
	WorkersFile string `mapstructure:"workers_file"`
}

// WorkflowConfig holds workflow engine and tool settings.
type WorkflowConfig struct {
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`
	CacheSize   int           `mapstructure:"cache_size"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	WorkDir     string        `mapstructure:"work_dir"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ProgressConfig holds the progress feed settings.
type ProgressConfig struct {
	// WSAddr serves a WebSocket progress feed when set.
	WSAddr string `mapstructure:"ws_addr"`
}

// StateConfig holds task archive settings.
type StateConfig struct {
	Archive bool   `mapstructure:"archive"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, TANDEM_*)
// 2. Project config (.tandem.yaml in current directory or parent)
// 3. User config (~/.config/tandem/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	cfg, _, err := load()
	return cfg, err
}

func load() (*Config, *viper.Viper, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Orchestrator.WorkersFile = expandEnv(cfg.Orchestrator.WorkersFile)
	cfg.State.Path = expandEnv(cfg.State.Path)
	return cfg, nil
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	return SaveTo(GetUserConfigPath(), cfg)
}

// SaveTo writes cfg to path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	for key, value := range Flatten(cfg) {
		v.Set(key, value)
	}
	return v.WriteConfig()
}

// Flatten returns cfg as dotted keys, the form accepted by `tandem config set`.
func Flatten(cfg *Config) map[string]any {
	return map[string]any{
		"anthropic.api_key":           cfg.Anthropic.APIKey,
		"anthropic.model":             cfg.Anthropic.Model,
		"anthropic.use_bedrock":       cfg.Anthropic.UseBedrock,
		"anthropic.aws_region":        cfg.Anthropic.AWSRegion,
		"anthropic.aws_profile":       cfg.Anthropic.AWSProfile,
		"orchestrator.history_size":   cfg.Orchestrator.HistorySize,
		"orchestrator.max_duration":   cfg.Orchestrator.MaxDuration.String(),
		"orchestrator.parallel_limit": cfg.Orchestrator.ParallelLimit,
		"orchestrator.workers_file":   cfg.Orchestrator.WorkersFile,
		"workflow.tool_timeout":       cfg.Workflow.ToolTimeout.String(),
		"workflow.cache_size":         cfg.Workflow.CacheSize,
		"workflow.cache_ttl":          cfg.Workflow.CacheTTL.String(),
		"workflow.work_dir":           cfg.Workflow.WorkDir,
		"logging.level":               cfg.Logging.Level,
		"logging.format":              cfg.Logging.Format,
		"logging.file":                cfg.Logging.File,
		"metrics.enabled":             cfg.Metrics.Enabled,
		"metrics.addr":                cfg.Metrics.Addr,
		"progress.ws_addr":            cfg.Progress.WSAddr,
		"state.archive":               cfg.State.Archive,
		"state.path":                  cfg.State.Path,
	}
}

// Set returns a copy of cfg with the dotted key parsed from value. Durations
// use Go syntax ("45s") and booleans accept true/false.
func Set(cfg *Config, key, value string) (*Config, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	flat := Flatten(cfg)
	if _, ok := flat[key]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	v := viper.New()
	for k, val := range flat {
		v.Set(k, val)
	}
	v.Set(key, value)
	next, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	return next, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()
	for key, value := range Flatten(d) {
		v.SetDefault(key, value)
	}
}

// getUserConfigDir returns the XDG config directory for tandem.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// findProjectConfig searches for .tandem.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, projectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// DefaultStatePath returns the default task archive location.
func DefaultStatePath() string {
	return state.DefaultPath()
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Orchestrator: OrchestratorConfig{
			HistorySize:   10,
			MaxDuration:   10 * time.Minute,
			ParallelLimit: 0,
		},
		Workflow: WorkflowConfig{
			ToolTimeout: 30 * time.Second,
			CacheSize:   256,
			CacheTTL:    5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		State: StateConfig{
			Archive: true,
			Path:    DefaultStatePath(),
		},
	}
}
