package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMinCommitDelay = 30 * time.Second
	DefaultVelocityWindow = 30 * time.Second
	DefaultEvalInterval   = 10 * time.Second
	DefaultDebounce       = 500 * time.Millisecond
)

type GitConfig struct {
	AutoCommit bool   `yaml:"auto_commit"`
	Author     string `yaml:"author"`
	Email      string `yaml:"email"`

	// CommitMode is the pre-auto_commit setting; read for migration only.
	CommitMode string `yaml:"commit_mode,omitempty"`
}

type EngineConfig struct {
	MinCommitDelay time.Duration `yaml:"min_commit_delay"`
	VelocityWindow time.Duration `yaml:"velocity_window"`
	EvalInterval   time.Duration `yaml:"eval_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

type Config struct {
	Git     GitConfig     `yaml:"git"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
}

func DefaultConfig() *Config {
	return &Config{
		Git: GitConfig{
			AutoCommit: true,
			Author:     DefaultAuthor,
			Email:      DefaultEmail,
		},
		Engine: EngineConfig{
			MinCommitDelay: DefaultMinCommitDelay,
			VelocityWindow: DefaultVelocityWindow,
			EvalInterval:   DefaultEvalInterval,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}

func LoadConfig(v Vault) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(v.ConfigPath())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.migrate()
	cfg.fillDefaults()

	return cfg, nil
}

func SaveConfig(v Vault, cfg *Config) error {
	if err := os.MkdirAll(v.MetaPath(), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(v.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) migrate() {
	if c.Git.CommitMode != "" {
		c.Git.AutoCommit = c.Git.CommitMode != "manual"
		c.Git.CommitMode = ""
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Git.Author == "" {
		c.Git.Author = def.Git.Author
	}
	if c.Git.Email == "" {
		c.Git.Email = def.Git.Email
	}
	if c.Engine.MinCommitDelay <= 0 {
		c.Engine.MinCommitDelay = def.Engine.MinCommitDelay
	}
	if c.Engine.VelocityWindow <= 0 {
		c.Engine.VelocityWindow = def.Engine.VelocityWindow
	}
	if c.Engine.EvalInterval <= 0 {
		c.Engine.EvalInterval = def.Engine.EvalInterval
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = def.Watch.Debounce
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// EngineOptions translates the engine section into CommitEngine options.
func (c *Config) EngineOptions() []EngineOption {
	return []EngineOption{
		WithMinCommitDelay(c.Engine.MinCommitDelay),
		WithVelocityWindow(c.Engine.VelocityWindow),
		WithEvalInterval(c.Engine.EvalInterval),
	}
}
