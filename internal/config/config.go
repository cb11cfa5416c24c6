// Package config handles configuration and the .threadwork directory
// structure. Every project that runs threadwork gets a .threadwork/ folder
// in its root holding config.yaml and the log directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Dir is the name of the directory created in each project.
const Dir = ".threadwork"

const defaultProjectConfigYAML = `# threadwork project configuration
version: 1

log:
  # Relative paths resolve against the project directory.
  path: .threadwork/logs/threadwork.log
  # Record thread lifecycle (cue, fork, join, resume, terminate) in the log.
  trace: false

demo:
  # How often a running transfer advances.
  tick: 120ms
  # Elapsed-time clock resolution.
  clock: 1s
  transfers:
    - name: assets
      step: 7
    - name: search-index
      step: 4
    - name: nightly-backup
      step: 11

metrics:
  enabled: false
  addr: 127.0.0.1:9464
`

// LogConfig controls the file logger.
type LogConfig struct {
	Path  string `yaml:"path" env:"THREADWORK_LOG_PATH"`
	Trace bool   `yaml:"trace" env:"THREADWORK_TRACE"`
}

// TransferConfig declares one transfer on the demo board.
type TransferConfig struct {
	Name string `yaml:"name" validate:"required"`
	Step int    `yaml:"step" validate:"min=1,max=100"`
}

// DemoConfig configures the transfer board.
type DemoConfig struct {
	Tick      time.Duration    `yaml:"tick" env:"THREADWORK_TICK" validate:"gt=0"`
	Clock     time.Duration    `yaml:"clock" validate:"gt=0"`
	Transfers []TransferConfig `yaml:"transfers" validate:"min=1,dive"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"THREADWORK_METRICS"`
	Addr    string `yaml:"addr" env:"THREADWORK_METRICS_ADDR" validate:"required_if=Enabled true"`
}

// ProjectConfig models .threadwork/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version" validate:"min=1"`
	Log     LogConfig     `yaml:"log"`
	Demo    DemoConfig    `yaml:"demo"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory threadwork runs against.
	ProjectDir string
	// ThreadworkDir is ProjectDir/.threadwork.
	ThreadworkDir string

	Project ProjectConfig
}

// InitDir creates the .threadwork directory structure and a default
// config.yaml when none exists.
//
//	.threadwork/
//	├── config.yaml
//	└── logs/
func InitDir(projectDir string) error {
	cfg := &Config{ProjectDir: projectDir, ThreadworkDir: filepath.Join(projectDir, Dir)}
	if err := os.MkdirAll(cfg.LogsDir(), 0o755); err != nil {
		return fmt.Errorf("config: ensure %s: %w", Dir, err)
	}
	return ensureProjectConfig(cfg.ProjectConfigPath())
}

// Load reads the project config, applying defaults for anything missing and
// environment overrides on top. A missing config.yaml is not an error.
func Load(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:    projectDir,
		ThreadworkDir: filepath.Join(projectDir, Dir),
		Project:       defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ThreadworkDir, "config.yaml")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.ThreadworkDir, "logs")
}

// LogPath returns the resolved log file path.
func (c *Config) LogPath() string {
	return c.Project.Log.Path
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	parsed := defaultProjectConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed.applyDefaults()
	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Log:     LogConfig{Path: filepath.Join(Dir, "logs", "threadwork.log")},
		Demo: DemoConfig{
			Tick:  120 * time.Millisecond,
			Clock: time.Second,
			Transfers: []TransferConfig{
				{Name: "assets", Step: 7},
				{Name: "search-index", Step: 4},
				{Name: "nightly-backup", Step: 11},
			},
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9464"},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	def := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = def.Version
	}
	if strings.TrimSpace(pc.Log.Path) == "" {
		pc.Log.Path = def.Log.Path
	}
	if pc.Demo.Tick == 0 {
		pc.Demo.Tick = def.Demo.Tick
	}
	if pc.Demo.Clock == 0 {
		pc.Demo.Clock = def.Demo.Clock
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Log.Path = resolvePath(base, pc.Log.Path)
	for i := range pc.Demo.Transfers {
		pc.Demo.Transfers[i].Name = strings.TrimSpace(pc.Demo.Transfers[i].Name)
	}
	pc.Metrics.Addr = strings.TrimSpace(pc.Metrics.Addr)
}

var structValidator = validator.New()

func (pc *ProjectConfig) validate() error {
	if err := structValidator.Struct(pc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return err
	}
	seen := make(map[string]struct{}, len(pc.Demo.Transfers))
	for i, tr := range pc.Demo.Transfers {
		if _, dup := seen[tr.Name]; dup {
			return fmt.Errorf("demo.transfers[%d]: duplicate name %q", i, tr.Name)
		}
		seen[tr.Name] = struct{}{}
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default config: %w", err)
	}
	return nil
}
