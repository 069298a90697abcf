// Package config handles configuration loading, validation, and management for manoonchai.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"manoonchai/internal/effort"
	"manoonchai/internal/layout"
	"manoonchai/internal/optimizer"
)

// Version is the current configuration schema version.
const Version = 2

// Config holds the complete tool configuration.
type Config struct {
	// Version is the configuration schema version for migrations.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Layout selects the layout to score or optimize.
	Layout LayoutConfig `toml:"layout" json:"layout" yaml:"layout"`

	// Model holds the effort model coefficients.
	Model ModelConfig `toml:"model" json:"model" yaml:"model"`

	// Optimizer configuration for swap search.
	Optimizer OptimizerConfig `toml:"optimizer" json:"optimizer" yaml:"optimizer"`

	// Corpus configuration for default input text.
	Corpus CorpusConfig `toml:"corpus" json:"corpus" yaml:"corpus"`

	// Storage configuration for layout and run history.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// LayoutConfig selects a layout.
type LayoutConfig struct {
	// Preset is the name of a built-in layout.
	Preset string `toml:"preset" json:"preset" yaml:"preset"`

	// File is a layout file path. It takes precedence over Preset.
	File string `toml:"file" json:"file" yaml:"file"`

	// LockedRows lists matrix rows the optimizer must not touch.
	LockedRows []int `toml:"locked_rows" json:"locked_rows" yaml:"locked_rows"`
}

// ModelConfig holds the effort model coefficients.
type ModelConfig struct {
	Finger float64 `toml:"finger" json:"finger" yaml:"finger"`
	Row    float64 `toml:"row" json:"row" yaml:"row"`
	Hand   float64 `toml:"hand" json:"hand" yaml:"hand"`

	K1 float64 `toml:"k1" json:"k1" yaml:"k1"`
	K2 float64 `toml:"k2" json:"k2" yaml:"k2"`
	K3 float64 `toml:"k3" json:"k3" yaml:"k3"`

	KB float64 `toml:"kb" json:"kb" yaml:"kb"`
	KP float64 `toml:"kp" json:"kp" yaml:"kp"`
	KS float64 `toml:"ks" json:"ks" yaml:"ks"`

	PH float64 `toml:"ph" json:"ph" yaml:"ph"`
	PR float64 `toml:"pr" json:"pr" yaml:"pr"`
	PF float64 `toml:"pf" json:"pf" yaml:"pf"`
}

// Weights converts the model section to effort weights.
func (m *ModelConfig) Weights() effort.Weights {
	return effort.Weights{
		Finger: m.Finger,
		Row:    m.Row,
		Hand:   m.Hand,
		K1:     m.K1,
		K2:     m.K2,
		K3:     m.K3,
		KB:     m.KB,
		KP:     m.KP,
		KS:     m.KS,
		PH:     m.PH,
		PR:     m.PR,
		PF:     m.PF,
	}
}

func modelFromWeights(w effort.Weights) ModelConfig {
	return ModelConfig{
		Finger: w.Finger,
		Row:    w.Row,
		Hand:   w.Hand,
		K1:     w.K1,
		K2:     w.K2,
		K3:     w.K3,
		KB:     w.KB,
		KP:     w.KP,
		KS:     w.KS,
		PH:     w.PH,
		PR:     w.PR,
		PF:     w.PF,
	}
}

// OptimizerConfig holds swap search configuration.
type OptimizerConfig struct {
	// Iterations is the maximum number of rounds.
	Iterations int `toml:"iterations" json:"iterations" yaml:"iterations"`

	// Workers is the number of scoring goroutines. 0 means GOMAXPROCS.
	Workers int `toml:"workers" json:"workers" yaml:"workers"`

	// Candidates is the number of random swaps per worker per round.
	Candidates int `toml:"candidates" json:"candidates" yaml:"candidates"`

	// Patience stops a run after this many rounds without improvement.
	Patience int `toml:"patience" json:"patience" yaml:"patience"`

	// Seed for reproducible runs.
	Seed int64 `toml:"seed" json:"seed" yaml:"seed"`

	// Strategy is "random" or "sweep".
	Strategy string `toml:"strategy" json:"strategy" yaml:"strategy"`

	// TimeoutSec bounds a run. 0 disables the limit.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// CorpusConfig holds default corpus files.
type CorpusConfig struct {
	// Paths are read when a command is given no files.
	Paths []string `toml:"paths" json:"paths" yaml:"paths"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Path is the path to the SQLite database file.
	Path string `toml:"path" json:"path" yaml:"path"`

	// SaveRuns records every optimizer run and its result layout.
	SaveRuns bool `toml:"save_runs" json:"save_runs" yaml:"save_runs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file", or a file path.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of log files in days.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()
	opts := optimizer.DefaultOptions()

	return &Config{
		Version: Version,
		Layout: LayoutConfig{
			Preset:     layout.DefaultPreset,
			LockedRows: []int{},
		},
		Model: modelFromWeights(effort.DefaultWeights()),
		Optimizer: OptimizerConfig{
			Iterations: opts.Iterations,
			Workers:    0, // GOMAXPROCS at run time
			Candidates: opts.Candidates,
			Patience:   opts.Patience,
			Seed:       opts.Seed,
			Strategy:   string(opts.Strategy),
		},
		Corpus: CorpusConfig{
			Paths: []string{},
		},
		Storage: StorageConfig{
			Path:     filepath.Join(dir, "manoonchai.db"),
			SaveRuns: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(dir, "manoonchai.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// DataDir returns the base manoonchai directory.
// MANOONCHAI_DATA_DIR overrides the default of ~/.manoonchai.
func DataDir() string {
	if envDir := os.Getenv("MANOONCHAI_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".manoonchai"
	}
	return filepath.Join(home, ".manoonchai")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories for the database and log file.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Storage.Path)}
	if c.Logging.Output == "file" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with MANOONCHAI_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MANOONCHAI_LAYOUT"); v != "" {
		c.Layout.Preset = v
		c.Layout.File = ""
	}

	if v := os.Getenv("MANOONCHAI_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}

	if v := os.Getenv("MANOONCHAI_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MANOONCHAI_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
		c.Logging.Output = "file"
	}

	// Malformed seeds are ignored so a typo never silently becomes seed 0.
	if v := os.Getenv("MANOONCHAI_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Optimizer.Seed = seed
		}
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Layout.LockedRows = append([]int{}, c.Layout.LockedRows...)
	clone.Corpus.Paths = append([]string{}, c.Corpus.Paths...)
	return &clone
}

// LoadLayout builds the configured layout with its locked rows applied.
func (c *Config) LoadLayout() (*layout.Layout, error) {
	if c.Layout.File != "" {
		return c.LayoutFromFile(c.Layout.File)
	}

	m, err := layout.Preset(c.Layout.Preset)
	if err != nil {
		return nil, err
	}
	return layout.New(c.Layout.Preset, m, layout.LockRows(m, c.Layout.LockedRows...))
}

// LayoutFromFile reads a layout file and locks the configured rows on top
// of the file's own mask.
func (c *Config) LayoutFromFile(path string) (*layout.Layout, error) {
	f, err := layout.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := f.Matrix()
	if err != nil {
		return nil, err
	}
	mask := f.Mask()
	for _, r := range c.Layout.LockedRows {
		if r < 0 || r >= layout.Rows {
			return nil, fmt.Errorf("locked row %d out of range", r)
		}
		mask[r] = layout.LockRows(m, r)[r]
	}
	return layout.New(f.Name, m, mask)
}

// OptimizerOptions converts the optimizer and model sections to run options.
func (c *Config) OptimizerOptions() optimizer.Options {
	workers := c.Optimizer.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	strategy, err := optimizer.ParseStrategy(c.Optimizer.Strategy)
	if err != nil {
		strategy = optimizer.StrategyRandom
	}
	return optimizer.Options{
		Iterations: c.Optimizer.Iterations,
		Workers:    workers,
		Candidates: c.Optimizer.Candidates,
		Patience:   c.Optimizer.Patience,
		Seed:       c.Optimizer.Seed,
		Strategy:   strategy,
		Weights:    c.Model.Weights(),
		Timeout:    time.Duration(c.Optimizer.TimeoutSec) * time.Second,
	}
}
