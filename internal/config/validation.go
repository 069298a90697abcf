package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"manoonchai/internal/layout"
	"manoonchai/internal/optimizer"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
// Warning-level issues are not reported; use CheckConfig to see them.
func ValidateConfig(c *Config) error {
	errs := CheckConfig(c).Errors()
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CheckConfig returns every validation issue, warnings included.
func CheckConfig(c *Config) ValidationErrors {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateLayout(&c.Layout)...)
	errs = append(errs, validateModel(&c.Model)...)
	errs = append(errs, validateOptimizer(&c.Optimizer)...)
	errs = append(errs, validateCorpus(&c.Corpus)...)
	errs = append(errs, validateStorage(&c.Storage)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	return errs
}

func validateLayout(l *LayoutConfig) ValidationErrors {
	var errs ValidationErrors

	if l.File == "" {
		if _, err := layout.Preset(l.Preset); err != nil {
			errs = append(errs, ValidationError{
				Field:   "layout.preset",
				Message: fmt.Sprintf("unknown preset %q (valid: %s)", l.Preset, strings.Join(layout.PresetNames(), ", ")),
			})
		}
	} else if _, err := os.Stat(expandPath(l.File)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "layout.file",
			Message: fmt.Sprintf("layout file not accessible: %v", err),
		})
	}

	seen := make(map[int]bool)
	for _, r := range l.LockedRows {
		if r < 0 || r >= layout.Rows {
			errs = append(errs, ValidationError{
				Field:   "layout.locked_rows",
				Message: fmt.Sprintf("row %d out of range (0-%d)", r, layout.Rows-1),
			})
			continue
		}
		if seen[r] {
			errs = append(errs, ValidationError{
				Field:   "layout.locked_rows",
				Message: fmt.Sprintf("row %d listed twice", r),
			})
		}
		seen[r] = true
	}

	return errs
}

func validateModel(m *ModelConfig) ValidationErrors {
	var errs ValidationErrors

	w := m.Weights()
	fields := []struct {
		name string
		v    float64
	}{
		{"finger", w.Finger}, {"row", w.Row}, {"hand", w.Hand},
		{"k1", w.K1}, {"k2", w.K2}, {"k3", w.K3},
		{"kb", w.KB}, {"kp", w.KP}, {"ks", w.KS},
		{"ph", w.PH}, {"pr", w.PR}, {"pf", w.PF},
	}
	for _, f := range fields {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = append(errs, ValidationError{
				Field:   "model." + f.name,
				Message: fmt.Sprintf("coefficient must be a finite non-negative number, got %g", f.v),
			})
		}
	}

	if w.KB == 0 && w.KP == 0 && w.KS == 0 {
		errs = append(errs, ValidationError{
			Field:   "model.kb",
			Message: "kb, kp and ks are all zero; every layout would score 0",
		})
	}

	return errs
}

func validateOptimizer(o *OptimizerConfig) ValidationErrors {
	var errs ValidationErrors

	if o.Iterations < 1 {
		errs = append(errs, ValidationError{
			Field:   "optimizer.iterations",
			Message: "iterations must be at least 1",
		})
	}

	if o.Workers < 0 {
		errs = append(errs, ValidationError{
			Field:   "optimizer.workers",
			Message: "workers cannot be negative (0 means one per CPU)",
		})
	}

	if o.Candidates < 1 {
		errs = append(errs, ValidationError{
			Field:   "optimizer.candidates",
			Message: "candidates must be at least 1",
		})
	}

	if o.Patience < 0 {
		errs = append(errs, ValidationError{
			Field:   "optimizer.patience",
			Message: "patience cannot be negative",
		})
	}

	if o.TimeoutSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "optimizer.timeout_sec",
			Message: "timeout cannot be negative",
		})
	}

	if _, err := optimizer.ParseStrategy(o.Strategy); err != nil {
		errs = append(errs, ValidationError{
			Field:   "optimizer.strategy",
			Message: fmt.Sprintf("invalid strategy: %s (valid: random, sweep)", o.Strategy),
		})
	}

	return errs
}

func validateCorpus(c *CorpusConfig) ValidationErrors {
	var errs ValidationErrors

	for i, p := range c.Paths {
		if p == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("corpus.paths[%d]", i),
				Message: "empty path",
			})
			continue
		}
		if _, err := os.Stat(expandPath(p)); os.IsNotExist(err) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("corpus.paths[%d]", i),
				Message: fmt.Sprintf("path does not exist: %s", p),
			})
		}
	}

	return errs
}

func validateStorage(s *StorageConfig) ValidationErrors {
	var errs ValidationErrors

	if s.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.path",
			Message: "database path is required",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "file":
		if l.Output == "file" && l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output is 'file'",
			})
		}
	default:
		// Anything else is taken as a file path.
		if l.Output == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: "log output is required",
			})
		}
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// IsWarning returns true if this is a non-fatal validation issue.
func (e *ValidationError) IsWarning() bool {
	// Corpus files may be created after the config is written.
	warningFields := []string{
		"corpus.paths",
	}
	for _, f := range warningFields {
		if strings.HasPrefix(e.Field, f) {
			return true
		}
	}
	return false
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrors returns true if there are any non-warning errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// ErrInvalidConfig matches any ValidationErrors under errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// Is reports whether target is ErrInvalidConfig.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}
