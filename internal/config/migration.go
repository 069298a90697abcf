package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"manoonchai/internal/effort"
)

// MigrationResult contains the result of a configuration migration.
type MigrationResult struct {
	FromVersion int
	ToVersion   int
	Changes     []string
	Warnings    []string
}

// MigrateConfig upgrades a configuration in place to the current version.
func MigrateConfig(cfg *Config) (*MigrationResult, error) {
	if cfg.Version >= Version {
		return nil, nil
	}

	result := &MigrationResult{
		FromVersion: cfg.Version,
		ToVersion:   Version,
	}

	for cfg.Version < Version {
		changes, warnings, err := applyMigration(cfg)
		if err != nil {
			return result, fmt.Errorf("migration from v%d to v%d failed: %w", cfg.Version, cfg.Version+1, err)
		}
		result.Changes = append(result.Changes, changes...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	return result, nil
}

func applyMigration(cfg *Config) (changes []string, warnings []string, err error) {
	switch cfg.Version {
	case 0, 1:
		changes, warnings = migrateV1ToV2(cfg)
		cfg.Version = 2
	default:
		return nil, nil, fmt.Errorf("unknown config version %d", cfg.Version)
	}
	return changes, warnings, nil
}

// migrateV1ToV2 handles the switch to explicit model coefficients. In v1
// a zero coefficient meant "use the default"; in v2 zero disables a term.
func migrateV1ToV2(cfg *Config) (changes []string, warnings []string) {
	def := effort.DefaultWeights()
	fields := []struct {
		name string
		v    *float64
		d    float64
	}{
		{"finger", &cfg.Model.Finger, def.Finger},
		{"row", &cfg.Model.Row, def.Row},
		{"hand", &cfg.Model.Hand, def.Hand},
		{"k1", &cfg.Model.K1, def.K1},
		{"k2", &cfg.Model.K2, def.K2},
		{"k3", &cfg.Model.K3, def.K3},
		{"kb", &cfg.Model.KB, def.KB},
		{"kp", &cfg.Model.KP, def.KP},
		{"ks", &cfg.Model.KS, def.KS},
		{"ph", &cfg.Model.PH, def.PH},
		{"pr", &cfg.Model.PR, def.PR},
		{"pf", &cfg.Model.PF, def.PF},
	}
	for _, f := range fields {
		if *f.v == 0 {
			*f.v = f.d
			changes = append(changes, fmt.Sprintf("model.%s: unset, now %g", f.name, f.d))
		}
	}

	switch strings.ToLower(cfg.Optimizer.Strategy) {
	case "hill", "hillclimb", "hill-climb":
		changes = append(changes, fmt.Sprintf("optimizer.strategy: %q renamed to \"random\"", cfg.Optimizer.Strategy))
		cfg.Optimizer.Strategy = "random"
	}

	if cfg.Optimizer.Candidates == 0 {
		cfg.Optimizer.Candidates = 8
		warnings = append(warnings, "optimizer.candidates was unset; defaulting to 8")
	}

	return changes, warnings
}

// SaveConfig saves the configuration to a file.
func SaveConfig(cfg *Config, path string) error {
	var data []byte
	var err error

	switch filepath.Ext(path) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = encodeToTOML(cfg)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func encodeToTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# manoonchai configuration\n# Version %d\n\n", cfg.Version)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
