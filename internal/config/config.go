// Package config loads tool configuration: built-in defaults, an
// optional YAML file, then ANNOTATE_* environment overrides, in that
// order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the tool settings.
type Config struct {
	// Criteria is the default criteria list applied when a quality
	// check does not name its own.
	Criteria []string     `yaml:"criteria"`
	Export   ExportConfig `yaml:"export"`
	Color    bool         `yaml:"color"`
}

// ExportConfig names the export destinations. An empty Archive
// disables the SQLite export.
type ExportConfig struct {
	Report  string `yaml:"report"`
	CSV     string `yaml:"csv"`
	Archive string `yaml:"archive,omitempty"`
}

func defaults() Config {
	return Config{
		Criteria: []string{"completeness", "format", "consistency"},
		Export: ExportConfig{
			Report: "annotation_report.json",
			CSV:    "annotations.csv",
		},
		Color: true,
	}
}

// DefaultPath returns the default config file location, honoring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "annotate", "config.yaml")
}

// Load reads configuration from path (DefaultPath when empty) and
// applies environment overrides. A missing default file is not an
// error; an explicit path that cannot be read is.
func Load(path string) (Config, error) {
	cfg := defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// No config file; defaults apply.
		default:
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if len(cfg.Criteria) == 0 {
		return Config{}, fmt.Errorf("config: criteria list must not be empty")
	}
	if cfg.Export.Report == "" || cfg.Export.CSV == "" {
		return Config{}, fmt.Errorf("config: export.report and export.csv must not be empty")
	}

	return cfg, nil
}

type envSpec struct {
	env   string
	apply func(cfg *Config, v string)
}

var envSpecs = []envSpec{
	{
		env: "ANNOTATE_CRITERIA",
		apply: func(cfg *Config, v string) {
			parts := strings.Split(v, ",")
			criteria := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					criteria = append(criteria, p)
				}
			}
			cfg.Criteria = criteria
		},
	},
	{
		env:   "ANNOTATE_REPORT_PATH",
		apply: func(cfg *Config, v string) { cfg.Export.Report = v },
	},
	{
		env:   "ANNOTATE_CSV_PATH",
		apply: func(cfg *Config, v string) { cfg.Export.CSV = v },
	},
	{
		env:   "ANNOTATE_ARCHIVE_PATH",
		apply: func(cfg *Config, v string) { cfg.Export.Archive = v },
	},
	{
		env:   "ANNOTATE_NO_COLOR",
		apply: func(cfg *Config, v string) { cfg.Color = v != "1" && !strings.EqualFold(v, "true") },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range envSpecs {
		if raw := os.Getenv(s.env); raw != "" {
			s.apply(cfg, raw)
		}
	}
}
