package config

import (
	"errors"
	"flag"
	"strings"

	"sly/models"
)

// LoadConfig loads configuration with priority: CLI flags > Config file > Defaults.
//
// args are the command-line arguments without the program name. Every
// failure is returned as a *models.ConfigError except flag.ErrHelp, which is
// passed through so the caller can exit cleanly after -h.
func LoadConfig(args []string) (*Config, error) {
	// 1. Start with defaults
	cfg := DefaultConfig()

	// 2. An explicit -config must be honored before flags are merged, so
	// that flags still override the file.
	configPath := configFlagValue(args)
	explicit := configPath != ""
	if !explicit {
		configPath = FindConfigFile()
	}

	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, &models.ConfigError{Err: err}
		}
		cfg = fileCfg
	}

	// 3. Merge CLI flags (highest priority, overwrites everything)
	if err := cfg.MergeFromFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &models.ConfigError{Err: err}
	}
	cfg.ConfigPath = configPath

	// Listing fonts needs no valid slideshow settings
	if cfg.ListFonts {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Auto-detect threads after validation so 0 stays meaningful in files
	if cfg.Encoder.Threads == 0 && cfg.SaveConfig == "" {
		cfg.Encoder.Threads = DefaultThreads()
	}

	return cfg, nil
}

// configFlagValue extracts the value of -c/-config in any of the forms the
// flag package accepts.
func configFlagValue(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg || len(arg)-len(name) > 2 {
			continue
		}

		if key, value, ok := strings.Cut(name, "="); ok {
			if key == "c" || key == "config" {
				return value
			}
			continue
		}
		if (name == "c" || name == "config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
