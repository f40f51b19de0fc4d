// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vitrine/config.yaml",
	"/etc/vitrine/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "VITRINE_CONFIG_PATH"

// envPrefix marks the environment variables the loader consumes.
const envPrefix = "VITRINE_"

// sliceFields are config paths that accept comma-separated strings from the
// environment.
var sliceFields = []string{
	"server.cors_allowed_origins",
	"shelves.playlist_window",
}

// Load builds the configuration from defaults, an optional YAML file, and
// VITRINE_-prefixed environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := expandSliceFields(k); err != nil {
		return nil, fmt.Errorf("expand slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the config file to load, or "" for none. A path
// set via VITRINE_CONFIG_PATH must exist; search-path entries are optional.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps VITRINE_SECTION_FIELD_NAME to section.field_name. The
// first underscore after the prefix separates the section; the rest of the
// key keeps its underscores.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + field
}

// expandSliceFields splits comma-separated env strings into slices so
// VITRINE_SHELVES_PLAYLIST_WINDOW="a,b,c" unmarshals into []string.
func expandSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
