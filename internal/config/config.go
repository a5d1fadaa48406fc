// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tfctl/snapdiff/internal/log"
)

// ErrNoConfig is returned when no config file exists in any of the standard
// locations. Running without a config file is normal.
var ErrNoConfig = errors.New("no config file found in standard locations")

// Type is the in-memory representation of the loaded configuration.
//
// Fields:
//   - Source: absolute path of the YAML file loaded.
//   - Data: raw key/value tree unmarshaled from YAML.
type Type struct {
	Source string
	Data   map[string]interface{}
}

// Config holds the global, lazily-initialized configuration instance.
var Config Type

// GetBool returns the boolean value for the given dotted key path. A single
// defaultValue may be provided and is returned when the key is missing.
func GetBool(key string, defaultValue ...bool) (bool, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%s: value is not a bool", key)
	}
	return b, nil
}

// GetInt returns the integer value for the given dotted key path. A single
// defaultValue may be provided and is returned when the key is missing.
// YAML numbers may decode as int, int64, or float64; common cases are handled.
func GetInt(key string, defaultValue ...int) (int, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s: value is not an int", key)
	}
}

// GetString returns the string value for the given dotted key path. If the key
// is not found and a single defaultValue is provided, the default is returned.
// Returns an error if the value exists but is not a string.
func GetString(key string, defaultValue ...string) (string, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s: value is not a string", key)
	}
	return s, nil
}

// GetStringSlice returns the string slice value for the given dotted key path.
// If the key is not found and a single default slice is provided, that default
// is returned. Returns an error if the value exists but is not a string slice.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	val, err := lookup(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return nil, err
	}

	list, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: value is not a slice", key)
	}
	result := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s: slice element is not a string", key)
		}
		result[i] = s
	}
	return result, nil
}

// Load reads the YAML configuration file and populates the global Config.
// An explicit cfgFilePath wins over SNAPDIFF_CFG_FILE and the user config
// directory.
func Load(cfgFilePath ...string) (Type, error) {
	path, err := configFile(cfgFilePath...)
	if err != nil {
		return Type{}, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	Config = Type{
		Source: path,
		Data:   data,
	}
	return Config, nil
}

// lookup lazily loads the config and resolves a dotted key.
func lookup(key string) (any, error) {
	if Config.Source == "" {
		_, _ = Load()
	}
	return Config.get(key)
}

// get traverses the configuration tree using a dotted key path (e.g.
// "s3.bucket") and returns the raw value if found.
func (cfg *Type) get(kspec string) (any, error) {
	var current interface{} = cfg.Data
	for _, key := range strings.Split(kspec, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("no value found for key %q", kspec)
		}
		if current, ok = m[key]; !ok {
			return nil, fmt.Errorf("no value found for key %q", kspec)
		}
	}
	return current, nil
}

// configFile returns the absolute path to the YAML config file. Precedence is
// an explicit path, then SNAPDIFF_CFG_FILE, then os.UserConfigDir with the
// filename "snapdiff.yaml". The file must exist and not be a directory.
func configFile(explicit ...string) (string, error) {
	candidate := ""
	origin := ""
	if len(explicit) > 0 && explicit[0] != "" {
		candidate, origin = explicit[0], "explicit"
	} else if env := os.Getenv("SNAPDIFF_CFG_FILE"); env != "" {
		candidate, origin = env, "SNAPDIFF_CFG_FILE"
	}

	if candidate != "" {
		fileInfo, err := os.Stat(candidate)
		if err != nil {
			return "", fmt.Errorf("config file not found at %s path: %s", origin, candidate)
		}
		if fileInfo.IsDir() {
			return "", fmt.Errorf("%s points to a directory: %s", origin, candidate)
		}
		log.Debugf("using config file from %s: %s", origin, candidate)
		return candidate, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		log.Debugf("no user config dir: %v", err)
		return "", ErrNoConfig
	}

	file := filepath.Join(dir, "snapdiff.yaml")
	if fileInfo, err := os.Stat(file); err == nil && !fileInfo.IsDir() {
		log.Debugf("using config file: %s", file)
		return file, nil
	}

	return "", ErrNoConfig
}
