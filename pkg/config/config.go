// Package config loads the ttdb configuration file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/dshills/ttdb/pkg/domain/recording"
)

const (
	// FileName is the config file name inside the config directory.
	FileName = "config.yaml"
	// EnvConfigDir overrides the config directory (used by tests).
	EnvConfigDir = "TTDB_CONFIG_DIR"

	DefaultPrompt   = "(ttdb) "
	DefaultMaxSteps = 100000
	DefaultMaxDepth = 256
)

// ErrInvalidConfig is returned when the config file does not match the schema.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed schema.json
var schemaJSON []byte

// Config holds the debugger settings.
type Config struct {
	Version string `yaml:"version" json:"version"`
	// Capacity is the maximum number of recorded steps per session.
	Capacity int `yaml:"capacity" json:"capacity"`
	// MaxSteps bounds the statements a program may execute.
	MaxSteps int `yaml:"max_steps" json:"max_steps"`
	// MaxDepth bounds the call stack depth.
	MaxDepth   int    `yaml:"max_depth" json:"max_depth"`
	Prompt     string `yaml:"prompt" json:"prompt"`
	ShowSource bool   `yaml:"show_source" json:"show_source"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:    "1.0",
		Capacity:   recording.DefaultCapacity,
		MaxSteps:   DefaultMaxSteps,
		MaxDepth:   DefaultMaxDepth,
		Prompt:     DefaultPrompt,
		ShowSource: true,
	}
}

// Dir resolves the config directory.
// Priority order: 1) TTDB_CONFIG_DIR, 2) dir, 3) ~/.ttdb
func Dir(dir string) (string, error) {
	if envDir := os.Getenv(EnvConfigDir); envDir != "" {
		return envDir, nil
	}
	if dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ttdb"), nil
}

// Init creates dir and a default config file in it when none exists, and
// returns the path of the config file.
func Init(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, Default()); err != nil {
			return "", err
		}
	}
	return path, nil
}

// Load reads and validates the config file at path. A missing file yields
// the defaults. Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config bytes on top of the defaults.
func Parse(data []byte) (*Config, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if doc == nil {
		return Default(), nil
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks a decoded YAML document against the config schema.
func Validate(doc interface{}) error {
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(normalize(doc))

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	return nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// normalize converts YAML-decoded maps into map[string]interface{} so the
// schema loader can walk them.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
