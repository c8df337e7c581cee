package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// format is a config file encoding, picked by file extension
type format struct {
	name      string
	marshal   func(v interface{}) ([]byte, error)
	unmarshal func(data []byte, v interface{}) error
}

var (
	yamlFormat = format{name: "YAML", marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}
	jsonFormat = format{
		name: "JSON",
		marshal: func(v interface{}) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		},
		unmarshal: json.Unmarshal,
	}
)

// formatFor returns the format for path. Anything that is not .json is YAML.
func formatFor(path string) format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return jsonFormat
	}
	return yamlFormat
}

// Load decodes the file at path into target, on top of whatever target
// already holds.
func Load(path string, target interface{}) error {
	f := formatFor(path)
	// #nosec G304 -- the path comes from the operator (flag or env).
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := f.unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode %s config %s: %w", f.name, path, err)
	}
	return nil
}

// Save encodes config into path using the format Load would pick
func Save(path string, config interface{}) error {
	f := formatFor(path)
	data, err := f.marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode %s config: %w", f.name, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
