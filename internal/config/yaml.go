package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile is a koanf provider that reads a YAML document from disk.
type yamlFile struct {
	path string
}

// YAMLFile returns a koanf provider for the YAML file at path.
func YAMLFile(path string) *yamlFile {
	return &yamlFile{path: path}
}

// ReadBytes returns the raw file contents.
func (f *yamlFile) ReadBytes() ([]byte, error) {
	return os.ReadFile(f.path)
}

// Read parses the file into a nested map.
func (f *yamlFile) Read() (map[string]any, error) {
	b, err := f.ReadBytes()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if out == nil {
		return nil, errors.New("yaml document is not a mapping")
	}
	return out, nil
}
