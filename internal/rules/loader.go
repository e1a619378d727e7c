package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/keyshift/internal/types"
)

// LoadMapping parses a mapping definition. YAML and JSON are both accepted
// (JSON is valid YAML). Unknown fields are rejected so typos in rule keys do
// not silently drop rules.
func LoadMapping(data []byte) (*types.Mapping, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var mapping types.Mapping
	if err := dec.Decode(&mapping); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty mapping definition")
		}
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	return &mapping, nil
}

// LoadMappingFile reads and parses a mapping definition from path.
func LoadMappingFile(path string) (*types.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	mapping, err := LoadMapping(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mapping, nil
}
