package classes

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoNames is returned when a manifest has no usable names entry.
var ErrNoNames = errors.New("manifest does not contain a valid 'names' list")

type manifest struct {
	Names yaml.Node `yaml:"names"`
}

type manifestOut struct {
	Names []string `yaml:"names"`
	NC    int      `yaml:"nc"`
}

// LoadYAML reads a class manifest.
//
// names may be a sequence, or a mapping from contiguous integer ids 0..n-1 to names
// as used by Ultralytics data.yaml files. Other keys are ignored.
func LoadYAML(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class manifest: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a class manifest from data.
func ParseYAML(data []byte) (*List, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse class manifest: %w", err)
	}

	switch m.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := m.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoNames, err)
		}
		return New(names...), nil

	case yaml.MappingNode:
		var byID map[int]string
		if err := m.Names.Decode(&byID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoNames, err)
		}
		names := make([]string, len(byID))
		for i := range names {
			n, ok := byID[i]
			if !ok {
				return nil, fmt.Errorf("%w: id %d missing", ErrNoNames, i)
			}
			names[i] = n
		}
		return New(names...), nil

	default:
		return nil, ErrNoNames
	}
}

// SaveYAML writes l as a manifest with names and nc keys.
func SaveYAML(path string, l *List) error {
	data, err := yaml.Marshal(manifestOut{Names: l.Names(), NC: l.Len()})
	if err != nil {
		return fmt.Errorf("failed to encode class manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write class manifest: %w", err)
	}
	return nil
}
