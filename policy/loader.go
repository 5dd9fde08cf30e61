package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk policy format: one allow-list per backend family.
//
//	default:
//	  prefixes: ["eu-"]
//	backends:
//	  gcp-vertex:
//	    prefixes: ["europe-"]
type File struct {
	Default  Entry            `yaml:"default"`
	Backends map[string]Entry `yaml:"backends"`
}

// Entry holds the allowed region prefixes for one backend family.
type Entry struct {
	Prefixes []string `yaml:"prefixes"`
}

// Set resolves gates per backend family, falling back to the default entry.
type Set struct {
	fallback Gate
	gates    map[string]Gate
}

// Gate returns the gate for a backend family.
func (s *Set) Gate(systemID string) Gate {
	if g, ok := s.gates[systemID]; ok {
		return g
	}
	return s.fallback
}

// LoadFile reads a YAML policy file into a Set.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML policy bytes into a Set.
func Parse(data []byte) (*Set, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	set := &Set{
		fallback: NewGate(f.Default.Prefixes...),
		gates:    make(map[string]Gate, len(f.Backends)),
	}
	for name, entry := range f.Backends {
		if name == "" {
			continue
		}
		set.gates[name] = NewGate(entry.Prefixes...)
	}
	return set, nil
}
