package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Props is the per-project packaging configuration: a YAML mapping of
// section name to option map. Build-service tag sections live here, keyed
// by tag name.
type Props struct {
	sections map[string]map[string]string
}

// LoadProps reads the project props file. A missing file is not an error;
// it yields an empty Props so projects without one release normally.
func LoadProps(path string) (*Props, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Props{sections: map[string]map[string]string{}}, nil
		}
		return nil, fmt.Errorf("read props file: %w", err)
	}
	p, err := ParseProps(data)
	if err != nil {
		return nil, fmt.Errorf("props file %s: %w", path, err)
	}
	return p, nil
}

func ParseProps(data []byte) (*Props, error) {
	raw := map[string]map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	p := &Props{sections: make(map[string]map[string]string, len(raw))}
	for section, opts := range raw {
		if opts == nil {
			opts = map[string]string{}
		}
		p.sections[section] = opts
	}
	return p, nil
}

func (p *Props) HasSection(section string) bool {
	_, ok := p.sections[section]
	return ok
}

func (p *Props) HasOption(section, option string) bool {
	opts, ok := p.sections[section]
	if !ok {
		return false
	}
	_, ok = opts[option]
	return ok
}

// Get returns the option value, empty when the section or option is unset.
func (p *Props) Get(section, option string) string {
	return p.sections[section][option]
}

// List splits a whitespace-separated option into its entries.
func (p *Props) List(section, option string) []string {
	return strings.Fields(p.Get(section, option))
}
