// Package config loads the declarative configuration a release run
// consumes: the release-targets file, the per-project packaging props, and
// the operator's rc file.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuilderArgPrefix marks target options that pass through to the builder
// unchanged. The prefix is stripped before handoff.
const BuilderArgPrefix = "builder."

// Target holds the options of one named release target. All values are
// strings; list-valued options are whitespace separated.
type Target struct {
	name    string
	options map[string]string
}

// Targets is the parsed release-targets file: a YAML mapping of target name
// to its option map.
type Targets struct {
	targets map[string]*Target
}

func LoadTargets(path string) (*Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	t, err := ParseTargets(data)
	if err != nil {
		return nil, fmt.Errorf("targets file %s: %w", path, err)
	}
	return t, nil
}

func ParseTargets(data []byte) (*Targets, error) {
	raw := map[string]map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	t := &Targets{targets: make(map[string]*Target, len(raw))}
	for name, opts := range raw {
		if opts == nil {
			opts = map[string]string{}
		}
		t.targets[name] = &Target{name: name, options: opts}
	}
	return t, nil
}

// Target looks up a release target by name.
func (t *Targets) Target(name string) (*Target, bool) {
	target, ok := t.targets[name]
	return target, ok
}

// Names returns the target names in sorted order.
func (t *Targets) Names() []string {
	names := make([]string, 0, len(t.targets))
	for name := range t.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Target) Name() string {
	return t.name
}

func (t *Target) HasOption(name string) bool {
	_, ok := t.options[name]
	return ok
}

// Option returns the option value, empty when unset.
func (t *Target) Option(name string) string {
	return t.options[name]
}

// Options returns the option names in sorted order.
func (t *Target) Options() []string {
	names := make([]string, 0, len(t.options))
	for name := range t.options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List splits a whitespace-separated option into its entries.
func (t *Target) List(name string) []string {
	return strings.Fields(t.options[name])
}

// BuilderArgs returns the options reserved for the builder, with the
// "builder." prefix stripped.
func (t *Target) BuilderArgs() map[string]string {
	args := map[string]string{}
	for name, value := range t.options {
		if arg, ok := strings.CutPrefix(name, BuilderArgPrefix); ok {
			args[arg] = value
		}
	}
	return args
}
