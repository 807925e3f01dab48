// Package params loads the boat, configuration and material constants and
// merges them into the per-build parameter set consumed by the design stage.
package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Constant subdirectories below the constants root.
const (
	BoatDir          = "boat"
	ConfigurationDir = "configuration"
	MaterialDir      = "material"
)

// Values maps a named dimension or position attribute to its value in
// millimetres (or a plain count).
type Values map[string]float64

// ParameterSet is the merged parameter file of one build configuration.
type ParameterSet struct {
	Boat          string `json:"boat"`
	Configuration string `json:"configuration"`
	Values        Values `json:"values"`
}

// Keys returns the parameter names in sorted order.
func (ps *ParameterSet) Keys() []string {
	keys := make([]string, 0, len(ps.Values))
	for k := range ps.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a parameter and whether it is set.
func (ps *ParameterSet) Get(name string) (float64, bool) {
	v, ok := ps.Values[name]
	return v, ok
}

// BoatPath returns the path of a boat constant file.
func BoatPath(root, boat string) string {
	return filepath.Join(root, BoatDir, boat+".json")
}

// ConfigurationPath returns the path of a configuration constant file.
func ConfigurationPath(root, config string) string {
	return filepath.Join(root, ConfigurationDir, config+".json")
}

// MaterialPath returns the path of a material table file.
func MaterialPath(root, set string) string {
	return filepath.Join(root, MaterialDir, set+".json")
}

// LoadValues reads a flat JSON object of numeric parameters.
func LoadValues(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	return ParseValues(data)
}

// ParseValues decodes a flat JSON object of numeric parameters. Keys whose
// value is not a number are rejected by name.
func ParseValues(data []byte) (Values, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse parameters: %w", err)
	}
	vals := make(Values, len(raw))
	for k, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return nil, fmt.Errorf("parse parameters: %q is not a number", k)
		}
		vals[k] = f
	}
	return vals, nil
}

// Merge combines boat and configuration values. Configuration keys win.
func Merge(boat, config Values) Values {
	out := make(Values, len(boat)+len(config))
	for k, v := range boat {
		out[k] = v
	}
	for k, v := range config {
		out[k] = v
	}
	return out
}

// Build loads the boat and configuration constants below root and returns
// the merged, validated parameter set.
func Build(root, boat, config string) (*ParameterSet, error) {
	bv, err := LoadValues(BoatPath(root, boat))
	if err != nil {
		return nil, fmt.Errorf("boat %s: %w", boat, err)
	}
	cv, err := LoadValues(ConfigurationPath(root, config))
	if err != nil {
		return nil, fmt.Errorf("configuration %s: %w", config, err)
	}
	ps := &ParameterSet{Boat: boat, Configuration: config, Values: Merge(bv, cv)}
	if _, err := ps.Dimensions(); err != nil {
		return nil, err
	}
	return ps, nil
}

// Load reads a parameter file written by Save.
func Load(path string) (*ParameterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}
	var ps ParameterSet
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("parse parameter file %s: %w", path, err)
	}
	if ps.Values == nil {
		ps.Values = Values{}
	}
	return &ps, nil
}

// Save writes the parameter set as indented JSON.
func Save(path string, ps *ParameterSet) error {
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("encode parameter file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parameter dir: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
