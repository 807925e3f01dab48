package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Stage is one build target of the pipeline. Artifact is a file name
// template over {boat} and {config}.
type Stage struct {
	Name      string
	Artifact  string
	DependsOn []string // stage or input names
	Color     string   // dependency graph fill color
}

// Input is a family of constant files a stage may depend on.
type Input struct {
	Name  string
	Label string
	Color string
}

// Stages is the pipeline, in a valid build order.
var Stages = []Stage{
	{Name: "parameter", Artifact: "{boat}.{config}.parameter.json", DependsOn: []string{"boat.json", "configuration.json"}, Color: "#a8e6cf"},
	{Name: "design", Artifact: "{boat}.{config}.design.FCStd", DependsOn: []string{"parameter"}, Color: "#dcedc1"},
	{Name: "color", Artifact: "{boat}.{config}.color.FCStd", DependsOn: []string{"design", "material.json"}, Color: "#ffd3b6"},
	{Name: "mass", Artifact: "{boat}.{config}.mass.json", DependsOn: []string{"design", "material.json"}, Color: "#ffaaa5"},
	{Name: "render", Artifact: "{boat}.{config}.render.png", DependsOn: []string{"color"}, Color: "#ff8b94"},
	{Name: "step", Artifact: "{boat}.{config}.step.step", DependsOn: []string{"design"}, Color: "#b5ead7"},
}

// Inputs are the constant file families.
var Inputs = []Input{
	{Name: "boat.json", Label: "constant/boat/*.json", Color: "#c7ceea"},
	{Name: "configuration.json", Label: "constant/configuration/*.json", Color: "#c7ceea"},
	{Name: "material.json", Label: "constant/material/*.json", Color: "#c7ceea"},
}

// ErrUnknownStage is returned for a stage name missing from the table.
var ErrUnknownStage = errors.New("pipeline: unknown stage")

// ErrInvalidTable is returned by ValidateTable.
var ErrInvalidTable = errors.New("pipeline: invalid stage table")

// ArtifactName expands the stage's artifact template.
func ArtifactName(s Stage, boat, config string) string {
	return strings.NewReplacer("{boat}", boat, "{config}", config).Replace(s.Artifact)
}

// LookupStage finds a stage by name.
func LookupStage(stages []Stage, name string) (Stage, error) {
	for _, s := range stages {
		if s.Name == name {
			return s, nil
		}
	}
	return Stage{}, fmt.Errorf("%w %q", ErrUnknownStage, name)
}

// ValidateTable checks that names are unique, every dependency names an
// input or a stage, and the stages form a DAG.
func ValidateTable(stages []Stage, inputs []Input) error {
	var errs []error
	known := make(map[string]bool)
	for _, in := range inputs {
		if known[in.Name] {
			errs = append(errs, fmt.Errorf("duplicate input %q", in.Name))
		}
		known[in.Name] = true
	}
	byName := make(map[string]Stage)
	for _, s := range stages {
		if known[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate stage %q", s.Name))
		}
		known[s.Name] = true
		byName[s.Name] = s
	}
	for _, s := range stages {
		for _, dep := range s.DependsOn {
			if !known[dep] {
				errs = append(errs, fmt.Errorf("stage %q depends on unknown %q", s.Name, dep))
			}
		}
	}

	// Three-color DFS over stage-to-stage edges.
	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int)
	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		switch state[name] {
		case grey:
			errs = append(errs, fmt.Errorf("cycle: %s -> %s", strings.Join(path, " -> "), name))
			return
		case black:
			return
		}
		state[name] = grey
		for _, dep := range byName[name].DependsOn {
			if _, ok := byName[dep]; ok {
				visit(dep, append(path, name))
			}
		}
		state[name] = black
	}
	for _, s := range stages {
		visit(s.Name, nil)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTable, errors.Join(errs...))
	}
	return nil
}

// Plan returns target and every stage it depends on, dependencies first.
func Plan(stages []Stage, target string) ([]Stage, error) {
	byName := make(map[string]Stage, len(stages))
	for _, s := range stages {
		byName[s.Name] = s
	}
	if _, ok := byName[target]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStage, target)
	}

	var order []Stage
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		s := byName[name]
		for _, dep := range s.DependsOn {
			if _, ok := byName[dep]; ok {
				visit(dep)
			}
		}
		order = append(order, s)
	}
	visit(target)
	return order, nil
}

// Targets returns the stages nothing else depends on, in table order.
// Building all of them builds the whole table.
func Targets(stages []Stage) []string {
	used := make(map[string]bool)
	for _, s := range stages {
		for _, dep := range s.DependsOn {
			used[dep] = true
		}
	}
	var out []string
	for _, s := range stages {
		if !used[s.Name] {
			out = append(out, s.Name)
		}
	}
	return out
}

// InputDeps returns the input names a stage depends on directly.
func InputDeps(s Stage, inputs []Input) []string {
	var out []string
	for _, dep := range s.DependsOn {
		for _, in := range inputs {
			if in.Name == dep {
				out = append(out, dep)
			}
		}
	}
	return out
}
