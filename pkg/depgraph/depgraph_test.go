package depgraph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/chazu/hullform/pkg/pipeline"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const wantDOT = `digraph MakefileDependencies {
    rankdir=LR;
    node [shape=box, style="rounded,filled", fontname="Helvetica"];
    edge [fontname="Helvetica", fontsize=10];

    // Input files (constants)
    subgraph cluster_inputs {
        label="Constants";
        style=dashed;
        color=gray;
        boat_json [label="constant/boat/*.json", fillcolor="#c7ceea"];
        configuration_json [label="constant/configuration/*.json", fillcolor="#c7ceea"];
        material_json [label="constant/material/*.json", fillcolor="#c7ceea"];
    }

    // Processing stages
    subgraph cluster_stages {
        label="Stages (src/*)";
        style=dashed;
        color=gray;
        parameter [label="parameter\n{boat}.{config}.parameter.json", fillcolor="#a8e6cf"];
        design [label="design\n{boat}.{config}.design.FCStd", fillcolor="#dcedc1"];
        color [label="color\n{boat}.{config}.color.FCStd", fillcolor="#ffd3b6"];
        mass [label="mass\n{boat}.{config}.mass.json", fillcolor="#ffaaa5"];
        render [label="render\n{boat}.{config}.render.png", fillcolor="#ff8b94"];
        step [label="step\n{boat}.{config}.step.step", fillcolor="#b5ead7"];
    }

    // Dependencies
    boat_json -> parameter;
    configuration_json -> parameter;
    parameter -> design;
    design -> color;
    material_json -> color;
    design -> mass;
    material_json -> mass;
    color -> render;
    design -> step;

    // Legend
    subgraph cluster_legend {
        label="Legend";
        style=solid;
        color=black;
        legend_input [label="Input (JSON)", fillcolor="#c7ceea"];
        legend_stage [label="Stage", fillcolor="#a8e6cf"];
        legend_input -> legend_stage [style=invis];
    }
}`

func TestGenerateMatchesLayout(t *testing.T) {
	got := Generate(pipeline.Stages, pipeline.Inputs)
	if got != wantDOT {
		gl, wl := strings.Split(got, "\n"), strings.Split(wantDOT, "\n")
		for i := 0; i < len(gl) && i < len(wl); i++ {
			if gl[i] != wl[i] {
				t.Fatalf("line %d:\n got %q\nwant %q", i+1, gl[i], wl[i])
			}
		}
		t.Fatalf("got %d lines, want %d", len(gl), len(wl))
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("DOT text must not end with a newline")
	}
}

var (
	nodeDecl = regexp.MustCompile(`^\s+(\w+) \[label=`)
	edgeDecl = regexp.MustCompile(`^\s+(\w+) -> (\w+)`)
)

// randomTable builds a valid table: stage i may depend on any input and on
// stages before it.
func randomTable(nInputs int, deps [][]bool) ([]pipeline.Stage, []pipeline.Input) {
	inputs := make([]pipeline.Input, nInputs)
	for i := range inputs {
		inputs[i] = pipeline.Input{Name: fmt.Sprintf("in%d.json", i), Label: "constant/*.json", Color: "#c7ceea"}
	}
	stages := make([]pipeline.Stage, len(deps))
	for i := range stages {
		s := pipeline.Stage{Name: fmt.Sprintf("s%d", i), Artifact: "{boat}.x", Color: "#a8e6cf"}
		for j, on := range deps[i] {
			if !on {
				continue
			}
			if j < nInputs {
				s.DependsOn = append(s.DependsOn, inputs[j].Name)
			} else if k := j - nInputs; k < i {
				s.DependsOn = append(s.DependsOn, stages[k].Name)
			}
		}
		stages[i] = s
	}
	return stages, inputs
}

func TestGenerateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	depsGen := gen.SliceOfN(6, gen.SliceOfN(9, gen.Bool()))

	properties.Property("output is deterministic", prop.ForAll(
		func(deps [][]bool) bool {
			stages, inputs := randomTable(3, deps)
			return Generate(stages, inputs) == Generate(stages, inputs)
		},
		depsGen,
	))

	properties.Property("every edge joins declared nodes", prop.ForAll(
		func(deps [][]bool) bool {
			stages, inputs := randomTable(3, deps)
			if pipeline.ValidateTable(stages, inputs) != nil {
				return false
			}
			declared := map[string]bool{}
			var edges [][2]string
			for _, line := range strings.Split(Generate(stages, inputs), "\n") {
				if m := nodeDecl.FindStringSubmatch(line); m != nil {
					declared[m[1]] = true
				}
				if m := edgeDecl.FindStringSubmatch(line); m != nil {
					edges = append(edges, [2]string{m[1], m[2]})
				}
			}
			for _, e := range edges {
				if !declared[e[0]] || !declared[e[1]] {
					return false
				}
			}
			return true
		},
		depsGen,
	))

	properties.Property("one edge per dependency", prop.ForAll(
		func(deps [][]bool) bool {
			stages, inputs := randomTable(3, deps)
			want := 1 // legend
			for _, s := range stages {
				want += len(s.DependsOn)
			}
			return strings.Count(Generate(stages, inputs), " -> ") == want
		},
		depsGen,
	))

	properties.TestingRun(t)
}

func TestRenderPNGWithoutDot(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	err := RenderPNG(context.Background(), wantDOT, filepath.Join(t.TempDir(), "g.png"))
	if !errors.Is(err, ErrDotNotFound) {
		t.Fatalf("err = %v, want ErrDotNotFound", err)
	}
}

func TestRenderPNGFailure(t *testing.T) {
	// A stand-in dot that complains and exits non-zero.
	dir := t.TempDir()
	script := "#!/bin/sh\necho 'syntax error in line 1' >&2\nexit 2\n"
	if err := os.WriteFile(filepath.Join(dir, "dot"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	err := RenderPNG(context.Background(), "not dot", filepath.Join(dir, "g.png"))
	var dotErr *DotError
	if !errors.As(err, &dotErr) {
		t.Fatalf("err = %v, want *DotError", err)
	}
	if !strings.Contains(dotErr.Stderr, "syntax error in line 1") {
		t.Errorf("stderr = %q", dotErr.Stderr)
	}
}

func TestRenderPNG(t *testing.T) {
	if _, err := exec.LookPath("dot"); err != nil {
		t.Skip("graphviz not installed")
	}
	out := filepath.Join(t.TempDir(), "g.png")
	if err := RenderPNG(context.Background(), wantDOT, out); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Fatalf("no output: %v", err)
	}
}
