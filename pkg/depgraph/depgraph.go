// Package depgraph draws the pipeline's stage table as a Graphviz graph.
package depgraph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/chazu/hullform/pkg/pipeline"
)

// ErrDotNotFound is returned when the Graphviz dot binary is not on PATH.
var ErrDotNotFound = errors.New("depgraph: 'dot' (graphviz) not found")

// DefaultOutput is where the rendered graph goes when no path is given.
const DefaultOutput = "docs/dependency_graph.png"

// Generate returns the DOT text for the stage table. Inputs and stages are
// drawn in separate clusters; edges follow stage order, then dependency
// order. The text has no trailing newline.
func Generate(stages []pipeline.Stage, inputs []pipeline.Input) string {
	lines := []string{
		"digraph MakefileDependencies {",
		"    rankdir=LR;",
		`    node [shape=box, style="rounded,filled", fontname="Helvetica"];`,
		`    edge [fontname="Helvetica", fontsize=10];`,
		"",
		"    // Input files (constants)",
		"    subgraph cluster_inputs {",
		`        label="Constants";`,
		"        style=dashed;",
		"        color=gray;",
	}

	for _, in := range inputs {
		lines = append(lines, fmt.Sprintf(`        %s [label="%s", fillcolor="%s"];`, nodeID(in.Name), in.Label, in.Color))
	}

	lines = append(lines,
		"    }",
		"",
		"    // Processing stages",
		"    subgraph cluster_stages {",
		`        label="Stages (src/*)";`,
		"        style=dashed;",
		"        color=gray;",
	)

	for _, s := range stages {
		lines = append(lines, fmt.Sprintf(`        %s [label="%s\n%s", fillcolor="%s"];`, s.Name, s.Name, s.Artifact, s.Color))
	}

	lines = append(lines,
		"    }",
		"",
		"    // Dependencies",
	)

	for _, s := range stages {
		for _, dep := range s.DependsOn {
			lines = append(lines, fmt.Sprintf("    %s -> %s;", nodeID(dep), s.Name))
		}
	}

	lines = append(lines,
		"",
		"    // Legend",
		"    subgraph cluster_legend {",
		`        label="Legend";`,
		"        style=solid;",
		"        color=black;",
		`        legend_input [label="Input (JSON)", fillcolor="#c7ceea"];`,
		`        legend_stage [label="Stage", fillcolor="#a8e6cf"];`,
		"        legend_input -> legend_stage [style=invis];",
		"    }",
		"}",
	)

	return strings.Join(lines, "\n")
}

// nodeID turns a file name into a DOT identifier.
func nodeID(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// RenderPNG pipes dot text into `dot -Tpng -o out`. It returns
// ErrDotNotFound when dot is not installed and a *DotError when it fails.
func RenderPNG(ctx context.Context, dot, out string) error {
	bin, err := exec.LookPath("dot")
	if err != nil {
		return ErrDotNotFound
	}

	cmd := exec.CommandContext(ctx, bin, "-Tpng", "-o", out)
	cmd.Stdin = strings.NewReader(dot)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() == 0 {
			return &DotError{Stderr: err.Error(), err: err}
		}
		return &DotError{Stderr: stderr.String(), err: err}
	}
	return nil
}

// DotError reports a failed dot run. Stderr is dot's own output.
type DotError struct {
	Stderr string
	err    error
}

func (e *DotError) Error() string { return e.Stderr }

func (e *DotError) Unwrap() error { return e.err }
