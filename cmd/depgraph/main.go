// Command depgraph draws the build pipeline's stage dependencies.
//
// Usage:
//
//	depgraph --dot       print the DOT text
//	depgraph [OUT.png]   render with Graphviz (default docs/dependency_graph.png)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/hullform/pkg/cli"
	"github.com/chazu/hullform/pkg/depgraph"
	"github.com/chazu/hullform/pkg/pipeline"
)

// Stage table drawn by run.
var (
	stages = pipeline.Stages
	inputs = pipeline.Inputs
)

func main() {
	if err := run(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, args []string) error {
	if err := pipeline.ValidateTable(stages, inputs); err != nil {
		return cli.Exitf(1, "Error: %v", err)
	}
	dot := depgraph.Generate(stages, inputs)

	if len(args) > 0 && args[0] == "--dot" {
		_, err := fmt.Fprintln(out, dot)
		return err
	}

	output := depgraph.DefaultOutput
	if len(args) > 0 {
		output = args[0]
	}

	err := depgraph.RenderPNG(ctx, dot, output)
	var dotErr *depgraph.DotError
	switch {
	case errors.Is(err, depgraph.ErrDotNotFound):
		return &cli.ExitError{Code: 1, Message: "Error: 'dot' (graphviz) not found. Install with:\n" +
			"  brew install graphviz  # macOS\n" +
			"  apt install graphviz   # Linux"}
	case errors.As(err, &dotErr):
		return cli.Exitf(1, "Error running dot: %s", dotErr.Stderr)
	case err != nil:
		return err
	}
	fmt.Fprintf(out, "✓ Generated %s\n", output)
	return nil
}
