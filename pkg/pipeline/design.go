package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/document"
	"github.com/chazu/hullform/pkg/engine"
	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/params"
)

// ErrDesignInvalid is returned when the evaluated design fails validation.
var ErrDesignInvalid = errors.New("pipeline: design is invalid")

// designLabel is the document label of a boat/config design.
func designLabel(boat, config string) string {
	return boat + "." + config
}

// source returns the design script text.
func (j *job) source() (string, error) {
	if j.ScriptPath == "" {
		return engine.DefaultScript, nil
	}
	data, err := os.ReadFile(j.ScriptPath)
	if err != nil {
		return "", fmt.Errorf("read design script: %w", err)
	}
	return string(data), nil
}

// buildDesign evaluates the design script against the parameter file and
// saves the validated graph.
func buildDesign(ctx context.Context, j *job, out string) error {
	logger := ctxlog.FromContext(ctx)

	stage, _ := LookupStage(j.stages(), "parameter")
	ps, err := params.Load(j.Artifact(stage, j.boat, j.config))
	if err != nil {
		return err
	}
	src, err := j.source()
	if err != nil {
		return err
	}

	eng := j.Engine
	if eng == nil {
		eng = engine.NewEngine()
	}
	g, evalErrs, err := eng.Evaluate(ctx, src, ps)
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		msgs := make([]string, len(evalErrs))
		for i, e := range evalErrs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("design script: %s", strings.Join(msgs, "; "))
	}

	res := graph.ValidateAll(g)
	for _, w := range res.Warnings {
		logger.Warn("design warning", "node", w.NodeID.Short(), "message", w.Message)
	}
	if !res.OK() {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = e
		}
		return fmt.Errorf("%w: %w", ErrDesignInvalid, errors.Join(errs...))
	}

	doc := document.New(designLabel(j.boat, j.config), g)
	doc.Properties["boat"] = j.boat
	doc.Properties["configuration"] = j.config
	if err := document.Save(out, doc); err != nil {
		return err
	}
	logger.Info("design saved", "nodes", g.NodeCount(), "solids", len(g.Solids()), "path", out)
	return nil
}
