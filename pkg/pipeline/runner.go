package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/engine"
	"github.com/chazu/hullform/pkg/params"
	"github.com/chazu/hullform/pkg/stepexport"
)

// Recorder receives per-stage outcomes. metrics.Registry implements it.
type Recorder interface {
	Ran(stage string, d time.Duration)
	Skipped(stage string)
	Failed(stage string)
}

// Runner builds stage artifacts for one constants tree.
type Runner struct {
	ConstantsDir string
	BuildDir     string
	MaterialSet  string // constant/material/{MaterialSet}.json
	ScriptPath   string // design script; empty uses engine.DefaultScript
	StepSchema   string
	Force        bool // rebuild even when artifacts are up to date

	// Stage table; nil uses the package tables.
	Stages []Stage
	Inputs []Input

	Engine  *engine.Engine
	Metrics Recorder
}

// NewRunner returns a runner with the default layout.
func NewRunner(constantsDir, buildDir string) *Runner {
	return &Runner{
		ConstantsDir: constantsDir,
		BuildDir:     buildDir,
		MaterialSet:  "default",
		StepSchema:   stepexport.SchemaAP214,
		Engine:       engine.NewEngine(),
	}
}

// Result is the outcome of one stage of a build.
type Result struct {
	Stage    string
	Artifact string
	Skipped  bool
	Duration time.Duration
}

// job is the state shared by the stages of one build.
type job struct {
	*Runner
	boat, config string
}

// stageFunc produces the stage's artifact at out.
type stageFunc func(ctx context.Context, j *job, out string) error

var builders = map[string]stageFunc{
	"parameter": buildParameter,
	"design":    buildDesign,
	"color":     buildColor,
	"mass":      buildMass,
	"render":    buildRender,
	"step":      buildStep,
}

func (r *Runner) stages() []Stage {
	if r.Stages == nil {
		return Stages
	}
	return r.Stages
}

func (r *Runner) inputTable() []Input {
	if r.Inputs == nil {
		return Inputs
	}
	return r.Inputs
}

// Artifact returns the build path of a stage's artifact.
func (r *Runner) Artifact(s Stage, boat, config string) string {
	return filepath.Join(r.BuildDir, ArtifactName(s, boat, config))
}

// Artifacts returns the artifact path of every stage, in table order.
func (r *Runner) Artifacts(boat, config string) []string {
	return lo.Map(r.stages(), func(s Stage, _ int) string { return r.Artifact(s, boat, config) })
}

// inputPath maps an Input name to its constant file.
func (r *Runner) inputPath(name, boat, config string) string {
	switch name {
	case "boat.json":
		return params.BoatPath(r.ConstantsDir, boat)
	case "configuration.json":
		return params.ConfigurationPath(r.ConstantsDir, config)
	case "material.json":
		return params.MaterialPath(r.ConstantsDir, r.MaterialSet)
	}
	return ""
}

// inputs lists the files a stage's artifact is derived from.
func (j *job) inputs(s Stage) []string {
	var out []string
	for _, dep := range s.DependsOn {
		if up, err := LookupStage(j.stages(), dep); err == nil {
			out = append(out, j.Artifact(up, j.boat, j.config))
			continue
		}
		if p := j.inputPath(dep, j.boat, j.config); p != "" {
			out = append(out, p)
		}
	}
	if s.Name == "design" && j.ScriptPath != "" {
		out = append(out, j.ScriptPath)
	}
	return out
}

// Build brings target and everything upstream of it up to date. A stage
// runs when its artifact is missing, older than one of its inputs, or
// when an upstream stage ran in this build. An invalid stage table fails
// the build before any stage runs.
func (r *Runner) Build(ctx context.Context, boat, config, target string) ([]Result, error) {
	logger := ctxlog.FromContext(ctx).With("boat", boat, "config", config)
	ctx = ctxlog.WithLogger(ctx, logger)

	if err := ValidateTable(r.stages(), r.inputTable()); err != nil {
		return nil, err
	}
	plan, err := Plan(r.stages(), target)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.BuildDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	j := &job{Runner: r, boat: boat, config: config}
	ran := make(map[string]bool)
	results := make([]Result, 0, len(plan))
	for _, s := range plan {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		out := r.Artifact(s, boat, config)
		build, ok := builders[s.Name]
		if !ok {
			return results, fmt.Errorf("%w %q: no builder", ErrUnknownStage, s.Name)
		}

		upstreamRan := lo.SomeBy(s.DependsOn, func(dep string) bool { return ran[dep] })
		if !r.Force && !upstreamRan {
			fresh, err := upToDate(out, j.inputs(s))
			if err != nil {
				return results, fmt.Errorf("stage %s: %w", s.Name, err)
			}
			if fresh {
				logger.Debug("stage up to date", "stage", s.Name, "artifact", out)
				r.record(func(m Recorder) { m.Skipped(s.Name) })
				results = append(results, Result{Stage: s.Name, Artifact: out, Skipped: true})
				continue
			}
		}

		logger.Info("running stage", "stage", s.Name, "artifact", out)
		start := time.Now()
		if err := build(ctx, j, out); err != nil {
			r.record(func(m Recorder) { m.Failed(s.Name) })
			return results, fmt.Errorf("stage %s: %w", s.Name, err)
		}
		d := time.Since(start)
		r.record(func(m Recorder) { m.Ran(s.Name, d) })
		ran[s.Name] = true
		results = append(results, Result{Stage: s.Name, Artifact: out, Duration: d})
	}
	return results, nil
}

func (r *Runner) record(fn func(Recorder)) {
	if r.Metrics != nil {
		fn(r.Metrics)
	}
}

// upToDate reports whether out exists and is no older than every input.
// A missing input is an error, as make reports a missing prerequisite.
func upToDate(out string, inputs []string) (bool, error) {
	ofi, err := os.Stat(out)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, in := range inputs {
		ifi, err := os.Stat(in)
		if err != nil {
			return false, fmt.Errorf("input %s: %w", in, err)
		}
		if ifi.ModTime().After(ofi.ModTime()) {
			return false, nil
		}
	}
	return true, nil
}
