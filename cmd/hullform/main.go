// Command hullform builds, lists, exports and publishes boat design
// artifacts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chazu/hullform/pkg/cli"
	"github.com/chazu/hullform/pkg/config"
	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/document"
	"github.com/chazu/hullform/pkg/engine"
	"github.com/chazu/hullform/pkg/kernel/sdfx"
	"github.com/chazu/hullform/pkg/metrics"
	"github.com/chazu/hullform/pkg/pipeline"
	"github.com/chazu/hullform/pkg/publish"
	"github.com/chazu/hullform/pkg/stepexport"
	"github.com/chazu/hullform/pkg/tessellate"
)

const usage = `hullform - parametric boat design pipeline

Usage:
  hullform build [options] BOAT CONFIG
  hullform stages
  hullform publish [options] BOAT CONFIG
  hullform export [options] DESIGN.FCStd

Run 'hullform COMMAND -h' for the options of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run dispatches a subcommand. Results go to out, logs to logW.
func run(ctx context.Context, out, logW io.Writer, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return &cli.ExitError{Code: 2}
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "build":
		return runBuild(ctx, out, logW, rest)
	case "stages":
		return runStages(out)
	case "publish":
		return runPublish(ctx, out, logW, rest)
	case "export":
		return runExport(ctx, out, logW, rest)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(out, usage)
		return nil
	}
	return cli.Exitf(2, "unknown command %q\n\n%s", cmd, strings.TrimSpace(usage))
}

// common holds the flags every subcommand accepts.
type common struct {
	configPath string
	logFormat  string
	logLevel   string
}

func commonFlags(fs *flag.FlagSet) *common {
	c := &common{}
	fs.StringVar(&c.configPath, "config", config.FileName, "Path to the build configuration.")
	fs.StringVar(&c.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&c.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	return c
}

// parse parses a subcommand's flags. It returns errHelp after printing
// usage for -h.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}
	return nil
}

var errHelp = errors.New("help requested")

// setup loads the configuration and installs the logger in ctx. The
// default configuration file may be absent; an explicit one may not.
func (c *common) setup(ctx context.Context, logW io.Writer) (context.Context, config.Config, error) {
	logger, err := cli.NewLogger(logW, c.logFormat, c.logLevel)
	if err != nil {
		return ctx, config.Config{}, err
	}
	cfg, err := config.Load(c.configPath, c.configPath == config.FileName)
	if err != nil {
		return ctx, cfg, cli.Exitf(1, "%v", err)
	}
	return ctxlog.WithLogger(ctx, logger), cfg, nil
}

func newRunner(cfg config.Config) *pipeline.Runner {
	r := pipeline.NewRunner(cfg.ConstantsDir, cfg.BuildDir)
	r.MaterialSet = cfg.MaterialSet
	r.ScriptPath = cfg.DesignScript
	r.StepSchema = cfg.Step.Schema
	r.Engine = engine.NewEngine(
		engine.WithTimeout(cfg.EvalTimeout),
		engine.WithKernel(sdfx.New(sdfx.WithMeshCells(cfg.Kernel.MeshCells))),
	)
	return r
}

func boatAndConfig(fs *flag.FlagSet) (string, string, error) {
	if fs.NArg() != 2 {
		return "", "", cli.Exitf(2, "%s: want BOAT CONFIG, got %d arguments", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), fs.Arg(1), nil
}

func runBuild(ctx context.Context, out, logW io.Writer, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(out)
	c := commonFlags(fs)
	stage := fs.String("stage", "", "Build only this stage and its dependencies. Empty builds every stage.")
	material := fs.String("material", "", "Material set under constant/material (overrides the configuration).")
	force := fs.Bool("force", false, "Rebuild stages even when their artifacts are up to date.")
	if err := parse(fs, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}
	boat, cfgName, err := boatAndConfig(fs)
	if err != nil {
		return err
	}
	ctx, cfg, err := c.setup(ctx, logW)
	if err != nil {
		return err
	}

	r := newRunner(cfg)
	r.Force = *force
	if *material != "" {
		r.MaterialSet = *material
	}
	reg := metrics.NewRegistry()
	r.Metrics = reg

	targets := pipeline.Targets(pipeline.Stages)
	if *stage != "" {
		targets = []string{*stage}
	}

	var results []pipeline.Result
	var buildErr error
	for _, target := range targets {
		res, err := r.Build(ctx, boat, cfgName, target)
		results = append(results, res...)
		if err != nil {
			buildErr = err
			break
		}
	}
	if buildErr == nil {
		reg.Built(boat, cfgName, time.Now())
	}
	if cfg.Metrics.Textfile != "" {
		if err := reg.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			ctxlog.FromContext(ctx).Warn("cannot write metrics", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	printResults(out, results)
	if buildErr != nil {
		if errors.Is(buildErr, pipeline.ErrUnknownStage) {
			return cli.Exitf(2, "%v", buildErr)
		}
		return cli.Exitf(1, "build failed: %v", buildErr)
	}
	return nil
}

// printResults lists each stage once, in the order it was first reached.
func printResults(out io.Writer, results []pipeline.Result) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Stage] {
			continue
		}
		seen[r.Stage] = true
		status := "up to date"
		if !r.Skipped {
			status = r.Duration.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Stage, r.Artifact, status)
	}
	tw.Flush()
}

func runStages(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tARTIFACT\tDEPENDS ON")
	for _, s := range pipeline.Stages {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Artifact, strings.Join(s.DependsOn, ", "))
	}
	return tw.Flush()
}

func runPublish(ctx context.Context, out, logW io.Writer, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.SetOutput(out)
	c := commonFlags(fs)
	bucket := fs.String("bucket", "", "S3 bucket (overrides the configuration).")
	prefix := fs.String("prefix", "", "Key prefix (overrides the configuration).")
	if err := parse(fs, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}
	boat, cfgName, err := boatAndConfig(fs)
	if err != nil {
		return err
	}
	ctx, cfg, err := c.setup(ctx, logW)
	if err != nil {
		return err
	}

	target := publish.Target{Bucket: cfg.Publish.Bucket, Prefix: cfg.Publish.Prefix}
	if *bucket != "" {
		target.Bucket = *bucket
	}
	if *prefix != "" {
		target.Prefix = *prefix
	}
	if target.Bucket == "" {
		return cli.Exitf(2, "publish: no bucket; set publish.bucket or pass -bucket")
	}

	r := newRunner(cfg)
	files := r.Artifacts(boat, cfgName)
	views, _ := filepath.Glob(filepath.Join(cfg.BuildDir, boat+"."+cfgName+".render", "*.png"))
	files = append(files, views...)

	client, err := publish.NewClient(ctx, cfg.Publish.Region)
	if err != nil {
		return err
	}
	keys, err := publish.Publish(ctx, client, target, files)
	for _, k := range keys {
		fmt.Fprintf(out, "s3://%s/%s\n", target.Bucket, k)
	}
	return err
}

func runExport(ctx context.Context, out, logW io.Writer, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(out)
	c := commonFlags(fs)
	format := fs.String("format", "step", "Output format. Options: 'stl' or 'step'.")
	output := fs.String("o", "", "Output file. Defaults to the document name with the format's extension.")
	if err := parse(fs, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		return cli.Exitf(2, "export: want one DESIGN.FCStd argument, got %d", fs.NArg())
	}
	in := fs.Arg(0)
	if *format != "stl" && *format != "step" {
		return cli.Exitf(2, "export: invalid format %q: must be 'stl' or 'step'", *format)
	}
	ctx, cfg, err := c.setup(ctx, logW)
	if err != nil {
		return err
	}
	dst := *output
	if dst == "" {
		dst = strings.TrimSuffix(in, filepath.Ext(in)) + "." + *format
	}

	doc, err := document.Open(in)
	if err != nil {
		return err
	}
	defer doc.Close()

	switch *format {
	case "step":
		meshes, err := tessellate.Facets(doc.Graph)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(dst), filepath.Ext(dst))
		if err := stepexport.WriteFile(dst, meshes, stepexport.Options{Name: name, Schema: cfg.Step.Schema}); err != nil {
			return err
		}
	case "stl":
		k := sdfx.New(sdfx.WithMeshCells(cfg.Kernel.MeshCells))
		s, err := tessellate.GraphSolid(doc.Graph, k)
		if err != nil {
			return err
		}
		if err := k.WriteSTL(s, dst); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Info("exported", "format", *format, "path", dst)
	fmt.Fprintln(out, dst)
	return nil
}
