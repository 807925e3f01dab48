package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/hullform/pkg/render"
)

// renderDir is the directory holding every view of a boat/config.
func (j *job) renderDir() string {
	return filepath.Join(j.BuildDir, j.boat+"."+j.config+".render")
}

// buildRender exports all views of the colored model and copies the
// isometric view to out.
func buildRender(ctx context.Context, j *job, out string) error {
	stage, err := LookupStage(j.stages(), "color")
	if err != nil {
		return err
	}
	in := j.Artifact(stage, j.boat, j.config)
	if _, err := render.Export(ctx, in, j.renderDir()); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return copyFile(filepath.Join(j.renderDir(), render.OutputName(base, render.Isometric)), out)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	o, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(o, in); err != nil {
		o.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return o.Close()
}
