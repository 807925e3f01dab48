package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/stepexport"
	"github.com/chazu/hullform/pkg/tessellate"
)

// buildStep writes the design's visible solids as a faceted STEP file.
func buildStep(ctx context.Context, j *job, out string) error {
	doc, err := j.openUpstream("design")
	if err != nil {
		return err
	}
	defer doc.Close()

	meshes, err := tessellate.Facets(doc.Graph)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
	if err := stepexport.WriteFile(out, meshes, stepexport.Options{Name: name, Schema: j.StepSchema}); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("step written", "solids", len(meshes), "path", out)
	return nil
}
