package pipeline

import (
	"context"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/document"
	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/params"
)

// openUpstream opens the artifact of the named upstream stage.
func (j *job) openUpstream(name string) (*document.Document, error) {
	stage, err := LookupStage(j.stages(), name)
	if err != nil {
		return nil, err
	}
	return document.Open(j.Artifact(stage, j.boat, j.config))
}

func (j *job) materials() (params.MaterialTable, error) {
	return params.LoadMaterials(params.MaterialPath(j.ConstantsDir, j.MaterialSet))
}

// Colorize sets every solid's color from its material. Solids without a
// known material keep their color and are returned by name.
func Colorize(g *graph.DesignGraph, mt params.MaterialTable) (unknown []string) {
	for _, n := range g.Solids() {
		m, err := mt.Lookup(graph.MaterialOf(n))
		if err != nil {
			unknown = append(unknown, n.Name)
			continue
		}
		n.Color = m.Color
	}
	return unknown
}

// buildColor writes the design with material colors applied.
func buildColor(ctx context.Context, j *job, out string) error {
	logger := ctxlog.FromContext(ctx)

	mt, err := j.materials()
	if err != nil {
		return err
	}
	doc, err := j.openUpstream("design")
	if err != nil {
		return err
	}
	defer doc.Close()

	for _, name := range Colorize(doc.Graph, mt) {
		logger.Warn("no material color", "part", name)
	}
	doc.Properties["material_set"] = j.MaterialSet
	return document.Save(out, doc)
}
