package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/params"
	"github.com/chazu/hullform/pkg/tessellate"
)

// PartMass is one solid of a mass report.
type PartMass struct {
	Name     string     `json:"name"`
	Label    string     `json:"label,omitempty"`
	Material string     `json:"material"`
	Volume   float64    `json:"volume_mm3"`
	Mass     float64    `json:"mass_kg"`
	Centroid graph.Vec3 `json:"centroid"`
}

// MassReport is the mass stage's artifact.
type MassReport struct {
	Boat          string             `json:"boat"`
	Configuration string             `json:"configuration"`
	Parts         []PartMass         `json:"parts"`
	ByLabel       map[string]float64 `json:"mass_by_label_kg"`
	TotalMass     float64            `json:"total_mass_kg"`
	CenterOfMass  graph.Vec3         `json:"center_of_mass"`
}

// ComputeMass weighs every solid of g. All solids count, hidden or not.
func ComputeMass(g *graph.DesignGraph, mt params.MaterialTable) (*MassReport, error) {
	vols, err := tessellate.Volumes(g)
	if err != nil {
		return nil, err
	}
	rep := &MassReport{ByLabel: map[string]float64{}}
	var moment graph.Vec3
	for _, v := range vols {
		name := graph.MaterialOf(v.Node)
		m, err := mt.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", v.Node.Name, err)
		}
		pm := PartMass{
			Name:     v.Node.Name,
			Label:    g.Label(v.Node),
			Material: name,
			Volume:   v.Volume,
			Mass:     m.Mass(v.Volume),
			Centroid: v.Centroid,
		}
		rep.Parts = append(rep.Parts, pm)
		rep.ByLabel[lo.Ternary(pm.Label == "", pm.Name, pm.Label)] += pm.Mass
		rep.TotalMass += pm.Mass
		moment = moment.Add(v.Centroid.Scale(pm.Mass))
	}
	if rep.TotalMass > 0 {
		rep.CenterOfMass = moment.Scale(1 / rep.TotalMass)
	}
	return rep, nil
}

// buildMass writes the mass report of the design.
func buildMass(ctx context.Context, j *job, out string) error {
	mt, err := j.materials()
	if err != nil {
		return err
	}
	doc, err := j.openUpstream("design")
	if err != nil {
		return err
	}
	defer doc.Close()

	rep, err := ComputeMass(doc.Graph, mt)
	if err != nil {
		return err
	}
	rep.Boat, rep.Configuration = j.boat, j.config

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mass report: %w", err)
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("mass computed",
		"parts", len(rep.Parts), "total_kg", rep.TotalMass, "center_of_mass", rep.CenterOfMass.String())
	return nil
}
