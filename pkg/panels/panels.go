// Package panels lays out the solar panel grid on one side of the central
// pillar.
package panels

import (
	"fmt"

	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/params"
)

// Side selects which half of the deck a panel array covers.
type Side string

const (
	Fore Side = "fore" // +X from the pillar
	Aft  Side = "aft"  // -X from the pillar
)

// ParseSide validates a side name.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Fore, Aft:
		return Side(s), nil
	}
	return "", fmt.Errorf("panels: unknown side %q, expected fore or aft", s)
}

// Tags given to panels by grid parity.
const (
	TagSolar     = "solar"
	TagSolarDark = "solar_dark"
)

// Panel is one planned panel of the grid.
type Panel struct {
	Name   string
	I, J   int
	Tag    string
	Origin graph.Vec3 // minimum corner
}

// Layout computes the grid for one side without touching a graph:
// ⌊L/2⌋ panels along X times T panels along Y, alternating tags by the
// parity of i+j.
func Layout(side Side, d params.Dimensions) []Panel {
	nx := d.PanelsLongitudinal / 2
	ny := d.PanelsTransversal

	out := make([]Panel, 0, nx*ny)
	for i := 0; i < nx; i++ {
		var x float64
		if side == Fore {
			x = d.PillarWidth/2 + float64(i)*d.PanelLength
		} else {
			x = -(d.PillarWidth/2 + float64(i+1)*d.PanelLength)
		}
		for j := 0; j < ny; j++ {
			y := -float64(ny)*d.PanelWidth/2 + float64(j)*d.PanelWidth
			tag := TagSolarDark
			if (i+j)%2 == 0 {
				tag = TagSolar
			}
			out = append(out, Panel{
				Name:   fmt.Sprintf("%s_panel_%d_%d", side, i, j),
				I:      i,
				J:      j,
				Tag:    tag,
				Origin: graph.Vec3{X: x, Y: y, Z: d.PanelBaseLevel},
			})
		}
	}
	return out
}

// Generate adds the panel grid for side to the group groupID and returns
// the placement node IDs in creation order. Each panel is a box primitive
// labelled with its tag, wrapped in a placement named after the panel.
// Nothing is added if any panel name is already taken.
func Generate(g *graph.DesignGraph, groupID graph.NodeID, side Side, d params.Dimensions) ([]graph.NodeID, error) {
	group := g.Get(groupID)
	if group == nil || group.Kind != graph.NodeGroup {
		return nil, fmt.Errorf("panels: %s is not a group", groupID.Short())
	}
	if _, err := ParseSide(string(side)); err != nil {
		return nil, err
	}

	layout := Layout(side, d)
	for _, p := range layout {
		for _, name := range []string{p.Name, p.Name + "_Box"} {
			if g.Lookup(name) != nil {
				return nil, fmt.Errorf("panels: name %q already exists", name)
			}
		}
		if g.Get(graph.NewNodeID("panel/"+p.Name)) != nil || g.Get(graph.NewNodeID("place/"+p.Name)) != nil {
			return nil, fmt.Errorf("panels: nodes for %q already exist", p.Name)
		}
	}

	ids := make([]graph.NodeID, 0, len(layout))
	for _, p := range layout {
		boxName := p.Name + "_Box"
		box := &graph.Node{
			ID:      graph.NewNodeID("panel/" + p.Name),
			Kind:    graph.NodePrimitive,
			Name:    boxName,
			Label:   p.Tag,
			Visible: true,
			Data: graph.BoxData{
				PrimKind:   graph.PrimBox,
				Dimensions: graph.Vec3{X: d.PanelLength, Y: d.PanelWidth, Z: d.PanelHeight},
				Material:   p.Tag,
			},
		}
		at := p.Origin
		place := &graph.Node{
			ID:       graph.NewNodeID("place/" + p.Name),
			Kind:     graph.NodeTransform,
			Name:     p.Name,
			Visible:  true,
			Children: []graph.NodeID{box.ID},
			Data:     graph.TransformData{Translation: &at},
		}
		g.AddNode(box)
		g.AddNode(place)
		if err := g.AddChild(groupID, place.ID); err != nil {
			return nil, err
		}
		ids = append(ids, place.ID)
	}
	return ids, nil
}
