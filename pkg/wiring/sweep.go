// Package wiring discovers the solar panels of an assembly and routes
// power cables from each panel to a shared trunk wire.
package wiring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/hullform/pkg/graph"
)

// ErrUnsupportedProfile is returned by CreateSweep for any cross-section
// other than a circle.
var ErrUnsupportedProfile = errors.New("wiring: unsupported profile")

// ErrInvalidSweep is returned by CreateSweep for degenerate input.
var ErrInvalidSweep = errors.New("wiring: invalid sweep")

// CableMaterial is the material assigned to every sweep.
const CableMaterial = "cable"

// CreateSweep adds a round wire through vertices to the group groupID.
// Three nodes are created as group children: {name}Path holding one edge
// per consecutive vertex pair (Edge_1..Edge_n), {name}Profile holding a
// circle of radius at the first vertex facing along the first edge, and
// {name} sweeping the profile along the path as a Frenet-framed solid with
// round corners. Every check runs before the first node is created, so a
// failed call leaves the graph untouched.
func CreateSweep(g *graph.DesignGraph, groupID graph.NodeID, profile string, radius float64, vertices []graph.Vec3, name string) (graph.NodeID, error) {
	group := g.Get(groupID)
	if group == nil || group.Kind != graph.NodeGroup {
		return graph.ZeroID, fmt.Errorf("%w: %s is not a group", ErrInvalidSweep, groupID.Short())
	}
	if !strings.EqualFold(profile, graph.ProfileCircle.String()) {
		return graph.ZeroID, fmt.Errorf("%w: profile type %q is not supported", ErrUnsupportedProfile, profile)
	}
	if name == "" {
		return graph.ZeroID, fmt.Errorf("%w: empty name", ErrInvalidSweep)
	}
	if radius <= 0 {
		return graph.ZeroID, fmt.Errorf("%w: %s: radius %g must be positive", ErrInvalidSweep, name, radius)
	}
	if len(vertices) < 2 {
		return graph.ZeroID, fmt.Errorf("%w: %s: %d vertices, need at least 2", ErrInvalidSweep, name, len(vertices))
	}

	pathName, profileName := name+"Path", name+"Profile"
	for _, n := range []string{name, pathName, profileName} {
		if g.Lookup(n) != nil {
			return graph.ZeroID, fmt.Errorf("%w: name %q already exists", ErrInvalidSweep, n)
		}
	}

	edges := make([]graph.Edge, 0, len(vertices)-1)
	for i := 0; i+1 < len(vertices); i++ {
		e := graph.Edge{
			Name:  fmt.Sprintf("Edge_%d", i+1),
			Start: vertices[i],
			End:   vertices[i+1],
		}
		if e.Length() == 0 {
			return graph.ZeroID, fmt.Errorf("%w: %s: %s has zero length", ErrInvalidSweep, name, e.Name)
		}
		edges = append(edges, e)
	}

	path := &graph.Node{
		ID:   graph.NewNodeID("sweep/" + pathName),
		Kind: graph.NodePath,
		Name: pathName,
		Data: graph.PathData{Edges: edges},
	}
	prof := &graph.Node{
		ID:   graph.NewNodeID("sweep/" + profileName),
		Kind: graph.NodeProfile,
		Name: profileName,
		Data: graph.ProfileData{
			Kind:   graph.ProfileCircle,
			Radius: radius,
			Center: edges[0].Start,
			Normal: edges[0].Tangent(),
		},
	}
	spineEdges := make([]string, len(edges))
	for i, e := range edges {
		spineEdges[i] = e.Name
	}
	sweep := &graph.Node{
		ID:      graph.NewNodeID("sweep/" + name),
		Kind:    graph.NodeSweep,
		Name:    name,
		Visible: true,
		Data: graph.SweepData{
			Sections:   []graph.NodeID{prof.ID},
			Spine:      path.ID,
			SpineEdges: spineEdges,
			Solid:      true,
			Frenet:     true,
			Transition: graph.TransitionRoundCorner,
			Material:   CableMaterial,
		},
	}

	for _, n := range []*graph.Node{path, prof, sweep} {
		g.AddNode(n)
		if err := g.AddChild(groupID, n.ID); err != nil {
			return graph.ZeroID, err
		}
	}
	return sweep.ID, nil
}
