// Package tessellate walks a design graph and turns its solids into kernel
// solids, triangle meshes, bounding boxes and volumes. One mesh is produced
// per solid node.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/kernel"
)

// ErrNoGeometry is returned when a subtree contains no solids.
var ErrNoGeometry = errors.New("tessellate: no geometry")

// visitFunc is called for every solid reached by Walk, together with its
// accumulated world placement.
type visitFunc func(n *graph.Node, p Placement) error

// Walk visits every solid reachable from the graph roots in depth-first
// order. Path and profile nodes are construction geometry and are skipped.
func Walk(g *graph.DesignGraph, fn visitFunc) error {
	if g == nil {
		return nil
	}
	ts := newTransformStack()
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		if err := walkNode(g, root, ts, fn); err != nil {
			return fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
	}
	return nil
}

// WalkFrom visits the solids of the subtree rooted at n, starting from the
// identity placement.
func WalkFrom(g *graph.DesignGraph, n *graph.Node, fn visitFunc) error {
	return walkNode(g, n, newTransformStack(), fn)
}

// walkNode recursively traverses a node and its children.
func walkNode(g *graph.DesignGraph, n *graph.Node, ts *transformStack, fn visitFunc) error {
	switch n.Kind {
	case graph.NodePrimitive, graph.NodeSweep:
		return fn(n, ts.placement())

	case graph.NodeTransform:
		return handleTransform(g, n, ts, fn)

	case graph.NodeGroup:
		return handleGroup(g, n, ts, fn)

	case graph.NodeOrigin, graph.NodePath, graph.NodeProfile:
		// Construction geometry, nothing to mesh.
		return nil

	default:
		return fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handleTransform pushes the transform, recurses into children, then pops.
func handleTransform(g *graph.DesignGraph, n *graph.Node, ts *transformStack, fn visitFunc) error {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	ts.push(td)
	defer ts.pop()

	for _, child := range g.Children(n) {
		if err := walkNode(g, child, ts, fn); err != nil {
			return err
		}
	}
	return nil
}

// handleGroup recurses into children transparently.
func handleGroup(g *graph.DesignGraph, n *graph.Node, ts *transformStack, fn visitFunc) error {
	for _, child := range g.Children(n) {
		if err := walkNode(g, child, ts, fn); err != nil {
			return err
		}
	}
	return nil
}

// partName prefers the node's Name and falls back to its short ID.
func partName(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// Solid builds the kernel solid for a single solid node at placement p.
func Solid(g *graph.DesignGraph, k kernel.Kernel, n *graph.Node, p Placement) (kernel.Solid, error) {
	var solid kernel.Solid

	switch data := n.Data.(type) {
	case graph.BoxData:
		solid = k.Box(data.Dimensions.X, data.Dimensions.Y, data.Dimensions.Z)
	case graph.CylinderData:
		solid = k.Cylinder(data.Height, data.Radius, 32)
	case graph.SweepData:
		pts, radius, err := SweepGeometry(g, data)
		if err != nil {
			return nil, fmt.Errorf("sweep %s: %w", partName(n), err)
		}
		raw := make([][3]float64, len(pts))
		for i, v := range pts {
			raw[i] = [3]float64{v.X, v.Y, v.Z}
		}
		solid, err = k.Sweep(raw, radius)
		if err != nil {
			return nil, fmt.Errorf("sweep %s: %w", partName(n), err)
		}
	default:
		return nil, fmt.Errorf("solid node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}

	// Apply accumulated rotation first, then translation.
	rot := p.Rotation
	if rot.X != 0 || rot.Y != 0 || rot.Z != 0 {
		solid = k.Rotate(solid, rot.X, rot.Y, rot.Z)
	}

	trans := p.Translation
	if trans.X != 0 || trans.Y != 0 || trans.Z != 0 {
		solid = k.Translate(solid, trans.X, trans.Y, trans.Z)
	}
	return solid, nil
}

// SweepGeometry resolves a sweep's spine points and section radius.
func SweepGeometry(g *graph.DesignGraph, sd graph.SweepData) ([]graph.Vec3, float64, error) {
	spine := g.Get(sd.Spine)
	if spine == nil {
		return nil, 0, fmt.Errorf("spine %s not found", sd.Spine.Short())
	}
	path, ok := spine.Data.(graph.PathData)
	if !ok {
		return nil, 0, fmt.Errorf("spine %s is not a path", sd.Spine.Short())
	}
	if len(sd.Sections) == 0 {
		return nil, 0, errors.New("sweep has no section")
	}
	section := g.Get(sd.Sections[0])
	if section == nil {
		return nil, 0, fmt.Errorf("section %s not found", sd.Sections[0].Short())
	}
	prof, ok := section.Data.(graph.ProfileData)
	if !ok {
		return nil, 0, fmt.Errorf("section %s is not a profile", sd.Sections[0].Short())
	}
	return path.Points(), prof.Radius, nil
}

// SubtreeSolid unions every solid below n into one kernel solid, placed in
// n's local frame.
func SubtreeSolid(g *graph.DesignGraph, k kernel.Kernel, n *graph.Node) (kernel.Solid, error) {
	var acc kernel.Solid
	err := WalkFrom(g, n, func(sn *graph.Node, p Placement) error {
		s, err := Solid(g, k, sn, p)
		if err != nil {
			return err
		}
		if acc == nil {
			acc = s
		} else {
			acc = k.Union(acc, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%w below %s", ErrNoGeometry, partName(n))
	}
	return acc, nil
}

// GraphSolid unions the solids below every root of g.
func GraphSolid(g *graph.DesignGraph, k kernel.Kernel) (kernel.Solid, error) {
	var acc kernel.Solid
	for _, id := range g.Roots {
		n := g.Get(id)
		if n == nil {
			continue
		}
		s, err := SubtreeSolid(g, k, n)
		if errors.Is(err, ErrNoGeometry) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = s
		} else {
			acc = k.Union(acc, s)
		}
	}
	if acc == nil {
		return nil, ErrNoGeometry
	}
	return acc, nil
}

// Tessellate walks the design graph and produces one triangle mesh per
// visible solid using the provided geometry kernel. The tessellator is
// read-only and never mutates the graph.
func Tessellate(g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	err := Walk(g, func(n *graph.Node, p Placement) error {
		if !n.Visible {
			return nil
		}
		solid, err := Solid(g, k, n, p)
		if err != nil {
			return err
		}
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return fmt.Errorf("tessellate: ToMesh failed for node %s: %w", n.ID.Short(), err)
		}
		annotate(mesh, n)
		meshes = append(meshes, mesh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meshes, nil
}

func annotate(m *kernel.Mesh, n *graph.Node) {
	m.PartName = partName(n)
	m.Label = n.DisplayLabel()
	m.Color = n.Color
}
