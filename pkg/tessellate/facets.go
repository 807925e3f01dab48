package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/kernel"
)

// Segment counts for curved surfaces.
const (
	cylinderSegments = 32
	tubeSegments     = 16
	sphereRings      = 8
)

// Facets produces exact planar-faceted meshes for every visible solid
// without going through the kernel. Boxes come out as 12 triangles;
// cylinders and sweeps are approximated by regular polygons. Renderers and
// the STEP writer use these meshes, since a sampled SDF loses features that
// are thinner than one marching cubes cell.
func Facets(g *graph.DesignGraph) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	err := Walk(g, func(n *graph.Node, p Placement) error {
		if !n.Visible {
			return nil
		}
		m, err := Facet(g, n, p)
		if err != nil {
			return err
		}
		meshes = append(meshes, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meshes, nil
}

// Facet meshes a single solid node at placement p.
func Facet(g *graph.DesignGraph, n *graph.Node, p Placement) (*kernel.Mesh, error) {
	b := &meshBuilder{p: p}
	switch d := n.Data.(type) {
	case graph.BoxData:
		b.box(d.Dimensions)
	case graph.CylinderData:
		b.cylinder(d.Radius, d.Height)
	case graph.SweepData:
		pts, radius, err := SweepGeometry(g, d)
		if err != nil {
			return nil, fmt.Errorf("sweep %s: %w", partName(n), err)
		}
		for i := 0; i+1 < len(pts); i++ {
			b.tube(pts[i], pts[i+1], radius)
			if i > 0 {
				b.sphere(pts[i], radius)
			}
		}
	default:
		return nil, fmt.Errorf("solid node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
	annotate(&b.m, n)
	return &b.m, nil
}

// meshBuilder emits flat-shaded triangles in world coordinates.
type meshBuilder struct {
	p Placement
	m kernel.Mesh
}

// tri adds a triangle given in local coordinates. The normal is computed
// from the winding, counter-clockwise seen from outside.
func (b *meshBuilder) tri(a, c, d graph.Vec3) {
	wa, wc, wd := b.p.Apply(a), b.p.Apply(c), b.p.Apply(d)
	n := cross(wc.Sub(wa), wd.Sub(wa)).Normalize()
	base := uint32(b.m.VertexCount())
	for _, v := range []graph.Vec3{wa, wc, wd} {
		b.m.Vertices = append(b.m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		b.m.Normals = append(b.m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	b.m.Indices = append(b.m.Indices, base, base+1, base+2)
}

// quad adds two triangles for the planar quad a-c-d-e.
func (b *meshBuilder) quad(a, c, d, e graph.Vec3) {
	b.tri(a, c, d)
	b.tri(a, d, e)
}

// box emits a box with its minimum corner at the origin.
func (b *meshBuilder) box(dim graph.Vec3) {
	x, y, z := dim.X, dim.Y, dim.Z
	v := [8]graph.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: x, Y: 0, Z: 0}, {X: x, Y: y, Z: 0}, {X: 0, Y: y, Z: 0},
		{X: 0, Y: 0, Z: z}, {X: x, Y: 0, Z: z}, {X: x, Y: y, Z: z}, {X: 0, Y: y, Z: z},
	}
	b.quad(v[0], v[3], v[2], v[1]) // bottom
	b.quad(v[4], v[5], v[6], v[7]) // top
	b.quad(v[0], v[1], v[5], v[4]) // front (-Y)
	b.quad(v[2], v[3], v[7], v[6]) // back (+Y)
	b.quad(v[0], v[4], v[7], v[3]) // left (-X)
	b.quad(v[1], v[2], v[6], v[5]) // right (+X)
}

// cylinder emits a capped cylinder centered on the origin along Z.
func (b *meshBuilder) cylinder(r, h float64) {
	b.prism(graph.Vec3{Z: -h / 2}, graph.Vec3{Z: h / 2}, r, cylinderSegments, true)
}

// tube emits one capped straight segment of a sweep.
func (b *meshBuilder) tube(from, to graph.Vec3, r float64) {
	b.prism(from, to, r, tubeSegments, true)
}

// prism emits a regular polygonal prism of radius r between a and c.
func (b *meshBuilder) prism(a, c graph.Vec3, r float64, segments int, caps bool) {
	axis := c.Sub(a).Normalize()
	u, w := basis(axis)
	ring := func(center graph.Vec3, i int) graph.Vec3 {
		t := 2 * math.Pi * float64(i%segments) / float64(segments)
		return center.Add(u.Scale(r * math.Cos(t))).Add(w.Scale(r * math.Sin(t)))
	}
	for i := 0; i < segments; i++ {
		a0, a1 := ring(a, i), ring(a, i+1)
		c0, c1 := ring(c, i), ring(c, i+1)
		b.quad(a0, a1, c1, c0)
		if caps {
			b.tri(a, a1, a0)
			b.tri(c, c0, c1)
		}
	}
}

// sphere emits a UV sphere around center.
func (b *meshBuilder) sphere(center graph.Vec3, r float64) {
	segments := tubeSegments
	point := func(ring, seg int) graph.Vec3 {
		theta := math.Pi * float64(ring) / float64(sphereRings)
		phi := 2 * math.Pi * float64(seg%segments) / float64(segments)
		return center.Add(graph.Vec3{
			X: r * math.Sin(theta) * math.Cos(phi),
			Y: r * math.Sin(theta) * math.Sin(phi),
			Z: r * math.Cos(theta),
		})
	}
	for i := 0; i < sphereRings; i++ {
		for j := 0; j < segments; j++ {
			p00, p01 := point(i, j), point(i, j+1)
			p10, p11 := point(i+1, j), point(i+1, j+1)
			switch i {
			case 0:
				b.tri(p00, p10, p11)
			case sphereRings - 1:
				b.tri(p00, p10, p01)
			default:
				b.quad(p00, p10, p11, p01)
			}
		}
	}
}

func cross(a, c graph.Vec3) graph.Vec3 {
	return graph.Vec3{
		X: a.Y*c.Z - a.Z*c.Y,
		Y: a.Z*c.X - a.X*c.Z,
		Z: a.X*c.Y - a.Y*c.X,
	}
}

// basis returns two unit vectors perpendicular to axis and to each other,
// with u×w pointing along axis.
func basis(axis graph.Vec3) (u, w graph.Vec3) {
	ref := graph.Vec3{Z: 1}
	if math.Abs(axis.Z) > 0.9 {
		ref = graph.Vec3{X: 1}
	}
	u = cross(ref, axis).Normalize()
	w = cross(axis, u)
	return u, w
}
