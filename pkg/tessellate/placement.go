package tessellate

import (
	"math"

	"github.com/chazu/hullform/pkg/graph"
)

// transformStack accumulates spatial transforms during graph traversal.
type transformStack struct {
	translations []graph.Vec3
	rotations    []graph.Vec3
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) push(td graph.TransformData) {
	var translation, rotation graph.Vec3
	if td.Translation != nil {
		translation = *td.Translation
	}
	if td.Rotation != nil {
		rotation = *td.Rotation
	}
	ts.translations = append(ts.translations, translation)
	ts.rotations = append(ts.rotations, rotation)
}

func (ts *transformStack) pop() {
	if len(ts.translations) > 0 {
		ts.translations = ts.translations[:len(ts.translations)-1]
	}
	if len(ts.rotations) > 0 {
		ts.rotations = ts.rotations[:len(ts.rotations)-1]
	}
}

// placement returns the accumulated placement of the stack. Rotations are
// summed per axis, translations are summed.
func (ts *transformStack) placement() Placement {
	var p Placement
	for _, t := range ts.translations {
		p.Translation = p.Translation.Add(t)
	}
	for _, r := range ts.rotations {
		p.Rotation = p.Rotation.Add(r)
	}
	return p
}

// Placement is a world placement: rotate by Euler angles in degrees
// (Z·Y·X order, matching kernel.Rotate), then translate.
type Placement struct {
	Rotation    graph.Vec3
	Translation graph.Vec3
}

// IsIdentity reports whether p leaves points unchanged.
func (p Placement) IsIdentity() bool {
	return p.Rotation == (graph.Vec3{}) && p.Translation == (graph.Vec3{})
}

// Rotate applies only the rotational part of p, for directions and normals.
func (p Placement) Rotate(v graph.Vec3) graph.Vec3 {
	if p.Rotation == (graph.Vec3{}) {
		return v
	}
	rx := p.Rotation.X * math.Pi / 180
	ry := p.Rotation.Y * math.Pi / 180
	rz := p.Rotation.Z * math.Pi / 180

	// X
	c, s := math.Cos(rx), math.Sin(rx)
	v = graph.Vec3{X: v.X, Y: c*v.Y - s*v.Z, Z: s*v.Y + c*v.Z}
	// Y
	c, s = math.Cos(ry), math.Sin(ry)
	v = graph.Vec3{X: c*v.X + s*v.Z, Y: v.Y, Z: -s*v.X + c*v.Z}
	// Z
	c, s = math.Cos(rz), math.Sin(rz)
	return graph.Vec3{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y, Z: v.Z}
}

// Apply maps a local point into world coordinates.
func (p Placement) Apply(v graph.Vec3) graph.Vec3 {
	return p.Rotate(v).Add(p.Translation)
}
