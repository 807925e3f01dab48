package graph

import "math"

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox      PrimitiveKind = iota // rectangular solid
	PrimCylinder                      // cylindrical solid
)

// BoxData is a rectangular solid with its minimum corner at the local origin.
type BoxData struct {
	PrimKind   PrimitiveKind `json:"prim_kind"`
	Dimensions Vec3          `json:"dimensions"` // length (X) x width (Y) x height (Z) in mm
	Material   string        `json:"material,omitempty"`
}

func (BoxData) nodeData() {}

// CylinderData is a Z-aligned cylinder centred on the local origin.
type CylinderData struct {
	PrimKind PrimitiveKind `json:"prim_kind"`
	Radius   float64       `json:"radius"` // mm
	Height   float64       `json:"height"` // mm
	Material string        `json:"material,omitempty"`
}

func (CylinderData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData is a placement applied to the node's children.
// Created by the (place ...) form and by the panel-array generator.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Group / origin
// ---------------------------------------------------------------------------

// GroupData represents an assembly. Created by the (assembly ...) form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}

// OriginData marks the axis helper of an assembly.
type OriginData struct{}

func (OriginData) nodeData() {}

// ---------------------------------------------------------------------------
// Sweeps
// ---------------------------------------------------------------------------

// Edge is one straight segment of a path.
type Edge struct {
	Name  string `json:"name"`
	Start Vec3   `json:"start"`
	End   Vec3   `json:"end"`
}

// Length returns the edge length.
func (e Edge) Length() float64 {
	return e.End.Sub(e.Start).Length()
}

// Tangent returns the unit direction of the edge.
func (e Edge) Tangent() Vec3 {
	return e.End.Sub(e.Start).Normalize()
}

// PathData is a polyline spine.
type PathData struct {
	Edges []Edge `json:"edges"`
}

func (PathData) nodeData() {}

// Points returns the ordered vertices of the path.
func (p PathData) Points() []Vec3 {
	if len(p.Edges) == 0 {
		return nil
	}
	pts := make([]Vec3, 0, len(p.Edges)+1)
	pts = append(pts, p.Edges[0].Start)
	for _, e := range p.Edges {
		pts = append(pts, e.End)
	}
	return pts
}

// Length returns the summed edge length.
func (p PathData) Length() float64 {
	var l float64
	for _, e := range p.Edges {
		l += e.Length()
	}
	return l
}

// ProfileKind enumerates sweep cross-sections.
type ProfileKind int

const (
	ProfileCircle ProfileKind = iota
)

func (k ProfileKind) String() string {
	switch k {
	case ProfileCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// ProfileData is a planar cross-section placed at the start of a path.
type ProfileData struct {
	Kind   ProfileKind `json:"kind"`
	Radius float64     `json:"radius"`
	Center Vec3        `json:"center"`
	Normal Vec3        `json:"normal"` // tangent of the first path edge
}

func (ProfileData) nodeData() {}

// Area returns the cross-section area.
func (p ProfileData) Area() float64 {
	return math.Pi * p.Radius * p.Radius
}

// Transition selects how a sweep handles corners between edges.
type Transition int

const (
	TransitionTransformed Transition = iota
	TransitionRightCorner
	TransitionRoundCorner
)

func (t Transition) String() string {
	switch t {
	case TransitionTransformed:
		return "Transformed"
	case TransitionRightCorner:
		return "Right corner"
	case TransitionRoundCorner:
		return "Round corner"
	default:
		return "unknown"
	}
}

// SweepData is a solid made by moving the section profiles along the spine.
type SweepData struct {
	Sections   []NodeID   `json:"sections"`
	Spine      NodeID     `json:"spine"`
	SpineEdges []string   `json:"spine_edges"`
	Solid      bool       `json:"solid"`
	Frenet     bool       `json:"frenet"`
	Transition Transition `json:"transition"`
	Material   string     `json:"material,omitempty"`
}

func (SweepData) nodeData() {}

// MaterialOf returns the material name carried by a solid's data, if any.
func MaterialOf(n *Node) string {
	switch d := n.Data.(type) {
	case BoxData:
		return d.Material
	case CylinderData:
		return d.Material
	case SweepData:
		return d.Material
	}
	return ""
}
