package tessellate

import (
	"math"
	"testing"

	"github.com/chazu/hullform/pkg/graph"
)

func boxNode(x, y, z float64) *graph.Node {
	return &graph.Node{
		ID: graph.NewNodeID("box"), Kind: graph.NodePrimitive, Name: "box", Visible: true,
		Data: graph.BoxData{PrimKind: graph.PrimBox, Dimensions: graph.Vec3{X: x, Y: y, Z: z}},
	}
}

func TestFacetBoxIsTwelveTriangles(t *testing.T) {
	m, err := Facet(graph.New(), boxNode(10, 20, 30), Placement{Translation: graph.Vec3{X: 5}})
	if err != nil {
		t.Fatalf("Facet failed: %v", err)
	}
	if m.TriangleCount() != 12 {
		t.Fatalf("TriangleCount() = %d, want 12", m.TriangleCount())
	}
	min, max, _ := m.Bounds()
	if min != [3]float64{5, 0, 0} || max != [3]float64{15, 20, 30} {
		t.Errorf("Bounds() = %v..%v", min, max)
	}
}

func TestFacetBoxNormalsPointOutward(t *testing.T) {
	m, err := Facet(graph.New(), boxNode(2, 2, 2), Placement{})
	if err != nil {
		t.Fatal(err)
	}
	center := graph.Vec3{X: 1, Y: 1, Z: 1}
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		c := graph.Vec3{
			X: (tri[0][0] + tri[1][0] + tri[2][0]) / 3,
			Y: (tri[0][1] + tri[1][1] + tri[2][1]) / 3,
			Z: (tri[0][2] + tri[1][2] + tri[2][2]) / 3,
		}
		n := graph.Vec3{
			X: float64(m.Normals[9*i]),
			Y: float64(m.Normals[9*i+1]),
			Z: float64(m.Normals[9*i+2]),
		}
		if n.Dot(c.Sub(center)) <= 0 {
			t.Errorf("triangle %d normal %v points inward", i, n)
		}
	}
}

func TestFacetCylinderBounds(t *testing.T) {
	n := &graph.Node{ID: graph.NewNodeID("mast"), Kind: graph.NodePrimitive, Name: "mast", Visible: true,
		Data: graph.CylinderData{PrimKind: graph.PrimCylinder, Radius: 10, Height: 100}}
	m, err := Facet(graph.New(), n, Placement{})
	if err != nil {
		t.Fatal(err)
	}
	if m.TriangleCount() != 4*cylinderSegments {
		t.Errorf("TriangleCount() = %d, want %d", m.TriangleCount(), 4*cylinderSegments)
	}
	min, max, _ := m.Bounds()
	if math.Abs(min[2]+50) > 1e-4 || math.Abs(max[2]-50) > 1e-4 {
		t.Errorf("Z bounds = [%f, %f], want [-50, 50]", min[2], max[2])
	}
	if math.Abs(max[0]-10) > 1e-4 {
		t.Errorf("X max = %f, want 10", max[0])
	}
}

func TestPlacementRotate(t *testing.T) {
	tests := []struct {
		name string
		rot  graph.Vec3
		in   graph.Vec3
		want graph.Vec3
	}{
		{"identity", graph.Vec3{}, graph.Vec3{X: 1, Y: 2, Z: 3}, graph.Vec3{X: 1, Y: 2, Z: 3}},
		{"z90", graph.Vec3{Z: 90}, graph.Vec3{X: 1}, graph.Vec3{Y: 1}},
		{"x90", graph.Vec3{X: 90}, graph.Vec3{Y: 1}, graph.Vec3{Z: 1}},
		{"y90", graph.Vec3{Y: 90}, graph.Vec3{Z: 1}, graph.Vec3{X: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Placement{Rotation: tt.rot}.Rotate(tt.in)
			if got.Sub(tt.want).Length() > 1e-9 {
				t.Errorf("Rotate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBasisIsOrthonormal(t *testing.T) {
	for _, axis := range []graph.Vec3{{X: 1}, {Z: 1}, {Z: -1}, graph.Vec3{X: 1, Y: 1, Z: -1}.Normalize()} {
		u, w := basis(axis)
		if math.Abs(u.Dot(axis)) > 1e-9 || math.Abs(w.Dot(axis)) > 1e-9 || math.Abs(u.Dot(w)) > 1e-9 {
			t.Errorf("basis(%v) not orthogonal: u=%v w=%v", axis, u, w)
		}
		if cross(u, w).Sub(axis).Length() > 1e-9 {
			t.Errorf("basis(%v): u×w = %v", axis, cross(u, w))
		}
	}
}
