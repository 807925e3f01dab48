// Package kernel defines the abstract geometry kernel interface.
// The sdfx implementation provides solid modeling behind this interface;
// the rest of the pipeline (tessellation, wiring bounds, STL export) only
// ever talks to a Kernel.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64) Solid

	// Sweep sweeps a circle of the given radius along the polyline through
	// points. Interior vertices get rounded corners.
	Sweep(points [][3]float64, radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
	WriteSTL(s Solid, path string) error
}
