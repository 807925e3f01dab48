// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/chazu/hullform/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along the
// longest axis of a solid.
const DefaultMeshCells = 64

// ErrDegenerateSweep is returned for sweeps that cannot produce a solid.
var ErrDegenerateSweep = errors.New("sdfx: degenerate sweep")

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	meshCells int
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution. Values below 8 are
// raised to 8.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n < 8 {
			n = 8
		}
		k.meshCells = n
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{meshCells: DefaultMeshCells}
	for _, o := range opts {
		o(k)
	}
	return k
}

// MeshCells reports the configured marching cubes resolution.
func (k *SdfxKernel) MeshCells() int {
	return k.meshCells
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0) so that a placement puts the
// box's corner at the placement point, the way a CAD Part::Box behaves.
// sdf.Box3D centers the box at the origin, so we translate by half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	// Shift from center-origin to min-corner-origin.
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a cylinder with the given height and radius, centered on
// the origin with its axis along Z.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

// Sphere creates a sphere centered on the origin.
func (k *SdfxKernel) Sphere(radius float64) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return wrap(s)
}

// Sweep builds a round wire along points: one cylinder per segment, each
// aligned with the segment tangent, and a sphere at every interior vertex so
// that corners come out rounded.
func (k *SdfxKernel) Sweep(points [][3]float64, radius float64) (kernel.Solid, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %d points, need at least 2", ErrDegenerateSweep, len(points))
	}
	if radius <= 0 {
		return nil, fmt.Errorf("%w: radius %g", ErrDegenerateSweep, radius)
	}

	var parts []sdf.SDF3
	for i := 0; i+1 < len(points); i++ {
		a := v3.Vec{X: points[i][0], Y: points[i][1], Z: points[i][2]}
		b := v3.Vec{X: points[i+1][0], Y: points[i+1][1], Z: points[i+1][2]}
		d := b.Sub(a)
		length := d.Length()
		if length == 0 {
			return nil, fmt.Errorf("%w: segment %d has zero length", ErrDegenerateSweep, i+1)
		}
		cyl, err := sdf.Cylinder3D(length, radius, 0)
		if err != nil {
			return nil, fmt.Errorf("sdfx.Cylinder3D: %w", err)
		}
		dir := d.DivScalar(length)
		theta := math.Acos(math.Max(-1, math.Min(1, dir.Z)))
		phi := math.Atan2(dir.Y, dir.X)
		mid := a.Add(b).MulScalar(0.5)
		m := sdf.Translate3d(mid).Mul(sdf.RotateZ(phi)).Mul(sdf.RotateY(theta))
		parts = append(parts, sdf.Transform3D(cyl, m))

		if i > 0 {
			ball, err := sdf.Sphere3D(radius)
			if err != nil {
				return nil, fmt.Errorf("sdfx.Sphere3D: %w", err)
			}
			parts = append(parts, sdf.Transform3D(ball, sdf.Translate3d(a)))
		}
	}
	return wrap(sdf.Union3D(parts...)), nil
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.meshCells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// WriteSTL renders the solid with marching cubes and writes a binary STL
// file to path.
func (k *SdfxKernel) WriteSTL(s kernel.Solid, path string) error {
	render.ToSTL(unwrap(s), path, render.NewMarchingCubesUniform(k.meshCells))
	// ToSTL reports failures only on its own log; check the result.
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("write stl %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("write stl %s: empty file", path)
	}
	return nil
}
