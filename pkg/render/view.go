package render

import (
	"math"

	"github.com/chazu/hullform/pkg/graph"
)

// View is a standard orthographic camera. Right and Up span the image
// plane; the camera looks along Up × Right.
type View struct {
	Name  string
	Right graph.Vec3
	Up    graph.Vec3
}

// Forward is the viewing direction, pointing away from the camera.
func (v View) Forward() graph.Vec3 {
	u, r := v.Up, v.Right
	return graph.Vec3{
		X: u.Y*r.Z - u.Z*r.Y,
		Y: u.Z*r.X - u.X*r.Z,
		Z: u.X*r.Y - u.Y*r.X,
	}
}

// Project maps a world point to image-plane coordinates and depth.
func (v View) Project(p graph.Vec3) (x, y, depth float64) {
	return p.Dot(v.Right), p.Dot(v.Up), p.Dot(v.Forward())
}

// The four exported views, in export order.
var (
	Isometric = View{
		Name:  "Isometric",
		Right: graph.Vec3{X: 1, Y: 1}.Normalize(),
		Up:    graph.Vec3{X: -1, Y: 1, Z: 2}.Normalize(),
	}
	Front = View{Name: "Front", Right: graph.Vec3{X: 1}, Up: graph.Vec3{Z: 1}}
	Top   = View{Name: "Top", Right: graph.Vec3{X: 1}, Up: graph.Vec3{Y: 1}}
	Right = View{Name: "Right", Right: graph.Vec3{Y: 1}, Up: graph.Vec3{Z: 1}}
)

// Views lists the exported views.
var Views = []View{Isometric, Front, Top, Right}

// fit maps image-plane coordinates to pixels so that the box [min, max]
// fills the frame less a margin on every side.
type fit struct {
	scale  float64
	cx, cy float64
	w, h   float64
}

func newFit(minX, minY, maxX, maxY float64, w, h int, margin float64) fit {
	dx, dy := maxX-minX, maxY-minY
	aw, ah := float64(w)*(1-2*margin), float64(h)*(1-2*margin)

	scale := math.Inf(1)
	if dx > 0 {
		scale = aw / dx
	}
	if dy > 0 {
		scale = math.Min(scale, ah/dy)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}
	return fit{
		scale: scale,
		cx:    (minX + maxX) / 2,
		cy:    (minY + maxY) / 2,
		w:     float64(w),
		h:     float64(h),
	}
}

// pixel converts image-plane coordinates; image Y grows downwards.
func (f fit) pixel(x, y float64) (float64, float64) {
	return f.w/2 + (x-f.cx)*f.scale, f.h/2 - (y-f.cy)*f.scale
}
