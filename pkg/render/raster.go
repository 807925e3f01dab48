package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/kernel"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
)

// Image size and framing of exported views.
const (
	Width  = 1920
	Height = 1080
	Margin = 0.05
)

// DefaultColor is used for meshes that carry no color.
var DefaultColor = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}

// Background is the image background.
var Background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// ErrNoView is returned when there is no visible geometry to frame.
var ErrNoView = errors.New("render: no visible geometry to view")

// ParseColor decodes a "#rrggbb" color.
func ParseColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("render: bad color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("render: bad color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// facet is one projected triangle ready to paint.
type facet struct {
	pts   [3][2]float64
	depth float64
	fill  color.RGBA
}

// Draw paints meshes from view into a w×h image with flat Lambert shading.
// Triangles are painted back to front.
func Draw(meshes []*kernel.Mesh, view View, w, h int) (*image.RGBA, error) {
	var facets []facet
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	fwd := view.Forward()
	for _, m := range meshes {
		base := DefaultColor
		if m.Color != "" {
			c, err := ParseColor(m.Color)
			if err != nil {
				return nil, fmt.Errorf("mesh %s: %w", m.PartName, err)
			}
			base = c
		}
		for t := 0; t < m.TriangleCount(); t++ {
			tri := m.Triangle(t)
			var f facet
			var corners [3]graph.Vec3
			for i, v := range tri {
				p := graph.Vec3{X: v[0], Y: v[1], Z: v[2]}
				corners[i] = p
				x, y, d := view.Project(p)
				f.pts[i] = [2]float64{x, y}
				f.depth += d / 3
				minX, maxX = math.Min(minX, x), math.Max(maxX, x)
				minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			}
			f.fill = shade(base, corners, fwd)
			facets = append(facets, f)
		}
	}
	if len(facets) == 0 {
		return nil, ErrNoView
	}

	// Farthest first.
	sort.SliceStable(facets, func(i, j int) bool { return facets[i].depth > facets[j].depth })

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gc := draw2dimg.NewGraphicContext(img)

	gc.SetFillColor(Background)
	draw2dkit.Rectangle(gc, 0, 0, float64(w), float64(h))
	gc.Fill()

	ft := newFit(minX, minY, maxX, maxY, w, h, Margin)
	gc.SetLineWidth(0.5)
	for _, f := range facets {
		gc.SetFillColor(f.fill)
		gc.SetStrokeColor(f.fill)
		gc.BeginPath()
		for i, p := range f.pts {
			x, y := ft.pixel(p[0], p[1])
			if i == 0 {
				gc.MoveTo(x, y)
			} else {
				gc.LineTo(x, y)
			}
		}
		gc.Close()
		gc.FillStroke()
	}
	return img, nil
}

// shade scales base by how directly the facet faces the viewer. Winding is
// not trusted, so both sides of a facet are lit.
func shade(base color.RGBA, c [3]graph.Vec3, fwd graph.Vec3) color.RGBA {
	a, b := c[1].Sub(c[0]), c[2].Sub(c[0])
	n := graph.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}.Normalize()
	k := 0.35 + 0.65*math.Abs(n.Dot(fwd))
	scale := func(v uint8) uint8 { return uint8(math.Round(float64(v) * k)) }
	return color.RGBA{R: scale(base.R), G: scale(base.G), B: scale(base.B), A: 0xff}
}
