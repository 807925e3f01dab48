package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/hullform/pkg/graph"
)

// VolumeInfo is the analytic volume of one solid and its world centroid.
type VolumeInfo struct {
	Node     *graph.Node
	Volume   float64 // mm³
	Centroid graph.Vec3
}

// Volume computes the volume and centroid of a single solid at placement p.
// Boxes and cylinders are exact. A sweep is the sum of its straight
// segments (πr²·length) plus, at each interior vertex, the spherical wedge
// (2/3)·θ·r³ that rounds the corner through turning angle θ; the overlap on
// the inside of a bend is not subtracted.
func Volume(g *graph.DesignGraph, n *graph.Node, p Placement) (VolumeInfo, error) {
	info := VolumeInfo{Node: n}
	switch d := n.Data.(type) {
	case graph.BoxData:
		info.Volume = d.Dimensions.X * d.Dimensions.Y * d.Dimensions.Z
		info.Centroid = p.Apply(d.Dimensions.Scale(0.5))
	case graph.CylinderData:
		info.Volume = math.Pi * d.Radius * d.Radius * d.Height
		info.Centroid = p.Apply(graph.Vec3{})
	case graph.SweepData:
		pts, r, err := SweepGeometry(g, d)
		if err != nil {
			return info, fmt.Errorf("sweep %s: %w", partName(n), err)
		}
		var total float64
		var moment graph.Vec3
		for i := 0; i+1 < len(pts); i++ {
			seg := pts[i+1].Sub(pts[i])
			v := math.Pi * r * r * seg.Length()
			total += v
			moment = moment.Add(pts[i].Add(pts[i+1]).Scale(0.5 * v))
			if i > 0 {
				prev := pts[i].Sub(pts[i-1]).Normalize()
				theta := math.Acos(math.Max(-1, math.Min(1, prev.Dot(seg.Normalize()))))
				jv := 2.0 / 3.0 * theta * r * r * r
				total += jv
				moment = moment.Add(pts[i].Scale(jv))
			}
		}
		info.Volume = total
		if total > 0 {
			info.Centroid = p.Apply(moment.Scale(1 / total))
		}
	default:
		return info, fmt.Errorf("solid node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
	return info, nil
}

// Volumes computes the volume of every solid reachable from the roots,
// visible or not, in walk order.
func Volumes(g *graph.DesignGraph) ([]VolumeInfo, error) {
	var out []VolumeInfo
	err := Walk(g, func(n *graph.Node, p Placement) error {
		info, err := Volume(g, n, p)
		if err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	return out, err
}
