package wiring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/kernel"
	"github.com/chazu/hullform/pkg/params"
	"github.com/chazu/hullform/pkg/tessellate"
	"github.com/samber/lo"
)

// TrunkName is the name of the wire that joins all panel wires.
const TrunkName = "Central_Connecting_Wire"

// keyDecimals is the rounding applied to Y midpoints before grouping.
const keyDecimals = 4

// Bounder returns the world bounding box of a group child.
type Bounder interface {
	Bounds(g *graph.DesignGraph, n *graph.Node) (graph.BoundBox, error)
}

// KernelBounder measures nodes by building their solids with a kernel.
type KernelBounder struct {
	Kernel kernel.Kernel
}

// Bounds implements Bounder.
func (b KernelBounder) Bounds(g *graph.DesignGraph, n *graph.Node) (graph.BoundBox, error) {
	s, err := tessellate.SubtreeSolid(g, b.Kernel, n)
	if err != nil {
		return graph.BoundBox{}, err
	}
	min, max := s.BoundingBox()
	return graph.BoundBox{
		Min: graph.Vec3{X: min[0], Y: min[1], Z: min[2]},
		Max: graph.Vec3{X: max[0], Y: max[1], Z: max[2]},
	}, nil
}

// Options tunes the wire geometry.
type Options struct {
	Radius           float64 // wire radius
	TransverseOffset float64 // Y spacing between colinear wires, in radii
	CentralExtension float64 // trunk overhang past the outer groups
}

// OptionsFrom reads the wire options from the parameter dimensions.
func OptionsFrom(d params.Dimensions) Options {
	return Options{
		Radius:           d.WireRadius,
		TransverseOffset: d.WireTransverseOffset,
		CentralExtension: d.WireCentralExtension,
	}
}

// Panel is a discovered solar panel with its world bounds.
type Panel struct {
	Node *graph.Node
	Name string
	Box  graph.BoundBox
}

// YGroup is the set of panels sharing a rounded Y midpoint.
type YGroup struct {
	Key    float64
	Panels []Panel
}

// Result reports what WireSolarPanels created.
type Result struct {
	Panels int
	Groups []YGroup
	Wires  []graph.NodeID // per-panel sweeps in creation order
	Trunk  graph.NodeID   // zero when no trunk was created
	TrunkX float64
	Failed []string // names of sweeps that could not be created
}

// RoundKey rounds a coordinate to the grouping precision.
func RoundKey(v float64) float64 {
	scale := math.Pow(10, keyDecimals)
	return math.Round(v*scale) / scale
}

// FindPanels returns the children of group whose label contains "solar",
// ignoring case.
func FindPanels(g *graph.DesignGraph, group *graph.Node) []*graph.Node {
	return lo.Filter(g.Children(group), func(n *graph.Node, _ int) bool {
		return strings.Contains(strings.ToLower(g.Label(n)), "solar")
	})
}

// GroupByY clusters panels by rounded Y midpoint and orders each group by
// ascending XMin. Groups are returned in ascending key order.
func GroupByY(panels []Panel) []YGroup {
	byKey := lo.GroupBy(panels, func(p Panel) float64 {
		return RoundKey((p.Box.Min.Y + p.Box.Max.Y) / 2)
	})
	keys := lo.Keys(byKey)
	sort.Float64s(keys)

	groups := make([]YGroup, 0, len(keys))
	for _, k := range keys {
		ps := byKey[k]
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Box.Min.X < ps[j].Box.Min.X })
		groups = append(groups, YGroup{Key: k, Panels: ps})
	}
	return groups
}

// WireSolarPanels routes one wire per solar panel of the group groupID and
// a trunk wire joining them. Each panel wire starts at the panel's XMin,
// runs along the panel top to the group's furthest XMax, then drops to the
// trunk at deck_width/3 beyond it, halfway down to the deck base level.
// Wires of the same Y-group are spread along Y by radius·offset per index.
// A panel whose sweep fails is logged and skipped.
func WireSolarPanels(ctx context.Context, g *graph.DesignGraph, groupID graph.NodeID, b Bounder, opts Options, d params.Dimensions) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	group := g.Get(groupID)
	if group == nil || group.Kind != graph.NodeGroup {
		return nil, fmt.Errorf("wiring: %s is not a group", groupID.Short())
	}

	nodes := FindPanels(g, group)
	logger.Info(fmt.Sprintf("Found %d solar panels to wire.", len(nodes)))

	var failed []string
	panels := make([]Panel, 0, len(nodes))
	for _, n := range nodes {
		name := panelName(g, n)
		box, err := b.Bounds(g, n)
		if err != nil {
			logger.Warn("Failed to wire panel", "panel", name, "error", err)
			failed = append(failed, name+"_Wire")
			continue
		}
		panels = append(panels, Panel{Node: n, Name: name, Box: box})
	}

	res := &Result{Panels: len(nodes), Groups: GroupByY(panels), Failed: failed}
	if len(res.Groups) == 0 {
		logger.Warn("no solar panels found, skipping trunk wire", "group", group.Name)
		return res, nil
	}
	logger.Debug("grouped panels", "groups", len(res.Groups))

	panelZ := d.PanelBaseLevel + d.PanelHeight
	trunkZ := d.DeckBaseLevel / 2

	res.TrunkX = math.Inf(-1)
	for _, yg := range res.Groups {
		panelEndX := lo.Max(lo.Map(yg.Panels, func(p Panel, _ int) float64 { return p.Box.Max.X }))
		trunkX := panelEndX + d.DeckWidth/3
		res.TrunkX = math.Max(res.TrunkX, trunkX)

		for i, p := range yg.Panels {
			wireY := yg.Key + float64(i)*(opts.Radius*opts.TransverseOffset)
			vertices := []graph.Vec3{
				{X: p.Box.Min.X, Y: wireY, Z: panelZ},
				{X: panelEndX, Y: wireY, Z: panelZ},
				{X: trunkX, Y: wireY, Z: trunkZ},
			}
			id, err := CreateSweep(g, groupID, "circle", opts.Radius, vertices, p.Name+"_Wire")
			if err != nil {
				logger.Warn("Failed to wire panel", "panel", p.Name, "error", err)
				res.Failed = append(res.Failed, p.Name+"_Wire")
				continue
			}
			logger.Debug("created wire", "wire", p.Name+"_Wire", "from", vertices[0].String(), "to", vertices[len(vertices)-1].String())
			res.Wires = append(res.Wires, id)
		}
	}

	minKey := res.Groups[0].Key
	maxKey := res.Groups[len(res.Groups)-1].Key
	trunk := []graph.Vec3{
		{X: res.TrunkX, Y: minKey - opts.CentralExtension, Z: trunkZ},
		{X: res.TrunkX, Y: maxKey + opts.CentralExtension, Z: trunkZ},
	}
	id, err := CreateSweep(g, groupID, "circle", opts.Radius, trunk, TrunkName)
	if err != nil {
		logger.Warn("Failed to create central connecting wire", "error", err)
		res.Failed = append(res.Failed, TrunkName)
		return res, nil
	}
	res.Trunk = id
	logger.Info("wired solar panels", "wires", len(res.Wires), "failed", len(res.Failed), "trunk_x", res.TrunkX)
	return res, nil
}

// panelName is the node's name, or the name of the first named node it
// places, or its short ID.
func panelName(g *graph.DesignGraph, n *graph.Node) string {
	for cur := n; cur != nil; {
		if cur.Name != "" {
			return cur.Name
		}
		if cur.Kind != graph.NodeTransform || len(cur.Children) == 0 {
			break
		}
		cur = g.Get(cur.Children[0])
	}
	return n.ID.Short()
}
