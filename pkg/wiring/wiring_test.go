package wiring

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/chazu/hullform/pkg/ctxlog"
	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/kernel/sdfx"
	"github.com/chazu/hullform/pkg/panels"
	"github.com/chazu/hullform/pkg/params"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// boxBounder reads bounds straight from box placements: translation plus
// box dimensions.
type boxBounder struct{}

func (boxBounder) Bounds(g *graph.DesignGraph, n *graph.Node) (graph.BoundBox, error) {
	var at graph.Vec3
	for n.Kind == graph.NodeTransform {
		if td := n.Data.(graph.TransformData); td.Translation != nil {
			at = at.Add(*td.Translation)
		}
		n = g.Get(n.Children[0])
	}
	bd, ok := n.Data.(graph.BoxData)
	if !ok {
		return graph.BoundBox{}, errors.New("not a box")
	}
	return graph.BoundBox{Min: at, Max: at.Add(bd.Dimensions)}, nil
}

// flakyBounder fails for the panels named in broken.
type flakyBounder struct {
	broken map[string]bool
}

func (f flakyBounder) Bounds(g *graph.DesignGraph, n *graph.Node) (graph.BoundBox, error) {
	if f.broken[n.Name] {
		return graph.BoundBox{}, errors.New("no shape")
	}
	return boxBounder{}.Bounds(g, n)
}

func testDims() params.Dimensions {
	return params.Dimensions{
		DeckWidth:      600,
		DeckBaseLevel:  1000,
		PillarWidth:    100,
		PanelLength:    200,
		PanelWidth:     100,
		PanelHeight:    10,
		PanelBaseLevel: 1200,
	}
}

var testOpts = Options{Radius: 5, TransverseOffset: 10, CentralExtension: 10}

func newGroup(t *testing.T) (*graph.DesignGraph, graph.NodeID) {
	t.Helper()
	g := graph.New()
	id := graph.NewNodeID("deck")
	g.AddNode(&graph.Node{ID: id, Kind: graph.NodeGroup, Name: "deck", Data: graph.GroupData{}})
	g.AddRoot(id)
	return g, id
}

// addPanel places a labelled box with its minimum corner at (x, y, z).
func addPanel(t *testing.T, g *graph.DesignGraph, group graph.NodeID, name, label string, x, y, z float64) {
	t.Helper()
	box := &graph.Node{ID: graph.NewNodeID("panel/" + name), Kind: graph.NodePrimitive, Name: name + "_Box", Label: label,
		Visible: true, Data: graph.BoxData{PrimKind: graph.PrimBox, Dimensions: graph.Vec3{X: 200, Y: 100, Z: 10}, Material: "solar"}}
	at := graph.Vec3{X: x, Y: y, Z: z}
	place := &graph.Node{ID: graph.NewNodeID("place/" + name), Kind: graph.NodeTransform, Name: name,
		Children: []graph.NodeID{box.ID}, Data: graph.TransformData{Translation: &at}}
	g.AddNode(box)
	g.AddNode(place)
	if err := g.AddChild(group, place.ID); err != nil {
		t.Fatal(err)
	}
}

func pathStart(t *testing.T, g *graph.DesignGraph, sweepName string) []graph.Vec3 {
	t.Helper()
	path := g.Lookup(sweepName + "Path")
	if path == nil {
		t.Fatalf("no path for %s", sweepName)
	}
	return path.Data.(graph.PathData).Points()
}

func TestCreateSweepNodes(t *testing.T) {
	g, deck := newGroup(t)
	pts := []graph.Vec3{{X: 0}, {X: 100}, {X: 100, Y: 50, Z: -20}}

	id, err := CreateSweep(g, deck, "Circle", 5, pts, "test")
	if err != nil {
		t.Fatalf("CreateSweep: %v", err)
	}

	sweep := g.Get(id)
	if sweep == nil || sweep.Name != "test" || sweep.Kind != graph.NodeSweep {
		t.Fatalf("sweep node = %+v", sweep)
	}
	sd := sweep.Data.(graph.SweepData)
	if !sd.Solid || !sd.Frenet || sd.Transition != graph.TransitionRoundCorner {
		t.Errorf("sweep flags = %+v", sd)
	}
	if strings.Join(sd.SpineEdges, ",") != "Edge_1,Edge_2" {
		t.Errorf("spine edges = %v", sd.SpineEdges)
	}

	path := g.Lookup("testPath")
	if path == nil || g.Get(sd.Spine) != path {
		t.Fatal("spine does not reference testPath")
	}
	prof := g.Lookup("testProfile")
	if prof == nil || sd.Sections[0] != prof.ID {
		t.Fatal("section does not reference testProfile")
	}
	pd := prof.Data.(graph.ProfileData)
	if pd.Radius != 5 || pd.Center != pts[0] || pd.Normal != (graph.Vec3{X: 1}) {
		t.Errorf("profile = %+v", pd)
	}

	// All three are children of the group.
	if got := len(g.Get(deck).Children); got != 3 {
		t.Errorf("group children = %d, want 3", got)
	}
	if r := graph.ValidateAll(g); !r.OK() {
		t.Errorf("graph does not validate: %v", r.Errors)
	}
}

func TestCreateSweepUnsupportedProfileCreatesNothing(t *testing.T) {
	g, deck := newGroup(t)
	before := g.NodeCount()

	_, err := CreateSweep(g, deck, "square", 5, []graph.Vec3{{X: 0}, {X: 1}}, "bad")
	if !errors.Is(err, ErrUnsupportedProfile) {
		t.Fatalf("err = %v, want ErrUnsupportedProfile", err)
	}
	if !strings.Contains(err.Error(), `"square"`) {
		t.Errorf("error %q does not name the profile", err)
	}
	if g.NodeCount() != before {
		t.Errorf("node count changed from %d to %d", before, g.NodeCount())
	}
	for _, n := range []string{"bad", "badPath", "badProfile"} {
		if g.Lookup(n) != nil {
			t.Errorf("%s was created", n)
		}
	}
}

func TestCreateSweepRejectsDegenerateInput(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		pts    []graph.Vec3
		sweep  string
	}{
		{"one vertex", 5, []graph.Vec3{{X: 1}}, "w"},
		{"zero length", 5, []graph.Vec3{{X: 1}, {X: 1}}, "w"},
		{"zero radius", 0, []graph.Vec3{{X: 0}, {X: 1}}, "w"},
		{"no name", 5, []graph.Vec3{{X: 0}, {X: 1}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, deck := newGroup(t)
			before := g.NodeCount()
			_, err := CreateSweep(g, deck, "circle", tt.radius, tt.pts, tt.sweep)
			if !errors.Is(err, ErrInvalidSweep) {
				t.Fatalf("err = %v, want ErrInvalidSweep", err)
			}
			if g.NodeCount() != before {
				t.Error("failed sweep created nodes")
			}
		})
	}
}

func TestCreateSweepDuplicateName(t *testing.T) {
	g, deck := newGroup(t)
	pts := []graph.Vec3{{X: 0}, {X: 1}}
	if _, err := CreateSweep(g, deck, "circle", 1, pts, "w"); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateSweep(g, deck, "circle", 1, pts, "w"); !errors.Is(err, ErrInvalidSweep) {
		t.Fatalf("err = %v, want ErrInvalidSweep", err)
	}
}

func TestFindPanelsMatchesLabelCaseInsensitively(t *testing.T) {
	g, deck := newGroup(t)
	addPanel(t, g, deck, "a", "Solar", 0, 0, 0)
	addPanel(t, g, deck, "b", "SOLAR_dark", 0, 200, 0)
	addPanel(t, g, deck, "c", "hatch", 0, 400, 0)
	// Unlabelled node falls back to its name.
	g.AddNode(&graph.Node{ID: graph.NewNodeID("solar_spare"), Kind: graph.NodePrimitive, Name: "solar_spare",
		Data: graph.BoxData{Dimensions: graph.Vec3{X: 1, Y: 1, Z: 1}}})
	if err := g.AddChild(deck, graph.NewNodeID("solar_spare")); err != nil {
		t.Fatal(err)
	}

	got := FindPanels(g, g.Get(deck))
	names := make([]string, len(got))
	for i, n := range got {
		names[i] = n.Name
	}
	if strings.Join(names, ",") != "a,b,solar_spare" {
		t.Errorf("FindPanels = %v", names)
	}
}

func TestWireSolarPanelsOrderingAndOffsets(t *testing.T) {
	g, deck := newGroup(t)
	// One Y-group of three panels added out of X order, one single panel.
	addPanel(t, g, deck, "p2", "solar", 500, 0, 1200)
	addPanel(t, g, deck, "p0", "solar", 100, 0, 1200)
	addPanel(t, g, deck, "p1", "solar_dark", 300, 0, 1200)
	addPanel(t, g, deck, "q0", "solar", 100, 100, 1200)

	res, err := WireSolarPanels(context.Background(), g, deck, boxBounder{}, testOpts, testDims())
	if err != nil {
		t.Fatalf("WireSolarPanels: %v", err)
	}
	if res.Panels != 4 || len(res.Groups) != 2 {
		t.Fatalf("panels=%d groups=%d, want 4 and 2", res.Panels, len(res.Groups))
	}
	if res.Groups[0].Key != 50 || res.Groups[1].Key != 150 {
		t.Errorf("group keys = %v, %v", res.Groups[0].Key, res.Groups[1].Key)
	}
	if len(res.Wires) != 4 || len(res.Failed) != 0 {
		t.Fatalf("wires=%d failed=%v", len(res.Wires), res.Failed)
	}

	// Wires of the first group are created in XMin order.
	for i, want := range []string{"p0_Wire", "p1_Wire", "p2_Wire"} {
		if got := g.Get(res.Wires[i]).Name; got != want {
			t.Errorf("wire %d = %s, want %s", i, got, want)
		}
	}

	panelEndX := 700.0
	trunkX := panelEndX + 600.0/3
	for i, name := range []string{"p0_Wire", "p1_Wire", "p2_Wire"} {
		pts := pathStart(t, g, name)
		wantY := 50 + float64(i)*testOpts.Radius*testOpts.TransverseOffset
		want := []graph.Vec3{
			{X: 100 + 200*float64(i), Y: wantY, Z: 1210},
			{X: panelEndX, Y: wantY, Z: 1210},
			{X: trunkX, Y: wantY, Z: 500},
		}
		for j := range want {
			if pts[j] != want[j] {
				t.Errorf("%s vertex %d = %v, want %v", name, j, pts[j], want[j])
			}
		}
	}

	trunk := pathStart(t, g, TrunkName)
	if trunk[0] != (graph.Vec3{X: trunkX, Y: 40, Z: 500}) || trunk[1] != (graph.Vec3{X: trunkX, Y: 160, Z: 500}) {
		t.Errorf("trunk = %v", trunk)
	}
	if res.Trunk.IsZero() {
		t.Error("trunk not reported")
	}
}

func TestWireSolarPanelsSkipsFailedPanel(t *testing.T) {
	g, deck := newGroup(t)
	addPanel(t, g, deck, "p0", "solar", 100, 0, 1200)
	addPanel(t, g, deck, "p1", "solar", 300, 0, 1200)
	// Occupy p0's wire name.
	g.AddNode(&graph.Node{ID: graph.NewNodeID("taken"), Kind: graph.NodeGroup, Name: "p0_Wire", Data: graph.GroupData{}})

	res, err := WireSolarPanels(context.Background(), g, deck, boxBounder{}, testOpts, testDims())
	if err != nil {
		t.Fatalf("WireSolarPanels: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "p0_Wire" {
		t.Errorf("Failed = %v, want [p0_Wire]", res.Failed)
	}
	if len(res.Wires) != 1 || g.Get(res.Wires[0]).Name != "p1_Wire" {
		t.Errorf("Wires = %v", res.Wires)
	}
	if g.Lookup(TrunkName) == nil {
		t.Error("trunk must still be created")
	}
}

func TestWireSolarPanelsSkipsPanelWithoutBounds(t *testing.T) {
	g, deck := newGroup(t)
	addPanel(t, g, deck, "p0", "solar", 100, 0, 1200)
	addPanel(t, g, deck, "p1", "solar", 300, 0, 1200)
	addPanel(t, g, deck, "p2", "solar", 100, 100, 1200)

	b := flakyBounder{broken: map[string]bool{"p1": true}}
	res, err := WireSolarPanels(context.Background(), g, deck, b, testOpts, testDims())
	if err != nil {
		t.Fatalf("WireSolarPanels: %v", err)
	}
	if res.Panels != 3 {
		t.Errorf("Panels = %d, want 3", res.Panels)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "p1_Wire" {
		t.Errorf("Failed = %v, want [p1_Wire]", res.Failed)
	}
	if len(res.Wires) != 2 || g.Lookup("p0_Wire") == nil || g.Lookup("p2_Wire") == nil {
		t.Errorf("Wires = %v", res.Wires)
	}
	if g.Lookup("p1_Wire") != nil {
		t.Error("wire created for a panel without bounds")
	}
	if g.Lookup(TrunkName) == nil {
		t.Error("trunk must still be created")
	}
}

func TestWireSolarPanelsLogsToContextLogger(t *testing.T) {
	g, deck := newGroup(t)
	addPanel(t, g, deck, "p0", "solar", 100, 0, 1200)
	addPanel(t, g, deck, "p1", "solar", 300, 0, 1200)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	b := flakyBounder{broken: map[string]bool{"p1": true}}
	if _, err := WireSolarPanels(ctx, g, deck, b, testOpts, testDims()); err != nil {
		t.Fatalf("WireSolarPanels: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"wire=p0_Wire", "Failed to wire panel", "panel=p1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestWireSolarPanelsWithoutPanels(t *testing.T) {
	g, deck := newGroup(t)
	res, err := WireSolarPanels(context.Background(), g, deck, boxBounder{}, testOpts, testDims())
	if err != nil {
		t.Fatalf("WireSolarPanels: %v", err)
	}
	if res.Panels != 0 || !res.Trunk.IsZero() || g.Lookup(TrunkName) != nil {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestWireGeneratedDeckWithKernel(t *testing.T) {
	g, deck := newGroup(t)
	d := testDims()
	d.PanelsLongitudinal = 4
	d.PanelsTransversal = 3
	for _, side := range []panels.Side{panels.Fore, panels.Aft} {
		if _, err := panels.Generate(g, deck, side, d); err != nil {
			t.Fatal(err)
		}
	}

	res, err := WireSolarPanels(context.Background(), g, deck, KernelBounder{Kernel: sdfx.New()}, testOpts, d)
	if err != nil {
		t.Fatalf("WireSolarPanels: %v", err)
	}
	if res.Panels != 12 || len(res.Groups) != 3 {
		t.Fatalf("panels=%d groups=%d, want 12 and 3", res.Panels, len(res.Groups))
	}
	for _, yg := range res.Groups {
		if len(yg.Panels) != 4 {
			t.Errorf("group %v has %d panels, want 4", yg.Key, len(yg.Panels))
		}
	}
	if len(res.Wires) != 12 || g.Lookup(TrunkName) == nil {
		t.Errorf("wires=%d trunk=%v", len(res.Wires), g.Lookup(TrunkName) != nil)
	}
	if r := graph.ValidateAll(g); !r.OK() {
		t.Errorf("wired deck does not validate: %v", r.Errors)
	}
}

func TestGroupByYProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	mkPanels := func(ys, xs []float64) []Panel {
		out := make([]Panel, len(ys))
		for i := range ys {
			x := xs[i%len(xs)]
			out[i] = Panel{Name: string(rune('a' + i%26)), Box: graph.BoundBox{
				Min: graph.Vec3{X: x, Y: ys[i] - 50},
				Max: graph.Vec3{X: x + 10, Y: ys[i] + 50},
			}}
		}
		return out
	}

	properties.Property("equal rounded midpoints share a group", prop.ForAll(
		func(ys, xs []float64) bool {
			groups := GroupByY(mkPanels(ys, xs))
			for _, g := range groups {
				for _, p := range g.Panels {
					if RoundKey((p.Box.Min.Y+p.Box.Max.Y)/2) != g.Key {
						return false
					}
				}
			}
			seen := map[float64]bool{}
			for _, g := range groups {
				if seen[g.Key] {
					return false
				}
				seen[g.Key] = true
			}
			return true
		},
		gen.SliceOfN(8, gen.Float64Range(-5000, 5000)),
		gen.SliceOfN(3, gen.Float64Range(-5000, 5000)),
	))

	properties.Property("midpoints further apart than the tolerance never share a group", prop.ForAll(
		func(y, gap float64) bool {
			ps := mkPanels([]float64{y, y + gap}, []float64{0})
			return len(GroupByY(ps)) == 2
		},
		gen.Float64Range(-5000, 5000),
		gen.Float64Range(0.001, 1000),
	))

	properties.Property("groups are sorted by XMin", prop.ForAll(
		func(xs []float64) bool {
			ys := make([]float64, len(xs))
			for _, g := range GroupByY(mkPanels(ys, xs)) {
				for i := 1; i < len(g.Panels); i++ {
					if g.Panels[i-1].Box.Min.X > g.Panels[i].Box.Min.X {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(6, gen.Float64Range(-5000, 5000)),
	))

	properties.TestingRun(t)
}

func TestRoundKey(t *testing.T) {
	if RoundKey(0.30000000000000004) != 0.3 {
		t.Error("RoundKey should absorb float noise")
	}
	if math.Abs(RoundKey(1.23456)-1.2346) > 1e-12 {
		t.Errorf("RoundKey(1.23456) = %v", RoundKey(1.23456))
	}
}
