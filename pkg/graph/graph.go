package graph

import (
	"errors"
	"fmt"
	"sort"
)

// GlobalDefaults contains graph-wide default settings.
type GlobalDefaults struct {
	Units string `json:"units"` // "mm" (only option)
}

// DesignGraph is the data structure produced by evaluating a design script.
// Stages after the design stage only read it, apart from the visibility and
// color flags that the color and render stages set on their own copies.
type DesignGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  GlobalDefaults    `json:"defaults"`
	Version   uint64            `json:"version"`
}

// ErrNoViewObject is returned when visibility is set on a node that has no
// renderable payload.
var ErrNoViewObject = errors.New("graph: node has no view object")

// New creates an empty DesignGraph with default settings.
func New() *DesignGraph {
	return &DesignGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Defaults: GlobalDefaults{
			Units: "mm",
		},
	}
}

// AddNode adds a node to the graph. It does not check for duplicates.
func (g *DesignGraph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph.
func (g *DesignGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// AddChild appends child to parent's children.
func (g *DesignGraph) AddChild(parent, child NodeID) error {
	p, ok := g.Nodes[parent]
	if !ok {
		return fmt.Errorf("graph: parent %s does not exist", parent.Short())
	}
	if _, ok := g.Nodes[child]; !ok {
		return fmt.Errorf("graph: child %s does not exist", child.Short())
	}
	p.Children = append(p.Children, child)
	return nil
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *DesignGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *DesignGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *DesignGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Children returns the child nodes of the given node.
func (g *DesignGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// Label returns the label used to identify n inside an assembly. Placement
// wrappers without a label of their own report the label of the node they
// place. When no label is set along the chain, the first name is used.
func (g *DesignGraph) Label(n *Node) string {
	name := ""
	for cur := n; cur != nil; {
		if cur.Label != "" {
			return cur.Label
		}
		if name == "" {
			name = cur.Name
		}
		if cur.Kind != NodeTransform || len(cur.Children) == 0 {
			break
		}
		cur = g.Nodes[cur.Children[0]]
	}
	return name
}

// Solids returns every primitive and sweep node sorted by name, then ID.
func (g *DesignGraph) Solids() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.IsSolid() {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out
}

// Sorted returns all nodes sorted by name, then ID.
func (g *DesignGraph) Sorted() []*Node {
	out := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	sortNodes(out)
	return out
}

func sortNodes(ns []*Node) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Name != ns[j].Name {
			return ns[i].Name < ns[j].Name
		}
		return ns[i].ID.String() < ns[j].ID.String()
	})
}

// SetVisible toggles a node's visibility. Nodes without a payload have
// nothing to show and report ErrNoViewObject.
func (g *DesignGraph) SetVisible(id NodeID, visible bool) error {
	n, ok := g.Nodes[id]
	if !ok {
		return fmt.Errorf("graph: node %s does not exist", id.Short())
	}
	if n.Data == nil {
		return fmt.Errorf("%w: %s", ErrNoViewObject, id.Short())
	}
	n.Visible = visible
	return nil
}

// NodeCount returns the total number of nodes.
func (g *DesignGraph) NodeCount() int {
	return len(g.Nodes)
}
