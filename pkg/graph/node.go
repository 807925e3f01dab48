package graph

// NodeKind enumerates the types of nodes in the design graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // geometric primitive (box, cylinder)
	NodeTransform                 // placement (place)
	NodeGroup                     // logical grouping (assembly)
	NodeOrigin                    // axis helper, never rendered
	NodePath                      // sweep spine made of straight edges
	NodeProfile                   // sweep cross-section
	NodeSweep                     // solid swept along a path
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	case NodeOrigin:
		return "origin"
	case NodePath:
		return "path"
	case NodeProfile:
		return "profile"
	case NodeSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the design graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Label    string   `json:"label,omitempty"` // user-facing tag, e.g. "solar"
	Visible  bool     `json:"visible"`
	Color    string   `json:"color,omitempty"` // "#rrggbb", set by the color stage
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"-"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// DisplayLabel returns the node's Label, or its Name when the label is empty.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Name
}

// IsSolid reports whether the node produces geometry of its own.
func (n *Node) IsSolid() bool {
	return n.Kind == NodePrimitive || n.Kind == NodeSweep
}
