package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks the
// design stage or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the design stage
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from both validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether the result has no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the Tier 1 structural checks on the design graph and returns
// the findings. An empty slice means the graph is valid. Validate never
// mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateSweepRefs(g)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and returns a
// ValidationResult with separated errors and warnings.
func ValidateAll(g *DesignGraph) ValidationResult {
	tier1 := Validate(g)
	tier2Errs, tier2Warnings := validateGeometry(g)

	var result ValidationResult
	for _, e := range tier1 {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)

	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateDAG(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray

		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}

		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}

		color[id] = black
		return false
	}

	for _, n := range g.Sorted() {
		if color[n.ID] == white {
			if visit(n.ID) {
				// One cycle error is sufficient.
				break
			}
		}
	}

	return errs
}

// dataRefs lists the node IDs a payload points at.
func dataRefs(d NodeData) []NodeID {
	sd, ok := d.(SweepData)
	if !ok {
		return nil
	}
	refs := append([]NodeID{}, sd.Sections...)
	if !sd.Spine.IsZero() {
		refs = append(refs, sd.Spine)
	}
	return refs
}

// validateReferences checks that every NodeID referenced anywhere in the graph
// points to a node that actually exists in g.Nodes.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Sorted() {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
		for _, ref := range dataRefs(node.Data) {
			if _, ok := g.Nodes[ref]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("sweep reference %s does not exist", ref.Short()),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective and that every entry
// in NameIndex points to an existing node.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root ID references an existing node and
// warns about orphan nodes (nodes unreachable from any root).
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}

	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Nodes[current]
		if node == nil {
			continue
		}

		next := append(append([]NodeID{}, node.Children...), dataRefs(node.Data)...)
		for _, id := range next {
			if !reachable[id] {
				reachable[id] = true
				queue = append(queue, id)
			}
		}
	}

	for _, node := range g.Sorted() {
		if !reachable[node.ID] {
			name := node.Name
			if name == "" {
				name = node.ID.Short()
			}
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateSweepRefs checks that a sweep's spine is a path node and its
// sections are profile nodes.
func validateSweepRefs(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Sorted() {
		sd, ok := node.Data.(SweepData)
		if !ok {
			continue
		}
		if spine, ok := g.Nodes[sd.Spine]; ok && spine.Kind != NodePath {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("sweep spine %s is %s, not path", sd.Spine.Short(), spine.Kind),
				Severity: SeverityError,
			})
		}
		if len(sd.Sections) == 0 {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  "sweep has no section profile",
				Severity: SeverityError,
			})
		}
		for _, sid := range sd.Sections {
			if sec, ok := g.Nodes[sid]; ok && sec.Kind != NodeProfile {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("sweep section %s is %s, not profile", sid.Short(), sec.Kind),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}
