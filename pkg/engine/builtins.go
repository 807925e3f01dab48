package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/chazu/hullform/pkg/graph"
	"github.com/chazu/hullform/pkg/kernel"
	"github.com/chazu/hullform/pkg/panels"
	"github.com/chazu/hullform/pkg/params"
	"github.com/chazu/hullform/pkg/wiring"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms design script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: panel-array -> panel_array
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpMaterial names an entry of the material table.
type sexpMaterial struct {
	name string
}

func (m *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material %q)", m.name)
}
func (m *sexpMaterial) Type() *zygo.RegisteredType { return nil }

// sexpPrimitive wraps box or cylinder data so it can be returned from
// `box`/`cylinder` and consumed by `defpart`.
type sexpPrimitive struct {
	data graph.NodeData
}

func (p *sexpPrimitive) SexpString(ps *zygo.PrintState) string {
	switch d := p.data.(type) {
	case graph.BoxData:
		return fmt.Sprintf("(box %.0fx%.0fx%.0f)", d.Dimensions.X, d.Dimensions.Y, d.Dimensions.Z)
	case graph.CylinderData:
		return fmt.Sprintf("(cylinder r=%.0f h=%.0f)", d.Radius, d.Height)
	}
	return "(primitive)"
}
func (p *sexpPrimitive) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// floatKW reads an optional numeric keyword into dst.
func (pa kwArgs) floatKW(fn, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_fore) and plain strings ("fore").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toParamName maps a keyword or string to a parameter key:
// :hull-length and "hull_length" both name hull_length.
func toParamName(s zygo.Sexp) (string, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(name, "-", "_"), nil
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return graph.ZeroID, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toMaterial extracts a material name from a sexpMaterial or plain string.
func toMaterial(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpMaterial:
		return v.name, nil
	case *zygo.SexpStr:
		return v.S, nil
	}
	return "", fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toGroupRef resolves an assembly reference or assembly name to a group node.
func toGroupRef(g *graph.DesignGraph, s zygo.Sexp) (graph.NodeID, error) {
	var n *graph.Node
	switch v := s.(type) {
	case *sexpNodeRef:
		n = g.Get(v.id)
	case *zygo.SexpStr:
		n = g.Lookup(v.S)
	default:
		return graph.ZeroID, fmt.Errorf("expected assembly, got %T (%s)", s, s.SexpString(nil))
	}
	if n == nil || n.Kind != graph.NodeGroup {
		return graph.ZeroID, fmt.Errorf("expected assembly, got %s", s.SexpString(nil))
	}
	return n.ID, nil
}

// nodeRefs wraps ids as a Lisp list of node references.
func nodeRefs(g *graph.DesignGraph, ids []graph.NodeID) zygo.Sexp {
	refs := make([]zygo.Sexp, len(ids))
	for i, id := range ids {
		ref := &sexpNodeRef{id: id}
		if n := g.Get(id); n != nil {
			ref.name = n.Name
		}
		refs[i] = ref
	}
	return zygo.MakeList(refs)
}

// ---------------------------------------------------------------------------
// Node ID generation
// ---------------------------------------------------------------------------

// nodeCounter provides unique suffixes for anonymous nodes.
var nodeCounter uint64

func nextNodeSuffix() string {
	n := atomic.AddUint64(&nodeCounter, 1)
	return fmt.Sprintf("_anon_%d", n)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// scope is the state shared by the builtins of one evaluation.
type scope struct {
	ctx    context.Context
	g      *graph.DesignGraph
	ps     *params.ParameterSet
	kernel kernel.Kernel

	dims    *params.Dimensions
	dimsErr error
}

// dimensions decodes the typed parameters on first use.
func (s *scope) dimensions() (params.Dimensions, error) {
	if s.dims == nil && s.dimsErr == nil {
		d, err := s.ps.Dimensions()
		if err != nil {
			s.dimsErr = err
		} else {
			s.dims = &d
		}
	}
	if s.dimsErr != nil {
		return params.Dimensions{}, s.dimsErr
	}
	return *s.dims, nil
}

// registerBuiltins installs the design builtins into a zygomys environment.
// The builtins operate on the scope's DesignGraph, populating it during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *scope) {
	g := sc.g

	// -----------------------------------------------------------------------
	// (param :hull-length) or (param :mast-height 0)
	// -----------------------------------------------------------------------
	env.AddFunction("param", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("param requires a name and an optional default")
		}
		key, err := toParamName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param: name: %w", err)
		}
		if v, ok := sc.ps.Get(key); ok {
			return &zygo.SexpFloat{Val: v}, nil
		}
		if len(args) == 2 {
			def, err := toFloat64(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("param: %s: default: %w", key, err)
			}
			return &zygo.SexpFloat{Val: def}, nil
		}
		return zygo.SexpNull, fmt.Errorf("param: no parameter named %q", key)
	})

	// -----------------------------------------------------------------------
	// (material "hull")
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("material requires exactly 1 argument, got %d", len(args))
		}
		m, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
		}
		if m == "" {
			return zygo.SexpNull, fmt.Errorf("material: empty name")
		}
		return &sexpMaterial{name: m}, nil
	})

	// -----------------------------------------------------------------------
	// (box :length 12000 :width 1200 :height 1200 :material hull)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		bd := graph.BoxData{PrimKind: graph.PrimBox}

		for key, dst := range map[string]*float64{
			"length": &bd.Dimensions.X,
			"width":  &bd.Dimensions.Y,
			"height": &bd.Dimensions.Z,
		} {
			if err := pa.floatKW("box", key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if v, ok := pa.kw["material"]; ok {
			m, err := toMaterial(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: material: %w", err)
			}
			bd.Material = m
		}

		return &sexpPrimitive{data: bd}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :radius 90 :height 9000 :material mast)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		cd := graph.CylinderData{PrimKind: graph.PrimCylinder}

		if err := pa.floatKW("cylinder", "radius", &cd.Radius); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.floatKW("cylinder", "height", &cd.Height); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["material"]; ok {
			m, err := toMaterial(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: material: %w", err)
			}
			cd.Material = m
		}

		return &sexpPrimitive{data: cd}, nil
	})

	// -----------------------------------------------------------------------
	// (defpart "name" (box ...) :label "hull")
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
		}

		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		if g.Lookup(partName) != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %q is already defined", partName)
		}

		body, ok := pa.positional[1].(*sexpPrimitive)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defpart: expected box or cylinder expression, got %T", pa.positional[1])
		}

		node := &graph.Node{
			ID:      graph.NewNodeID(partName),
			Kind:    graph.NodePrimitive,
			Name:    partName,
			Visible: true,
			Data:    body.data,
		}
		if v, ok := pa.kw["label"]; ok {
			label, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defpart: label: %w", err)
			}
			node.Label = label
		}
		g.AddNode(node)

		return &sexpNodeRef{id: node.ID, name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}

		n := g.Lookup(partName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}

		return &sexpNodeRef{id: n.ID, name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: graph.Vec3{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (place (part "deck") :at (vec3 0 0 1400) :rotate (vec3 0 0 90) :name "n")
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a part reference as first argument")
		}

		childID, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: part: %w", err)
		}

		td := graph.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}

		var placeName string
		if v, ok := pa.kw["name"]; ok {
			placeName, err = toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: name: %w", err)
			}
			if g.Lookup(placeName) != nil {
				return zygo.SexpNull, fmt.Errorf("place: %q is already defined", placeName)
			}
		}

		// Derive a deterministic ID from the child name. Placing the same
		// part twice falls back to an anonymous suffix.
		idPath := "place/" + nextNodeSuffix()
		if childNode := g.Get(childID); childNode != nil && childNode.Name != "" {
			if candidate := graph.NewNodeID("place/" + childNode.Name); g.Get(candidate) == nil {
				idPath = "place/" + childNode.Name
			}
		}
		id := graph.NewNodeID(idPath)

		node := &graph.Node{
			ID:       id,
			Kind:     graph.NodeTransform,
			Name:     placeName,
			Visible:  true,
			Children: []graph.NodeID{childID},
			Data:     td,
		}
		g.AddNode(node)

		return &sexpNodeRef{id: id, name: placeName}, nil
	})

	// -----------------------------------------------------------------------
	// (assembly "name" (place ...) (place ...) ...)
	// nil children are skipped so optional parts can use (if ... nil).
	// -----------------------------------------------------------------------
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}

		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		originName := asmName + "_Origin"
		for _, n := range []string{asmName, originName} {
			if g.Lookup(n) != nil {
				return zygo.SexpNull, fmt.Errorf("assembly: %q is already defined", n)
			}
		}

		origin := &graph.Node{
			ID:   graph.NewNodeID(asmName + "/origin"),
			Kind: graph.NodeOrigin,
			Name: originName,
			Data: graph.OriginData{},
		}
		children := []graph.NodeID{origin.ID}
		for i := 1; i < len(args); i++ {
			if args[i] == zygo.SexpNull {
				continue
			}
			ref, ok := args[i].(*sexpNodeRef)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("assembly: child %d: expected node reference, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
			children = append(children, ref.id)
		}

		id := graph.NewNodeID(asmName)
		node := &graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     asmName,
			Visible:  true,
			Children: children,
			Data:     graph.GroupData{},
		}
		g.AddNode(origin)
		g.AddNode(node)
		g.AddRoot(id)

		return &sexpNodeRef{id: id, name: asmName}, nil
	})

	// -----------------------------------------------------------------------
	// (panel-array boat :fore)
	// -----------------------------------------------------------------------
	env.AddFunction("panel_array", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("panel-array requires an assembly and a side")
		}
		groupID, err := toGroupRef(g, args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("panel-array: %w", err)
		}
		sideName, err := toKeywordString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("panel-array: side: %w", err)
		}
		side, err := panels.ParseSide(sideName)
		if err != nil {
			return zygo.SexpNull, err
		}
		d, err := sc.dimensions()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("panel-array: %w", err)
		}

		ids, err := panels.Generate(g, groupID, side, d)
		if err != nil {
			return zygo.SexpNull, err
		}
		return nodeRefs(g, ids), nil
	})

	// -----------------------------------------------------------------------
	// (sweep boat :name "stay" :radius 5 :points (list (vec3 ...) ...)
	//             :profile "circle")
	// -----------------------------------------------------------------------
	env.AddFunction("sweep", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("sweep requires an assembly as first argument")
		}
		groupID, err := toGroupRef(g, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sweep: %w", err)
		}

		var sweepName string
		if v, ok := pa.kw["name"]; ok {
			if sweepName, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("sweep: name: %w", err)
			}
		}
		profile := "circle"
		if v, ok := pa.kw["profile"]; ok {
			if profile, err = toKeywordString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("sweep: profile: %w", err)
			}
		}
		var radius float64
		if err := pa.floatKW("sweep", "radius", &radius); err != nil {
			return zygo.SexpNull, err
		}
		items, err := sexpListToSlice(pa.kw["points"])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sweep: points: %w", err)
		}
		pts := make([]graph.Vec3, len(items))
		for i, item := range items {
			if pts[i], err = toVec3(item); err != nil {
				return zygo.SexpNull, fmt.Errorf("sweep: point %d: %w", i, err)
			}
		}

		id, err := wiring.CreateSweep(g, groupID, profile, radius, pts, sweepName)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpNodeRef{id: id, name: sweepName}, nil
	})

	// -----------------------------------------------------------------------
	// (wire-solar-panels boat)
	// -----------------------------------------------------------------------
	env.AddFunction("wire_solar_panels", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("wire-solar-panels requires an assembly")
		}
		groupID, err := toGroupRef(g, args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wire-solar-panels: %w", err)
		}
		d, err := sc.dimensions()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wire-solar-panels: %w", err)
		}

		res, err := wiring.WireSolarPanels(sc.ctx, g, groupID, wiring.KernelBounder{Kernel: sc.kernel}, wiring.OptionsFrom(d), d)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpInt{Val: int64(len(res.Wires))}, nil
	})
}
