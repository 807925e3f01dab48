// Package stepexport writes triangle meshes as an ISO 10303-21 (STEP)
// faceted boundary representation.
package stepexport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/hullform/pkg/kernel"
)

// Supported application protocols.
const (
	SchemaAP214 = "AUTOMOTIVE_DESIGN"
	SchemaAP203 = "CONFIG_CONTROL_DESIGN"
)

var schemas = map[string]struct {
	fileSchema string
	apName     string
	apYear     int
}{
	SchemaAP214: {"AUTOMOTIVE_DESIGN { 1 0 10303 214 1 1 1 1 }", "automotive_design", 2000},
	SchemaAP203: {"CONFIG_CONTROL_DESIGN", "config_control_design", 1994},
}

// ErrEmpty is returned when there is no geometry to write.
var ErrEmpty = errors.New("stepexport: no geometry")

// Options controls the file header.
type Options struct {
	Name      string    // product and file name
	Schema    string    // SchemaAP214 when empty
	Timestamp time.Time // zero writes the Unix epoch, keeping output reproducible
}

// WriteFile writes meshes to path.
func WriteFile(path string, meshes []*kernel.Mesh, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stepexport: %w", err)
	}
	if err := Write(f, meshes, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Write emits one FACETED_BREP per non-empty mesh. Vertices shared inside
// a mesh are written once.
func Write(w io.Writer, meshes []*kernel.Mesh, opts Options) error {
	if opts.Schema == "" {
		opts.Schema = SchemaAP214
	}
	schema, ok := schemas[opts.Schema]
	if !ok {
		return fmt.Errorf("stepexport: unsupported schema %q", opts.Schema)
	}

	var solids []*kernel.Mesh
	for _, m := range meshes {
		if m.TriangleCount() > 0 {
			solids = append(solids, m)
		}
	}
	if len(solids) == 0 {
		return ErrEmpty
	}

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Unix(0, 0)
	}

	sw := &writer{w: bufio.NewWriter(w)}
	sw.line("ISO-10303-21;")
	sw.line("HEADER;")
	sw.line("FILE_DESCRIPTION(('hullform faceted model'),'2;1');")
	sw.line(fmt.Sprintf("FILE_NAME(%s,%s,(''),(''),'hullform','hullform','');",
		quote(opts.Name), quote(ts.UTC().Format("2006-01-02T15:04:05"))))
	sw.line(fmt.Sprintf("FILE_SCHEMA((%s));", quote(schema.fileSchema)))
	sw.line("ENDSEC;")
	sw.line("DATA;")

	appCtx := sw.entity("APPLICATION_CONTEXT(%s)", quote(strings.ReplaceAll(schema.apName, "_", " ")))
	sw.entity("APPLICATION_PROTOCOL_DEFINITION('international standard',%s,%d,%s)", quote(schema.apName), schema.apYear, ref(appCtx))
	prodCtx := sw.entity("PRODUCT_CONTEXT('',%s,'mechanical')", ref(appCtx))
	prod := sw.entity("PRODUCT(%s,%s,'',(%s))", quote(opts.Name), quote(opts.Name), ref(prodCtx))
	formation := sw.entity("PRODUCT_DEFINITION_FORMATION('','',%s)", ref(prod))
	defCtx := sw.entity("PRODUCT_DEFINITION_CONTEXT('part definition',%s,'design')", ref(appCtx))
	def := sw.entity("PRODUCT_DEFINITION('design','',%s,%s)", ref(formation), ref(defCtx))
	shape := sw.entity("PRODUCT_DEFINITION_SHAPE('','',%s)", ref(def))

	length := sw.entity("(LENGTH_UNIT() NAMED_UNIT(*) SI_UNIT(.MILLI.,.METRE.))")
	angle := sw.entity("(NAMED_UNIT(*) PLANE_ANGLE_UNIT() SI_UNIT($,.RADIAN.))")
	solid := sw.entity("(NAMED_UNIT(*) SI_UNIT($,.STERADIAN.) SOLID_ANGLE_UNIT())")
	uncertainty := sw.entity("UNCERTAINTY_MEASURE_WITH_UNIT(LENGTH_MEASURE(1.E-07),%s,'distance_accuracy_value','confusion accuracy')", ref(length))
	geomCtx := sw.entity("(GEOMETRIC_REPRESENTATION_CONTEXT(3) GLOBAL_UNCERTAINTY_ASSIGNED_CONTEXT((%s)) "+
		"GLOBAL_UNIT_ASSIGNED_CONTEXT((%s,%s,%s)) REPRESENTATION_CONTEXT('',''))",
		ref(uncertainty), ref(length), ref(angle), ref(solid))

	origin := sw.entity("CARTESIAN_POINT('',(0.,0.,0.))")
	axisZ := sw.entity("DIRECTION('',(0.,0.,1.))")
	axisX := sw.entity("DIRECTION('',(1.,0.,0.))")
	placement := sw.entity("AXIS2_PLACEMENT_3D('',%s,%s,%s)", ref(origin), ref(axisZ), ref(axisX))

	items := []int{placement}
	for _, m := range solids {
		items = append(items, sw.brep(m))
	}

	refs := make([]string, len(items))
	for i, id := range items {
		refs[i] = ref(id)
	}
	rep := sw.entity("FACETED_BREP_SHAPE_REPRESENTATION('',(%s),%s)", strings.Join(refs, ","), ref(geomCtx))
	sw.entity("SHAPE_DEFINITION_REPRESENTATION(%s,%s)", ref(shape), ref(rep))

	sw.line("ENDSEC;")
	sw.line("END-ISO-10303-21;")
	if sw.err != nil {
		return fmt.Errorf("stepexport: %w", sw.err)
	}
	if err := sw.w.Flush(); err != nil {
		return fmt.Errorf("stepexport: %w", err)
	}
	return nil
}

// writer numbers entities and remembers the first write error.
type writer struct {
	w    *bufio.Writer
	next int
	err  error
}

func (s *writer) line(text string) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.WriteString(text + "\n")
}

// entity writes "#n=BODY;" and returns n.
func (s *writer) entity(format string, args ...any) int {
	s.next++
	s.line(fmt.Sprintf("#%d=%s;", s.next, fmt.Sprintf(format, args...)))
	return s.next
}

// brep writes one closed shell of triangular faces.
func (s *writer) brep(m *kernel.Mesh) int {
	points := make(map[[3]float64]int)
	point := func(v [3]float64) int {
		if id, ok := points[v]; ok {
			return id
		}
		id := s.entity("CARTESIAN_POINT('',(%s,%s,%s))", stepReal(v[0]), stepReal(v[1]), stepReal(v[2]))
		points[v] = id
		return id
	}

	faces := make([]string, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := point(tri[0]), point(tri[1]), point(tri[2])
		loop := s.entity("POLY_LOOP('',(%s,%s,%s))", ref(a), ref(b), ref(c))
		bound := s.entity("FACE_OUTER_BOUND('',%s,.T.)", ref(loop))
		faces = append(faces, ref(s.entity("FACE('',(%s))", ref(bound))))
	}
	shell := s.entity("CLOSED_SHELL('',(%s))", strings.Join(faces, ","))
	return s.entity("FACETED_BREP(%s,%s)", quote(m.PartName), ref(shell))
}

func ref(id int) string { return "#" + strconv.Itoa(id) }

// quote encodes a STEP string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// stepReal formats a STEP REAL, which always carries a decimal point.
func stepReal(v float64) string {
	if v == 0 {
		return "0."
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	if s == "-0." {
		return "0."
	}
	return s
}
