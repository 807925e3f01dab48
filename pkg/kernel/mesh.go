package kernel

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which design graph node this came from
	Label    string    `json:"label"`
	Color    string    `json:"color"` // "#rrggbb", empty for the default grey
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i as a float64 triple.
func (m *Mesh) Vertex(i uint32) [3]float64 {
	return [3]float64{
		float64(m.Vertices[3*i]),
		float64(m.Vertices[3*i+1]),
		float64(m.Vertices[3*i+2]),
	}
}

// Triangle returns the three corners of triangle t.
func (m *Mesh) Triangle(t int) [3][3]float64 {
	return [3][3]float64{
		m.Vertex(m.Indices[3*t]),
		m.Vertex(m.Indices[3*t+1]),
		m.Vertex(m.Indices[3*t+2]),
	}
}

// Bounds returns the axis-aligned bounds of the mesh. ok is false for an
// empty mesh.
func (m *Mesh) Bounds() (min, max [3]float64, ok bool) {
	if m.IsEmpty() {
		return min, max, false
	}
	min = m.Vertex(0)
	max = min
	for i := 1; i < m.VertexCount(); i++ {
		v := m.Vertex(uint32(i))
		for a := 0; a < 3; a++ {
			if v[a] < min[a] {
				min[a] = v[a]
			}
			if v[a] > max[a] {
				max[a] = v[a]
			}
		}
	}
	return min, max, true
}

// Append adds the triangles of o to m, re-basing o's indices.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	for _, idx := range o.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
}
