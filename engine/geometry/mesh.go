// Package geometry provides 4D wireframe meshes. A mesh is a list of vertices in object space
// plus line-list edges indexing into it; renderers draw the edges after projection.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
)

// ErrUnknownMesh is returned by ByName for names it does not know.
var ErrUnknownMesh = errors.New("unknown mesh")

// Mesh is a 4D wireframe.
type Mesh struct {
	Name     string
	Vertices []hypermath.Vec4
	Edges    [][2]uint32
}

// Indices flattens the edge list into a line-list index buffer.
//
// Returns:
//   - []uint32: two indices per edge
func (m *Mesh) Indices() []uint32 {
	out := make([]uint32, 0, len(m.Edges)*2)
	for _, e := range m.Edges {
		out = append(out, e[0], e[1])
	}
	return out
}

// Radius returns the largest distance of any vertex from the origin.
func (m *Mesh) Radius() float64 {
	r := 0.0
	for _, v := range m.Vertices {
		r = math.Max(r, v.Len())
	}
	return r
}

// Validate checks that every edge indexes an existing vertex.
func (m *Mesh) Validate() error {
	for i, e := range m.Edges {
		if int(e[0]) >= len(m.Vertices) || int(e[1]) >= len(m.Vertices) {
			return fmt.Errorf("mesh %q: edge %d (%d,%d) out of range for %d vertices", m.Name, i, e[0], e[1], len(m.Vertices))
		}
	}
	return nil
}

// Names returns the names accepted by ByName, sorted.
func Names() []string {
	out := make([]string, 0, len(builders))
	for n := range builders {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ByName builds the named regular polytope scaled to the given circumradius.
//
// Parameters:
//   - name: one of Names(), case-insensitive
//   - radius: the circumradius of the result
//
// Returns:
//   - *Mesh: the mesh
//   - error: ErrUnknownMesh for an unknown name
func ByName(name string, radius float64) (*Mesh, error) {
	b, ok := builders[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMesh, name)
	}
	return b(radius), nil
}

var builders = map[string]func(float64) *Mesh{
	"tesseract": Tesseract,
	"5-cell":    FiveCell,
	"16-cell":   SixteenCell,
	"24-cell":   TwentyFourCell,
}

// fromVertices scales vertices to radius and joins every pair at the minimum pairwise
// distance, which yields the edge set of any regular polytope.
func fromVertices(name string, verts []hypermath.Vec4, radius float64) *Mesh {
	r := 0.0
	for _, v := range verts {
		r = math.Max(r, v.Len())
	}
	if r > 0 && radius > 0 {
		for i := range verts {
			verts[i] = verts[i].Scale(radius / r)
		}
	}

	minDist := math.Inf(1)
	for i := range verts {
		for j := i + 1; j < len(verts); j++ {
			if d := verts[i].Sub(verts[j]).Len(); d > 0 && d < minDist {
				minDist = d
			}
		}
	}
	var edges [][2]uint32
	tol := minDist * 1e-9
	for i := range verts {
		for j := i + 1; j < len(verts); j++ {
			if math.Abs(verts[i].Sub(verts[j]).Len()-minDist) <= tol {
				edges = append(edges, [2]uint32{uint32(i), uint32(j)})
			}
		}
	}
	return &Mesh{Name: name, Vertices: verts, Edges: edges}
}
