package geometry

import (
	"math"

	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
)

// Tesseract returns the 8-cell: 16 vertices, 32 edges.
func Tesseract(radius float64) *Mesh {
	verts := make([]hypermath.Vec4, 0, 16)
	for i := 0; i < 16; i++ {
		verts = append(verts, hypermath.V4(
			sign(i&1),
			sign(i&2),
			sign(i&4),
			sign(i&8),
		))
	}
	return fromVertices("tesseract", verts, radius)
}

// FiveCell returns the 4-simplex: 5 vertices, 10 edges.
func FiveCell(radius float64) *Mesh {
	k := 1 / math.Sqrt(5)
	verts := []hypermath.Vec4{
		hypermath.V4(1, 1, 1, -k),
		hypermath.V4(1, -1, -1, -k),
		hypermath.V4(-1, 1, -1, -k),
		hypermath.V4(-1, -1, 1, -k),
		hypermath.V4(0, 0, 0, 4*k),
	}
	return fromVertices("5-cell", verts, radius)
}

// SixteenCell returns the 4-orthoplex: 8 vertices, 24 edges.
func SixteenCell(radius float64) *Mesh {
	verts := make([]hypermath.Vec4, 0, 8)
	for axis := 0; axis < 4; axis++ {
		for _, s := range []float64{1, -1} {
			var c [4]float64
			c[axis] = s
			verts = append(verts, hypermath.V4(c[0], c[1], c[2], c[3]))
		}
	}
	return fromVertices("16-cell", verts, radius)
}

// TwentyFourCell returns the icositetrachoron: 24 vertices, 96 edges.
func TwentyFourCell(radius float64) *Mesh {
	verts := make([]hypermath.Vec4, 0, 24)
	for a := 0; a < 4; a++ {
		for b := a + 1; b < 4; b++ {
			for _, sa := range []float64{1, -1} {
				for _, sb := range []float64{1, -1} {
					var c [4]float64
					c[a], c[b] = sa, sb
					verts = append(verts, hypermath.V4(c[0], c[1], c[2], c[3]))
				}
			}
		}
	}
	return fromVertices("24-cell", verts, radius)
}

func sign(bit int) float64 {
	if bit != 0 {
		return 1
	}
	return -1
}
