package garment

import (
	"math"

	"github.com/taigrr/garment/pkg/math3d"
	"github.com/taigrr/garment/pkg/models"
)

const tol = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < tol
}

func nearVec(a, b math3d.Vec3) bool {
	return a.Distance(b) < tol
}

func trianglesArea(tris []Triangle) float64 {
	var total float64
	for _, t := range tris {
		total += t.Area()
	}
	return total
}

// meshBuilder accumulates faces with per-corner UVs.
type meshBuilder struct {
	mesh *models.Mesh
}

func newMeshBuilder(name string) *meshBuilder {
	m := models.NewMesh(name)
	m.HasUVs = true
	return &meshBuilder{mesh: m}
}

func (b *meshBuilder) tri(p [3]math3d.Vec3, uv [3]math3d.Vec2) {
	base := len(b.mesh.Vertices)
	for i := range 3 {
		b.mesh.Vertices = append(b.mesh.Vertices, models.MeshVertex{Position: p[i], UV: uv[i]})
	}
	b.mesh.Faces = append(b.mesh.Faces, models.Face{V: [3]int{base, base + 1, base + 2}, Material: -1})
}

// panel adds an n x n grid spanning x, y in [-1, 1] at depth z. Front panels
// face +Z, back panels face -Z.
func (b *meshBuilder) panel(z float64, n int, front bool) {
	step := 2.0 / float64(n)
	for i := range n {
		for j := range n {
			x0, y0 := -1+float64(i)*step, -1+float64(j)*step
			x1, y1 := x0+step, y0+step
			p00, p10 := math3d.V3(x0, y0, z), math3d.V3(x1, y0, z)
			p11, p01 := math3d.V3(x1, y1, z), math3d.V3(x0, y1, z)
			uv := func(p math3d.Vec3) math3d.Vec2 { return math3d.V2((p.X+1)/2, (p.Y+1)/2) }
			quad := [][3]math3d.Vec3{{p00, p10, p11}, {p00, p11, p01}}
			if !front {
				quad = [][3]math3d.Vec3{{p00, p11, p10}, {p00, p01, p11}}
			}
			for _, q := range quad {
				b.tri(q, [3]math3d.Vec2{uv(q[0]), uv(q[1]), uv(q[2])})
			}
		}
	}
}

// wall adds a strip along the top edge joining the front and back panels.
func (b *meshBuilder) wall(n int, depth float64) {
	step := 2.0 / float64(n)
	for i := range n {
		x0, x1 := -1+float64(i)*step, -1+float64(i+1)*step
		a, c := math3d.V3(x0, 1, -depth), math3d.V3(x1, 1, depth)
		bb, d := math3d.V3(x1, 1, -depth), math3d.V3(x0, 1, depth)
		b.tri([3]math3d.Vec3{a, c, bb}, [3]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 0}})
		b.tri([3]math3d.Vec3{a, d, c}, [3]math3d.Vec2{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}})
	}
}

// boxShirt is a closed-ish test garment: front and back panels at z = ±0.1
// joined along the top.
func boxShirt() *models.Mesh {
	b := newMeshBuilder("shirt")
	b.panel(0.1, 8, true)
	b.panel(-0.1, 8, false)
	b.wall(8, 0.1)
	b.mesh.CalculateSmoothNormals()
	b.mesh.CalculateBounds()
	return b.mesh
}
