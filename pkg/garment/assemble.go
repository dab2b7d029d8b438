package garment

import (
	"github.com/taigrr/garment/pkg/math3d"
	"github.com/taigrr/garment/pkg/models"
)

// BuildGeometry packs a triangle list into a mesh. Each triangle gets three
// fresh vertices; nothing is welded. Triangles without UVs use their XY
// position as texture coordinates. Normals and bounds are recomputed. An
// empty list yields an empty, valid mesh.
func BuildGeometry(name string, tris []Triangle) *models.Mesh {
	mesh := models.NewMesh(name)
	mesh.Vertices = make([]models.MeshVertex, 0, len(tris)*3)
	mesh.Faces = make([]models.Face, 0, len(tris))
	mesh.HasUVs = true

	for _, t := range tris {
		base := len(mesh.Vertices)
		for i, v := range t.V {
			uv := t.UV[i]
			if !t.HasUV {
				uv = math3d.V2(v.X, v.Y)
			}
			mesh.Vertices = append(mesh.Vertices, models.MeshVertex{Position: v, UV: uv})
		}
		mesh.Faces = append(mesh.Faces, models.Face{
			V:        [3]int{base, base + 1, base + 2},
			Material: -1,
		})
	}

	mesh.CalculateSmoothNormals()
	mesh.CalculateBounds()
	return mesh
}

// Triangles flattens a mesh back into a triangle list.
func Triangles(mesh *models.Mesh) []Triangle {
	tris := make([]Triangle, len(mesh.Faces))
	for i := range mesh.Faces {
		t := &tris[i]
		t.V[0], t.V[1], t.V[2] = mesh.FacePositions(i)
		t.UV[0], t.UV[1], t.UV[2] = mesh.FaceUVs(i)
		t.HasUV = mesh.HasUVs
	}
	return tris
}
