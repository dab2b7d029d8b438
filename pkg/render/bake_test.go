package render

import (
	"testing"

	"github.com/taigrr/garment/pkg/math3d"
	"github.com/taigrr/garment/pkg/models"
)

// unitQuad spans x, y in [-1, 1] at z = 0 with UVs covering [0, 1].
func unitQuad() *models.Mesh {
	mesh := models.NewMesh("front")
	for _, p := range []math3d.Vec3{
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0),
	} {
		mesh.Vertices = append(mesh.Vertices, models.MeshVertex{
			Position: p,
			UV:       math3d.V2((p.X+1)/2, (p.Y+1)/2),
		})
	}
	mesh.Faces = []models.Face{{V: [3]int{0, 1, 2}}, {V: [3]int{0, 2, 3}}}
	mesh.HasUVs = true
	return mesh
}

func TestBakeDecal(t *testing.T) {
	dst := NewSolidTexture(64, 64, ColorWhite)

	// Green on the upper half of the logo, red below.
	logo := NewTexture(2, 2)
	logo.FilterMode = FilterNearest
	logo.SetPixel(0, 0, ColorGreen)
	logo.SetPixel(1, 0, ColorGreen)
	logo.SetPixel(0, 1, ColorRed)
	logo.SetPixel(1, 1, ColorRed)

	// Identity: the unit box covers the central half of the quad.
	written := BakeDecal(dst, unitQuad(), math3d.Identity(), logo)
	if written < 32*32 {
		t.Errorf("wrote %d texels, want at least %d", written, 32*32)
	}

	tests := []struct {
		x, y int
		want Color
		name string
	}{
		{5, 5, ColorWhite, "outside the box"},
		{15, 32, ColorWhite, "just left of the box"},
		{16, 40, ColorRed, "lower half"},
		{40, 20, ColorGreen, "upper half"},
		{47, 47, ColorRed, "bottom right corner"},
		{48, 32, ColorWhite, "just right of the box"},
	}
	for _, tt := range tests {
		if got := dst.GetPixel(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel (%d,%d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestBakeDecalMissesBox(t *testing.T) {
	dst := NewSolidTexture(16, 16, ColorWhite)
	logo := NewSolidTexture(1, 1, ColorRed)
	far := math3d.Translate(math3d.V3(0, 0, 10))
	if n := BakeDecal(dst, unitQuad(), far, logo); n != 0 {
		t.Errorf("wrote %d texels, want 0", n)
	}
	if n := BakeDecal(dst, unitQuad(), math3d.Identity(), nil); n != 0 {
		t.Errorf("nil logo wrote %d texels", n)
	}
}
