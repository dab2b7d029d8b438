package render

import (
	"math"

	"github.com/taigrr/garment/pkg/math3d"
	"github.com/taigrr/garment/pkg/models"
)

// BakeDecal paints logo into dst, the texture of surface. Each surface
// triangle is rasterized in UV space; at every covered texel the surface
// position is mapped through toDecal into the unit projector box, and texels
// inside the box receive the logo sampled at (x+0.5, y+0.5), alpha-blended.
// It returns the number of texels written.
func BakeDecal(dst *Texture, surface *models.Mesh, toDecal math3d.Mat4, logo *Texture) int {
	if dst.Width == 0 || dst.Height == 0 || logo == nil {
		return 0
	}
	written := 0
	for i := range surface.Faces {
		p0, p1, p2 := surface.FacePositions(i)
		uv0, uv1, uv2 := surface.FaceUVs(i)

		// Texel-space corners; V is flipped like Sample.
		s0 := texelPos(dst, uv0)
		s1 := texelPos(dst, uv1)
		s2 := texelPos(dst, uv2)
		area := s1.Sub(s0).Cross(s2.Sub(s0))
		if math.Abs(area) < 1e-12 {
			continue
		}

		minX := clampInt(int(math.Floor(min(s0.X, s1.X, s2.X))), 0, dst.Width-1)
		maxX := clampInt(int(math.Ceil(max(s0.X, s1.X, s2.X))), 0, dst.Width-1)
		minY := clampInt(int(math.Floor(min(s0.Y, s1.Y, s2.Y))), 0, dst.Height-1)
		maxY := clampInt(int(math.Ceil(max(s0.Y, s1.Y, s2.Y))), 0, dst.Height-1)

		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				p := math3d.V2(float64(x)+0.5, float64(y)+0.5)
				w0 := s2.Sub(s1).Cross(p.Sub(s1)) / area
				w1 := s0.Sub(s2).Cross(p.Sub(s2)) / area
				w2 := 1 - w0 - w1
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				pos := p0.Scale(w0).Add(p1.Scale(w1)).Add(p2.Scale(w2))
				b := toDecal.MulVec3(pos)
				if math.Abs(b.X) > 0.5 || math.Abs(b.Y) > 0.5 || math.Abs(b.Z) > 0.5 {
					continue
				}
				dst.BlendPixel(x, y, logo.Sample(b.X+0.5, b.Y+0.5))
				written++
			}
		}
	}
	return written
}

func texelPos(t *Texture, uv math3d.Vec2) math3d.Vec2 {
	return math3d.V2(uv.X*float64(t.Width), (1-uv.Y)*float64(t.Height))
}
