package garment

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/taigrr/garment/pkg/math3d"
)

func TestDecalParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  DecalParams
		wantErr bool
	}{
		{"default", DefaultDecalParams(), false},
		{"min scale", DecalParams{Scale: 0.01, Target: Front}, false},
		{"max scale", DecalParams{Scale: 0.5, Offset: math3d.V2(0.25, -0.2), Target: Back}, false},
		{"scale too small", DecalParams{Scale: 0.005, Target: Front}, true},
		{"scale too large", DecalParams{Scale: 0.6, Target: Front}, true},
		{"offset x too far", DecalParams{Scale: 0.2, Offset: math3d.V2(0.45, 0), Target: Front}, true},
		{"offset y too far", DecalParams{Scale: 0.2, Offset: math3d.V2(0, 0.25), Target: Front}, true},
		{"nan offset", DecalParams{Scale: 0.2, Offset: math3d.V2(math.NaN(), 0), Target: Front}, true},
		{"sleeve target", DecalParams{Scale: 0.2, Target: LeftSleeve}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidDecal) {
				t.Errorf("err = %v, want ErrInvalidDecal", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPlacementClampsOffsetY(t *testing.T) {
	tests := []struct {
		scale   float64
		offsetY float64
		wantY   float64
	}{
		{0.18, 0.5, 0.08},
		{0.18, -0.5, -0.08},
		{0.15, 0.1, 0.08},
		{0.2, 0.1, 0.08},
		{0.18, 0.05, 0.05},
		{0.25, 0.1, 0.1},
		{0.1, -0.15, -0.15},
	}
	for _, tt := range tests {
		pl := DecalParams{Scale: tt.scale, Offset: math3d.V2(0.02, tt.offsetY), Target: Front}.Placement()
		if !near(pl.Position.Y, tt.wantY) || !near(pl.Offset.Y, tt.wantY) {
			t.Errorf("scale %v offset %v: y = %v, want %v", tt.scale, tt.offsetY, pl.Position.Y, tt.wantY)
		}
		if pl.Position.X != 0.02 {
			t.Errorf("x = %v, want 0.02", pl.Position.X)
		}
	}
}

func TestPlacementTarget(t *testing.T) {
	front := DecalParams{Scale: 0.3, Target: Front}.Placement()
	if front.Position.Z != 0.15 || front.RotationY != 0 {
		t.Errorf("front placement = %+v", front)
	}
	if front.Size != math3d.V3(0.15, 0.15, 0.15) {
		t.Errorf("size = %v, want 0.15 uniform", front.Size)
	}

	back := DecalParams{Scale: 0.3, Target: Back}.Placement()
	if back.Position.Z != -0.15 || back.RotationY != math.Pi {
		t.Errorf("back placement = %+v", back)
	}
}

func TestPlacementInverse(t *testing.T) {
	pl := DecalParams{Scale: 0.3, Offset: math3d.V2(0.1, -0.05), Target: Back}.Placement()
	round := pl.Inverse().Mul(pl.Matrix())
	p := math3d.V3(0.3, -0.2, 0.4)
	if got := round.MulVec3(p); !nearVec(got, p) {
		t.Errorf("inverse round trip = %v, want %v", got, p)
	}
}

func TestProjectDecal(t *testing.T) {
	tests := []struct {
		name   string
		target Region
		z      float64
		uSign  float64 // direction u grows along mesh x
	}{
		{"front", Front, 0.1, 1},
		{"back", Back, -0.1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DecalParams{Scale: 0.4, Target: tt.target}
			decal, err := ProjectDecal(boxShirt(), params)
			if err != nil {
				t.Fatalf("ProjectDecal failed: %v", err)
			}
			if decal.Name != "decal" {
				t.Errorf("Name = %q, want decal", decal.Name)
			}

			side := params.Scale * 0.5
			if got := decal.SurfaceArea(); math.Abs(got-side*side) > 1e-9 {
				t.Errorf("area = %v, want %v", got, side*side)
			}
			for _, v := range decal.Vertices {
				if math.Abs(v.Position.Z-tt.z) > 2*DecalBias || math.Abs(v.Position.Z-tt.z) < DecalBias/2 {
					t.Fatalf("vertex %v not lifted off z=%v", v.Position, tt.z)
				}
				wantU := tt.uSign*v.Position.X/side + 0.5
				if math.Abs(v.UV.X-wantU) > 1e-9 {
					t.Fatalf("vertex %v: u = %v, want %v", v.Position, v.UV.X, wantU)
				}
				if v.UV.Y < -1e-9 || v.UV.Y > 1+1e-9 {
					t.Fatalf("vertex %v: v = %v out of range", v.Position, v.UV.Y)
				}
			}
		})
	}
}

func TestProjectDecalMiss(t *testing.T) {
	mesh := boxShirt()
	mesh.Transform(math3d.Translate(math3d.V3(0, 0, 5)))
	decal, err := ProjectDecal(mesh, DefaultDecalParams())
	if err != nil {
		t.Fatalf("ProjectDecal failed: %v", err)
	}
	if decal.TriangleCount() != 0 {
		t.Errorf("expected empty decal, got %d triangles", decal.TriangleCount())
	}
}

func TestProjectDecalClampsOffset(t *testing.T) {
	params := DecalParams{Scale: 0.18, Offset: math3d.V2(0, 0.5), Target: Front}
	if err := params.Validate(); !errors.Is(err, ErrInvalidDecal) {
		t.Fatalf("Validate err = %v, want ErrInvalidDecal", err)
	}
	// A box this small only reaches z in [0.105, 0.195]; move the front panel into it.
	mesh := boxShirt()
	mesh.Transform(math3d.Translate(math3d.V3(0, 0, 0.05)))
	decal, err := ProjectDecal(mesh, params)
	if err != nil {
		t.Fatalf("ProjectDecal failed: %v", err)
	}
	if decal.TriangleCount() == 0 {
		t.Fatal("expected decal triangles")
	}

	half := params.Scale * 0.25
	if !near(decal.BoundsMin.Y, 0.08-half) || !near(decal.BoundsMax.Y, 0.08+half) {
		t.Errorf("decal y span = [%v, %v], want centered on 0.08 with half height %v",
			decal.BoundsMin.Y, decal.BoundsMax.Y, half)
	}
}

func TestProjectDecalRejectsUnusable(t *testing.T) {
	tests := []struct {
		name   string
		params DecalParams
	}{
		{"zero scale", DecalParams{Scale: 0, Target: Front}},
		{"negative scale", DecalParams{Scale: -0.2, Target: Front}},
		{"infinite scale", DecalParams{Scale: math.Inf(1), Target: Front}},
		{"nan offset", DecalParams{Scale: 0.2, Offset: math3d.V2(0, math.NaN()), Target: Front}},
		{"sleeve target", DecalParams{Scale: 0.2, Target: RightSleeve}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProjectDecal(boxShirt(), tt.params)
			if !errors.Is(err, ErrInvalidDecal) {
				t.Errorf("err = %v, want ErrInvalidDecal", err)
			}
		})
	}
}

func TestDecalMaterial(t *testing.T) {
	logo := image.NewRGBA(image.Rect(0, 0, 1, 1))
	m := NewDecalMaterial(logo, FabricMaps{})
	if m.PolygonOffsetFactor != -1 || m.PolygonOffsetUnits != -1 || !m.PolygonOffset {
		t.Errorf("polygon offset = %v/%v", m.PolygonOffsetFactor, m.PolygonOffsetUnits)
	}
	if !m.Transparent || m.DepthWrite {
		t.Errorf("transparent=%v depthWrite=%v", m.Transparent, m.DepthWrite)
	}
	if m.Model().BaseMap != logo {
		t.Error("decal model should carry the logo")
	}

	decal, err := ProjectDecal(boxShirt(), DefaultDecalParams())
	if err != nil {
		t.Fatal(err)
	}
	m.Apply(decal)
	if len(decal.Materials) != 1 || decal.Materials[0].Name != "decal" {
		t.Fatalf("materials = %+v", decal.Materials)
	}
	for i, f := range decal.Faces {
		if f.Material != 0 {
			t.Fatalf("face %d material = %d", i, f.Material)
		}
	}
}
