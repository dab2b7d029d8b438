package garment

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/taigrr/garment/pkg/math3d"
)

func TestNewMaterialsDefaults(t *testing.T) {
	mats, err := NewMaterials(MaterialOptions{})
	if err != nil {
		t.Fatalf("NewMaterials failed: %v", err)
	}
	for _, r := range Regions {
		m := mats.For(r)
		if m.Color != DefaultColor {
			t.Errorf("%s: color %q, want %q", r, m.Color, DefaultColor)
		}
		if m.BaseColor != [4]float64{1, 1, 1, 1} {
			t.Errorf("%s: base color %v", r, m.BaseColor)
		}
		if m.Roughness != 0.8 || m.Metalness != 0.7 || !m.DoubleSided {
			t.Errorf("%s: roughness=%v metalness=%v doubleSided=%v", r, m.Roughness, m.Metalness, m.DoubleSided)
		}
	}
}

func TestNewMaterialsPatternRepeat(t *testing.T) {
	pattern := image.NewRGBA(image.Rect(0, 0, 2, 2))
	mats, err := NewMaterials(MaterialOptions{Color: "#1976d2", Pattern: pattern})
	if err != nil {
		t.Fatalf("NewMaterials failed: %v", err)
	}

	tests := []struct {
		region Region
		repeat math3d.Vec2
	}{
		{RightSleeve, math3d.V2(1, 1)},
		{LeftSleeve, math3d.V2(1, 1)},
		{Front, math3d.V2(1, 1)},
		{Back, math3d.V2(-1, 1)},
	}
	for _, tt := range tests {
		m := mats.For(tt.region)
		if m.Repeat != tt.repeat {
			t.Errorf("%s: repeat %v, want %v", tt.region, m.Repeat, tt.repeat)
		}
		if m.Pattern == nil {
			t.Errorf("%s: expected pattern", tt.region)
		}
		if m.Color != "#1976D2" {
			t.Errorf("%s: color %q, want #1976D2", tt.region, m.Color)
		}
	}
}

func TestNewMaterialsLogoModeClearsPattern(t *testing.T) {
	pattern := image.NewRGBA(image.Rect(0, 0, 2, 2))
	mats, err := NewMaterials(MaterialOptions{Pattern: pattern, LogoMode: true})
	if err != nil {
		t.Fatalf("NewMaterials failed: %v", err)
	}
	for _, r := range Regions {
		if mats.For(r).Pattern != nil {
			t.Errorf("%s: pattern should be cleared in logo mode", r)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    [4]float64
		wantErr bool
	}{
		{"#FFFFFF", [4]float64{1, 1, 1, 1}, false},
		{"#000000", [4]float64{0, 0, 0, 1}, false},
		{"#ff0000", [4]float64{1, 0, 0, 1}, false},
		{"FFFFFF", [4]float64{}, true},
		{"#FFF", [4]float64{}, true},
		{"#GGGGGG", [4]float64{}, true},
		{"", [4]float64{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidColor) {
				t.Errorf("ParseColor(%q) err = %v, want ErrInvalidColor", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	for name, hex := range Palette {
		if _, err := ParseColor(hex); err != nil {
			t.Errorf("palette %s: %v", name, err)
		}
	}
	if _, err := NewMaterials(MaterialOptions{Color: "red"}); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("NewMaterials with color name: err = %v", err)
	}
}

func TestRegionMaterialModelMirrorsBack(t *testing.T) {
	pattern := image.NewRGBA(image.Rect(0, 0, 2, 1))
	pattern.Set(0, 0, color.RGBA{255, 0, 0, 255})
	pattern.Set(1, 0, color.RGBA{0, 0, 255, 255})

	mats, err := NewMaterials(MaterialOptions{Pattern: pattern})
	if err != nil {
		t.Fatalf("NewMaterials failed: %v", err)
	}

	front := mats.For(Front).Model()
	if r, _, _, _ := front.BaseMap.At(0, 0).RGBA(); r == 0 {
		t.Error("front pattern should not be mirrored")
	}
	back := mats.For(Back).Model()
	if _, _, b, _ := back.BaseMap.At(0, 0).RGBA(); b == 0 {
		t.Error("back pattern should be mirrored horizontally")
	}
	if back.Name != "back" || back.Metallic != DefaultMetalness {
		t.Errorf("back model = %+v", back)
	}

	mesh := boxShirt()
	mats.For(Front).Apply(mesh)
	if len(mesh.Materials) != 1 || mesh.Faces[0].Material != 0 {
		t.Error("Apply did not assign the material")
	}
}
