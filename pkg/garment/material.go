package garment

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/taigrr/garment/pkg/math3d"
	"github.com/taigrr/garment/pkg/models"
)

// ErrInvalidColor is returned for colors that are not #RRGGBB.
var ErrInvalidColor = errors.New("invalid color")

// DefaultColor is used when no shirt color is given.
const DefaultColor = "#FFFFFF"

// Palette holds the preset shirt colors offered by the designer.
var Palette = map[string]string{
	"white": "#FFFFFF",
	"black": "#222222",
	"red":   "#D32F2F",
	"blue":  "#1976D2",
	"grey":  "#757575",
}

// Base surface parameters shared by every region.
const (
	DefaultRoughness = 0.8
	DefaultMetalness = 0.7
)

// FabricMaps are the shared PBR detail maps applied to every region.
type FabricMaps struct {
	AO        image.Image
	Normal    image.Image
	Roughness image.Image
}

// MaterialOptions are the inputs materials are derived from.
type MaterialOptions struct {
	Color    string // #RRGGBB, empty for DefaultColor
	Pattern  image.Image
	LogoMode bool
	Fabric   FabricMaps
}

// RegionMaterial is the surface description for one region.
type RegionMaterial struct {
	Region      Region
	Color       string
	BaseColor   [4]float64
	Roughness   float64
	Metalness   float64
	DoubleSided bool

	// Pattern is nil in logo mode.
	Pattern image.Image
	// Repeat is the pattern repeat; a negative component mirrors that axis.
	Repeat math3d.Vec2

	Fabric FabricMaps
}

// Materials is the per-region material set. It is derived wholesale from
// MaterialOptions and never edited in place.
type Materials [4]RegionMaterial

// For returns the material of region r.
func (m *Materials) For(r Region) RegionMaterial {
	return m[r]
}

// NewMaterials derives the four region materials. The back mirrors the
// pattern horizontally so it reads correctly from behind; logo mode strips
// the pattern from every region.
func NewMaterials(opts MaterialOptions) (*Materials, error) {
	hex := opts.Color
	if hex == "" {
		hex = DefaultColor
	}
	rgba, err := ParseColor(hex)
	if err != nil {
		return nil, err
	}

	var mats Materials
	for _, r := range Regions {
		mat := RegionMaterial{
			Region:      r,
			Color:       strings.ToUpper(hex),
			BaseColor:   rgba,
			Roughness:   DefaultRoughness,
			Metalness:   DefaultMetalness,
			DoubleSided: true,
			Repeat:      math3d.V2(1, 1),
			Fabric:      opts.Fabric,
		}
		if r == Back {
			mat.Repeat = math3d.V2(-1, 1)
		}
		if !opts.LogoMode {
			mat.Pattern = opts.Pattern
		}
		mats[r] = mat
	}
	return &mats, nil
}

// ParseColor parses #RRGGBB into RGBA components in [0, 1].
func ParseColor(s string) ([4]float64, error) {
	if len(s) != 7 || s[0] != '#' {
		return [4]float64{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return [4]float64{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return [4]float64{
		float64(v>>16&0xff) / 255,
		float64(v>>8&0xff) / 255,
		float64(v&0xff) / 255,
		1,
	}, nil
}

// Model converts the material for export. A mirrored repeat is baked into
// the pattern image since the exported material has no texture transform.
func (m RegionMaterial) Model() models.Material {
	out := models.Material{
		Name:        m.Region.String(),
		BaseColor:   m.BaseColor,
		Metallic:    m.Metalness,
		Roughness:   m.Roughness,
		DoubleSided: m.DoubleSided,
	}
	if m.Pattern != nil {
		out.BaseMap = mirror(m.Pattern, m.Repeat.X < 0, m.Repeat.Y < 0)
	}
	return out
}

func mirror(src image.Image, flipX, flipY bool) image.Image {
	if !flipX && !flipY {
		return src
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			sx, sy := x, y
			if flipX {
				sx = b.Dx() - 1 - x
			}
			if flipY {
				sy = b.Dy() - 1 - y
			}
			dst.Set(x, y, src.At(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return dst
}

// Apply assigns m as the sole material of mesh.
func (m RegionMaterial) Apply(mesh *models.Mesh) {
	mesh.Materials = []models.Material{m.Model()}
	for i := range mesh.Faces {
		mesh.Faces[i].Material = 0
	}
}
