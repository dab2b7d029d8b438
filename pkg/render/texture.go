// Package render holds CPU-side texture handling: sampling, decal baking and
// PNG output.
package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// Common colors.
var (
	ColorBlack       = RGB(0, 0, 0)
	ColorWhite       = RGB(255, 255, 255)
	ColorRed         = RGB(255, 0, 0)
	ColorGreen       = RGB(0, 255, 0)
	ColorTransparent = Color{}
)

// WrapMode controls how UVs outside [0, 1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClamp
)

// FilterMode controls texture filtering.
type FilterMode int

const (
	FilterBilinear FilterMode = iota
	FilterNearest
)

// Texture is a 2D image sampled with UV coordinates. V runs bottom to top, so
// V=1 is the first row of Pixels.
type Texture struct {
	Width, Height int
	Pixels        []Color
	WrapU, WrapV  WrapMode
	FilterMode    FilterMode
}

// NewTexture creates a transparent texture.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// NewSolidTexture creates a texture filled with c.
func NewSolidTexture(width, height int, c Color) *Texture {
	tex := NewTexture(width, height)
	for i := range tex.Pixels {
		tex.Pixels[i] = c
	}
	return tex
}

// NewCheckerTexture creates a checkerboard, useful for checking UV layouts.
func NewCheckerTexture(width, height, cellSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			if ((x/cellSize)+(y/cellSize))%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// GetPixel returns the pixel at (x, y), or transparent when out of range.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return ColorTransparent
	}
	return t.Pixels[y*t.Width+x]
}

// SetPixel sets the pixel at (x, y). Out of range writes are ignored.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// BlendPixel composites c over the pixel at (x, y) using c's alpha.
func (t *Texture) BlendPixel(x, y int, c Color) {
	if c.A == 0 {
		return
	}
	if c.A == 255 {
		t.SetPixel(x, y, c)
		return
	}
	dst := t.GetPixel(x, y)
	a := float64(c.A) / 255
	t.SetPixel(x, y, Color{
		R: uint8(float64(c.R)*a + float64(dst.R)*(1-a) + 0.5),
		G: uint8(float64(c.G)*a + float64(dst.G)*(1-a) + 0.5),
		B: uint8(float64(c.B)*a + float64(dst.B)*(1-a) + 0.5),
		A: uint8(math.Min(255, float64(c.A)+float64(dst.A)*(1-a)+0.5)),
	})
}

// Sample returns the color at (u, v).
func (t *Texture) Sample(u, v float64) Color {
	if t.Width == 0 || t.Height == 0 {
		return ColorTransparent
	}
	u = wrap(u, t.WrapU)
	v = wrap(v, t.WrapV)

	fx := u * float64(t.Width)
	fy := (1 - v) * float64(t.Height)

	if t.FilterMode == FilterNearest {
		x := clampInt(int(fx), 0, t.Width-1)
		y := clampInt(int(fy), 0, t.Height-1)
		return t.Pixels[y*t.Width+x]
	}

	// Bilinear between pixel centers.
	fx -= 0.5
	fy -= 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	c00 := t.texel(x0, y0)
	c10 := t.texel(x0+1, y0)
	c01 := t.texel(x0, y0+1)
	c11 := t.texel(x0+1, y0+1)

	return lerpColor(lerpColor(c00, c10, tx), lerpColor(c01, c11, tx), ty)
}

// texel fetches a pixel applying the wrap modes to integer coordinates.
func (t *Texture) texel(x, y int) Color {
	if t.WrapU == WrapRepeat {
		x = ((x % t.Width) + t.Width) % t.Width
	} else {
		x = clampInt(x, 0, t.Width-1)
	}
	if t.WrapV == WrapRepeat {
		y = ((y % t.Height) + t.Height) % t.Height
	} else {
		y = clampInt(y, 0, t.Height-1)
	}
	return t.Pixels[y*t.Width+x]
}

func wrap(x float64, mode WrapMode) float64 {
	if mode == WrapClamp {
		return math.Max(0, math.Min(1, x))
	}
	x -= math.Floor(x)
	return x
}

func clampInt(x, lo, hi int) int {
	return max(lo, min(x, hi))
}

func lerpColor(a, b Color, t float64) Color {
	return Color{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t),
	}
}

// MultiplyColor scales the RGB channels by f, clamping to 255.
func MultiplyColor(c Color, f float64) Color {
	return Color{
		R: uint8(math.Min(255, float64(c.R)*f)),
		G: uint8(math.Min(255, float64(c.G)*f)),
		B: uint8(math.Min(255, float64(c.B)*f)),
		A: c.A,
	}
}

// ModulateColor multiplies two colors channel by channel.
func ModulateColor(a, b Color) Color {
	return Color{
		R: uint8(uint16(a.R) * uint16(b.R) / 255),
		G: uint8(uint16(a.G) * uint16(b.G) / 255),
		B: uint8(uint16(a.B) * uint16(b.B) / 255),
		A: uint8(uint16(a.A) * uint16(b.A) / 255),
	}
}

// ColorFromFloats converts RGBA components in [0, 1].
func ColorFromFloats(c [4]float64) Color {
	conv := func(f float64) uint8 { return uint8(math.Max(0, math.Min(1, f))*255 + 0.5) }
	return Color{R: conv(c[0]), G: conv(c[1]), B: conv(c[2]), A: conv(c[3])}
}

// TextureFromImage copies img into a texture.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	tex := NewTexture(b.Dx(), b.Dy())
	for y := range b.Dy() {
		for x := range b.Dx() {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			tex.Pixels[y*tex.Width+x] = Color{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	return tex
}

// LoadTexture loads a PNG or JPEG file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return TextureFromImage(img), nil
}

// ToImage converts the texture to an image.NRGBA.
func (t *Texture) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := range t.Height {
		for x := range t.Width {
			c := t.Pixels[y*t.Width+x]
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
	return img
}

// SavePNG writes the texture to path as a PNG.
func (t *Texture) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, t.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
