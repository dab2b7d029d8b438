package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestNewTexture(t *testing.T) {
	tex := NewTexture(64, 64)
	if tex.Width != 64 || tex.Height != 64 {
		t.Errorf("Expected 64x64, got %dx%d", tex.Width, tex.Height)
	}
	if len(tex.Pixels) != 64*64 {
		t.Errorf("Expected %d pixels, got %d", 64*64, len(tex.Pixels))
	}
}

func TestCheckerTexture(t *testing.T) {
	white := RGB(255, 255, 255)
	black := RGB(0, 0, 0)
	tex := NewCheckerTexture(64, 64, 8, white, black)
	if c := tex.GetPixel(4, 4); c != white {
		t.Errorf("Expected white at (4,4), got %v", c)
	}
	if c := tex.GetPixel(12, 4); c != black {
		t.Errorf("Expected black at (12,4), got %v", c)
	}
	if c := tex.GetPixel(-1, 4); c != ColorTransparent {
		t.Errorf("Expected transparent out of range, got %v", c)
	}
}

func TestTextureSampleNearest(t *testing.T) {
	tex := NewTexture(2, 2)
	tex.SetPixel(0, 0, RGB(255, 0, 0))   // Red at top-left
	tex.SetPixel(1, 0, RGB(0, 255, 0))   // Green at top-right
	tex.SetPixel(0, 1, RGB(0, 0, 255))   // Blue at bottom-left
	tex.SetPixel(1, 1, RGB(255, 255, 0)) // Yellow at bottom-right
	tex.FilterMode = FilterNearest
	tests := []struct {
		u, v     float64
		expected Color
		name     string
	}{
		{0.01, 0.99, RGB(255, 0, 0), "top-left (red)"},
		{0.99, 0.99, RGB(0, 255, 0), "top-right (green)"},
		{0.01, 0.01, RGB(0, 0, 255), "bottom-left (blue)"},
		{0.99, 0.01, RGB(255, 255, 0), "bottom-right (yellow)"},
	}
	for _, tt := range tests {
		if c := tex.Sample(tt.u, tt.v); c != tt.expected {
			t.Errorf("Sample(%v, %v) = %v, want %v (%s)", tt.u, tt.v, c, tt.expected, tt.name)
		}
	}
}

func TestTextureSampleBilinear(t *testing.T) {
	tex := NewTexture(2, 1)
	tex.SetPixel(0, 0, RGB(0, 0, 0))
	tex.SetPixel(1, 0, RGB(200, 200, 200))
	tex.WrapU = WrapClamp
	tex.WrapV = WrapClamp
	// Halfway between the two pixel centers.
	c := tex.Sample(0.5, 0.5)
	if c.R != 100 {
		t.Errorf("bilinear midpoint = %v, want R=100", c)
	}
}

func TestTextureWrapRepeat(t *testing.T) {
	tex := NewTexture(2, 2)
	tex.SetPixel(0, 0, RGB(255, 0, 0))
	tex.SetPixel(1, 0, RGB(0, 255, 0))
	tex.WrapU = WrapRepeat
	tex.WrapV = WrapRepeat
	tex.FilterMode = FilterNearest
	c1 := tex.Sample(0.01, 0.99)
	c2 := tex.Sample(1.01, 0.99)
	if c1 != c2 {
		t.Errorf("Wrap repeat failed: Sample(0.01, 0.99)=%v != Sample(1.01, 0.99)=%v", c1, c2)
	}
	// A mirrored repeat samples from the other side.
	if got := tex.Sample(-0.01, 0.99); got != RGB(0, 255, 0) {
		t.Errorf("Sample(-0.01, 0.99) = %v, want green from the right column", got)
	}
}

func TestTextureWrapClamp(t *testing.T) {
	tex := NewTexture(2, 2)
	tex.SetPixel(0, 0, RGB(255, 0, 0)) // Red top-left
	tex.SetPixel(1, 0, RGB(0, 255, 0)) // Green top-right
	tex.WrapU = WrapClamp
	tex.WrapV = WrapClamp
	tex.FilterMode = FilterNearest
	if c := tex.Sample(-0.5, 0.99); c != RGB(255, 0, 0) {
		t.Errorf("Wrap clamp failed: Sample(-0.5, 0.99)=%v, want red", c)
	}
	if c := tex.Sample(1.5, 0.99); c != RGB(0, 255, 0) {
		t.Errorf("Wrap clamp failed: Sample(1.5, 0.99)=%v, want green", c)
	}
}

func TestBlendPixel(t *testing.T) {
	tex := NewSolidTexture(1, 1, RGB(0, 0, 0))
	tex.BlendPixel(0, 0, Color{R: 255, A: 0})
	if got := tex.GetPixel(0, 0); got != RGB(0, 0, 0) {
		t.Errorf("transparent blend changed pixel: %v", got)
	}
	tex.BlendPixel(0, 0, Color{R: 255, G: 255, B: 255, A: 128})
	if got := tex.GetPixel(0, 0); got.R != 128 || got.A != 255 {
		t.Errorf("half blend = %v, want R=128 A=255", got)
	}
}

func TestMultiplyColor(t *testing.T) {
	c := RGB(200, 100, 50)
	result := MultiplyColor(c, 0.5)
	if result.R != 100 || result.G != 50 || result.B != 25 {
		t.Errorf("MultiplyColor failed: got %v", result)
	}
	result = MultiplyColor(c, 2.0)
	if result.R != 255 {
		t.Errorf("MultiplyColor should clamp to 255, got %d", result.R)
	}
}

func TestModulateColor(t *testing.T) {
	white := RGB(255, 255, 255)
	red := RGB(255, 0, 0)
	if result := ModulateColor(white, red); result != red {
		t.Errorf("ModulateColor(white, red) = %v, want %v", result, red)
	}
	half := RGB(128, 128, 128)
	result := ModulateColor(half, white)
	if result.R != 128 || result.G != 128 || result.B != 128 {
		t.Errorf("ModulateColor(half, white) = %v, want gray", result)
	}
}

func TestLerpColor(t *testing.T) {
	black := RGB(0, 0, 0)
	white := RGB(255, 255, 255)
	mid := lerpColor(black, white, 0.5)
	if mid.R != 127 || mid.G != 127 || mid.B != 127 {
		t.Errorf("lerpColor midpoint = %v, want gray(127)", mid)
	}
	if start := lerpColor(black, white, 0.0); start != black {
		t.Errorf("lerpColor(0.0) = %v, want black", start)
	}
	if end := lerpColor(black, white, 1.0); end != white {
		t.Errorf("lerpColor(1.0) = %v, want white", end)
	}
}

func TestColorFromFloats(t *testing.T) {
	if got := ColorFromFloats([4]float64{1, 0, 0.5, 1}); got != (Color{R: 255, G: 0, B: 128, A: 255}) {
		t.Errorf("ColorFromFloats = %v", got)
	}
}

func TestTextureSavePNG(t *testing.T) {
	tex := NewTexture(100, 100)
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			tex.SetPixel(x, y, RGB(uint8(x*2), uint8(y*2), 128))
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	if err := tex.SavePNG(path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("File not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("File is empty")
	}

	loaded, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture failed: %v", err)
	}
	if got := loaded.GetPixel(10, 20); got != RGB(20, 40, 128) {
		t.Errorf("reloaded pixel = %v, want (20,40,128)", got)
	}
}

func TestTextureFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	img.Set(10, 20, color.RGBA{255, 0, 0, 255})
	img.Set(30, 40, color.RGBA{0, 255, 0, 255})

	tex := TextureFromImage(img)
	if tex.GetPixel(10, 20) != ColorRed {
		t.Errorf("Red pixel wrong: got %v", tex.GetPixel(10, 20))
	}
	if tex.GetPixel(30, 40) != ColorGreen {
		t.Errorf("Green pixel wrong: got %v", tex.GetPixel(30, 40))
	}

	out := tex.ToImage()
	if out.Bounds().Dx() != 50 || out.Bounds().Dy() != 50 {
		t.Errorf("Image dimensions wrong: got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
	r, g, b, _ := out.At(30, 40).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("Green pixel wrong: got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestLoadTextureRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTexture(path); err == nil {
		t.Error("expected decode error")
	}
}
