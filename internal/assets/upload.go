package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // decoder registration
	"image/png"
	"os"
	"sync"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"golang.org/x/image/draw"
)

// ErrNotImage is returned for uploads that are not PNG or JPEG.
var ErrNotImage = errors.New("not a png or jpeg image")

// Sniff identifies data by content and accepts only PNG and JPEG.
func Sniff(data []byte) (types.Type, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return types.Type{}, ErrNotImage
	}
	switch kind.MIME.Value {
	case "image/png", "image/jpeg":
		return kind, nil
	}
	return types.Type{}, fmt.Errorf("%w: got %s", ErrNotImage, kind.MIME.Value)
}

// DecodeUpload validates and decodes an uploaded logo or pattern. Images whose
// longer side exceeds maxPx are scaled down to fit; maxPx <= 0 disables it.
func DecodeUpload(data []byte, maxPx int) (image.Image, types.Type, error) {
	kind, err := Sniff(data)
	if err != nil {
		return nil, types.Type{}, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, types.Type{}, fmt.Errorf("decode upload: %w", err)
	}
	return Downscale(img, maxPx), kind, nil
}

// Downscale returns img resized so that neither side exceeds maxPx, keeping
// the aspect ratio. Images already within bounds are returned as is.
func Downscale(img image.Image, maxPx int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxPx <= 0 || (w <= maxPx && h <= maxPx) {
		return img
	}
	nw, nh := maxPx, maxPx
	if w > h {
		nh = max(1, h*maxPx/w)
	} else {
		nw = max(1, w*maxPx/h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Preview is a temporary PNG copy of an upload used for local display. It
// must be released once it is replaced or no longer shown.
type Preview struct {
	Path string

	once sync.Once
}

// NewPreview writes img to a temporary PNG file.
func NewPreview(img image.Image) (*Preview, error) {
	f, err := os.CreateTemp("", "garment-preview-*.png")
	if err != nil {
		return nil, fmt.Errorf("create preview: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close preview: %w", err)
	}
	return &Preview{Path: f.Name()}, nil
}

// Release removes the preview file. It is safe to call more than once and on
// a nil Preview.
func (p *Preview) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() { os.Remove(p.Path) })
}

// PreviewSlot holds at most one live preview, releasing the previous one
// whenever it is replaced.
type PreviewSlot struct {
	mu      sync.Mutex
	current *Preview
}

// Replace stores p and releases whatever preview it displaces.
func (s *PreviewSlot) Replace(p *Preview) {
	s.mu.Lock()
	old := s.current
	s.current = p
	s.mu.Unlock()
	if old != p {
		old.Release()
	}
}

// Current returns the live preview, or nil.
func (s *PreviewSlot) Current() *Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Release drops and removes the live preview.
func (s *PreviewSlot) Release() {
	s.Replace(nil)
}
