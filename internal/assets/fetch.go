// Package assets fetches and caches the garment model and fabric maps, and
// validates user uploads.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/taigrr/garment/pkg/garment"
	"github.com/taigrr/garment/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher downloads remote assets once and serves later requests from a disk
// cache. References without a scheme are read from the local filesystem.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	log      *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// NewFetcher creates a Fetcher caching into cacheDir. An empty cacheDir
// disables caching.
func NewFetcher(cacheDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		cacheDir: cacheDir,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the bytes behind ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		if u != nil && u.Scheme == "file" {
			ref = u.Path
		}
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("read asset: %w", err)
		}
		return data, nil
	}

	cachePath := f.cachePath(ref)
	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil {
			f.log.Debug("asset cache hit", zap.String("url", ref))
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", ref, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	f.log.Debug("asset downloaded", zap.String("url", ref), zap.Int("bytes", len(data)))

	if cachePath != "" {
		if err := writeAtomic(cachePath, data); err != nil {
			f.log.Warn("asset cache write failed", zap.String("path", cachePath), zap.Error(err))
		}
	}
	return data, nil
}

// cachePath names the cache entry for a URL, keeping its extension.
func (f *Fetcher) cachePath(ref string) string {
	if f.cacheDir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ref))
	name := hex.EncodeToString(sum[:16])
	if u, err := url.Parse(ref); err == nil {
		name += strings.ToLower(path.Ext(u.Path))
	}
	return filepath.Join(f.cacheDir, name)
}

func writeAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// LoadModel fetches and parses a GLB, STL or OBJ garment model.
func (f *Fetcher) LoadModel(ctx context.Context, ref string) (*models.Mesh, error) {
	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	mesh, err := models.DecodeModel(data, path.Base(ref))
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return mesh, nil
}

// FetchImage fetches and decodes a PNG or JPEG image.
func (f *Fetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	if _, err := Sniff(data); err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return img, nil
}

// FabricRefs locates the three shared PBR detail maps.
type FabricRefs struct {
	AO        string
	Normal    string
	Roughness string
}

// LoadFabricMaps fetches the AO, normal and roughness maps concurrently,
// resolving relative references against base. The first failure cancels the
// remaining downloads.
func (f *Fetcher) LoadFabricMaps(ctx context.Context, base string, refs FabricRefs) (garment.FabricMaps, error) {
	var maps garment.FabricMaps
	g, gctx := errgroup.WithContext(ctx)

	load := func(ref string, dst *image.Image) {
		g.Go(func() error {
			resolved, err := ResolveURL(base, ref)
			if err != nil {
				return err
			}
			img, err := f.FetchImage(gctx, resolved)
			if err != nil {
				return err
			}
			*dst = img
			return nil
		})
	}
	load(refs.AO, &maps.AO)
	load(refs.Normal, &maps.Normal)
	load(refs.Roughness, &maps.Roughness)

	if err := g.Wait(); err != nil {
		return garment.FabricMaps{}, fmt.Errorf("load fabric maps: %w", err)
	}
	return maps, nil
}

// ResolveURL resolves ref against base. Absolute references and an empty
// base return ref unchanged.
func ResolveURL(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", ref, err)
	}
	if r.IsAbs() || base == "" {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}
