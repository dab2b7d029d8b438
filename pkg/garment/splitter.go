package garment

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/garment/pkg/math3d"
	"github.com/taigrr/garment/pkg/models"
	"go.uber.org/zap"
)

// ErrInvalidBounds is returned when a mesh has no geometry or its bounding box
// is not finite.
var ErrInvalidBounds = errors.New("invalid mesh bounds")

// DefaultSleeveRatio is the fraction of the X extent, measured from the
// center, beyond which a triangle belongs to a sleeve.
const DefaultSleeveRatio = 0.3

// Region identifies one of the four garment parts.
type Region int

const (
	RightSleeve Region = iota
	LeftSleeve
	Front
	Back
)

// Regions lists every region in export order.
var Regions = [...]Region{RightSleeve, LeftSleeve, Front, Back}

func (r Region) String() string {
	switch r {
	case RightSleeve:
		return "right_sleeve"
	case LeftSleeve:
		return "left_sleeve"
	case Front:
		return "front"
	case Back:
		return "back"
	}
	return fmt.Sprintf("region(%d)", int(r))
}

// ParseRegion parses a region name as produced by Region.String.
func ParseRegion(s string) (Region, error) {
	for _, r := range Regions {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown region %q", s)
}

// Stats summarizes one splitting pass.
type Stats struct {
	Triangles   int // source triangles read
	Cuts        int // plane cuts that produced pieces
	Dropped     int // degenerate pieces discarded
	UVFallbacks int // corners that needed projected UVs
}

// ProcessedGeometry is the result of a splitting pass. The meshes are not
// shared with the source and are not modified after Process returns.
type ProcessedGeometry struct {
	RightSleeve *models.Mesh
	LeftSleeve  *models.Mesh
	Front       *models.Mesh
	Back        *models.Mesh

	Bounds math3d.Box3
	Stats  Stats
}

// Region returns the mesh for r.
func (g *ProcessedGeometry) Region(r Region) *models.Mesh {
	switch r {
	case RightSleeve:
		return g.RightSleeve
	case LeftSleeve:
		return g.LeftSleeve
	case Front:
		return g.Front
	case Back:
		return g.Back
	}
	return nil
}

// Meshes returns the four region meshes in export order.
func (g *ProcessedGeometry) Meshes() []*models.Mesh {
	return []*models.Mesh{g.RightSleeve, g.LeftSleeve, g.Front, g.Back}
}

// Splitter partitions a garment mesh into sleeves, front and back.
type Splitter struct {
	log         *zap.Logger
	sleeveRatio float64
	epsilon     float64
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithLogger sets the logger used for degenerate-cut and UV warnings.
func WithLogger(log *zap.Logger) Option {
	return func(s *Splitter) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSleeveRatio overrides DefaultSleeveRatio.
func WithSleeveRatio(ratio float64) Option {
	return func(s *Splitter) {
		if ratio > 0 {
			s.sleeveRatio = ratio
		}
	}
}

// WithEpsilon overrides DefaultEpsilon for UV reconstruction.
func WithEpsilon(eps float64) Option {
	return func(s *Splitter) {
		if eps > 0 {
			s.epsilon = eps
		}
	}
}

// NewSplitter creates a Splitter.
func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		log:         zap.NewNop(),
		sleeveRatio: DefaultSleeveRatio,
		epsilon:     DefaultEpsilon,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pass holds the per-call state of Process.
type pass struct {
	log     *zap.Logger
	uv      *UVReconstructor
	centerZ float64
	buckets [4][]Triangle
	stats   Stats
}

// Process splits mesh into four regions. The source mesh is not modified.
//
// Triangles whose centroid lies further than sleeveRatio * width from the
// center on X are cut at that boundary; the outer part becomes a sleeve and
// the inner part is handled like any torso triangle. Torso triangles are cut
// at the Z center into front (z above center) and back.
func (s *Splitter) Process(mesh *models.Mesh) (*ProcessedGeometry, error) {
	if mesh == nil || len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%w: mesh has no faces", ErrInvalidBounds)
	}
	positions := make([]math3d.Vec3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = v.Position
	}
	bounds, ok := math3d.BoundsOf(positions)
	if !ok || !bounds.Valid() {
		return nil, fmt.Errorf("%w: %v..%v", ErrInvalidBounds, bounds.Min, bounds.Max)
	}

	center := bounds.Center()
	threshold := (bounds.Max.X - bounds.Min.X) * s.sleeveRatio
	p := &pass{
		log:     s.log,
		uv:      NewUVReconstructor(bounds, s.epsilon, s.log),
		centerZ: center.Z,
	}

	for i := range mesh.Faces {
		src := Triangle{HasUV: mesh.HasUVs}
		src.V[0], src.V[1], src.V[2] = mesh.FacePositions(i)
		if mesh.HasUVs {
			src.UV[0], src.UV[1], src.UV[2] = mesh.FaceUVs(i)
		}
		src = p.uv.EnsureUVs(src)
		p.stats.Triangles++

		offset := src.Centroid().X - center.X
		if math.Abs(offset) <= threshold {
			p.torso(src)
			continue
		}

		sleeve, boundary := RightSleeve, center.X+threshold
		if offset < 0 {
			sleeve, boundary = LeftSleeve, center.X-threshold
		}
		res := splitTriangle(src, math3d.AxisX, boundary)
		if res == nil {
			p.add(sleeve, src)
			continue
		}
		p.stats.Cuts++

		outer, inner := res.Positive, res.Negative
		if sleeve == LeftSleeve {
			outer, inner = inner, outer
		}
		for _, piece := range outer {
			p.add(sleeve, p.uv.Apply(piece, src))
		}
		for _, piece := range inner {
			if piece.Degenerate() {
				p.drop(sleeve, piece)
				continue
			}
			p.torso(p.uv.Apply(piece, src))
		}
	}

	p.stats.UVFallbacks = p.uv.Fallbacks
	geom := &ProcessedGeometry{
		RightSleeve: BuildGeometry(RightSleeve.String(), p.buckets[RightSleeve]),
		LeftSleeve:  BuildGeometry(LeftSleeve.String(), p.buckets[LeftSleeve]),
		Front:       BuildGeometry(Front.String(), p.buckets[Front]),
		Back:        BuildGeometry(Back.String(), p.buckets[Back]),
		Bounds:      bounds,
		Stats:       p.stats,
	}

	s.log.Debug("split complete",
		zap.Int("triangles", p.stats.Triangles),
		zap.Int("cuts", p.stats.Cuts),
		zap.Int("dropped", p.stats.Dropped),
		zap.Int("uv_fallbacks", p.stats.UVFallbacks),
		zap.Int(RightSleeve.String(), geom.RightSleeve.TriangleCount()),
		zap.Int(LeftSleeve.String(), geom.LeftSleeve.TriangleCount()),
		zap.Int(Front.String(), geom.Front.TriangleCount()),
		zap.Int(Back.String(), geom.Back.TriangleCount()))

	return geom, nil
}

// torso routes a torso triangle to front or back, cutting it at the Z center
// when it straddles.
func (p *pass) torso(t Triangle) {
	res := splitTriangle(t, math3d.AxisZ, p.centerZ)
	if res == nil {
		if t.Centroid().Z > p.centerZ {
			p.add(Front, t)
		} else {
			p.add(Back, t)
		}
		return
	}
	p.stats.Cuts++
	for _, piece := range res.Positive {
		p.add(Front, p.uv.Apply(piece, t))
	}
	for _, piece := range res.Negative {
		p.add(Back, p.uv.Apply(piece, t))
	}
}

func (p *pass) add(r Region, t Triangle) {
	if t.Degenerate() {
		p.drop(r, t)
		return
	}
	p.buckets[r] = append(p.buckets[r], t)
}

func (p *pass) drop(r Region, t Triangle) {
	p.stats.Dropped++
	p.log.Warn("dropping degenerate triangle",
		zap.Stringer("region", r),
		zap.Float64("area", t.Area()))
}
