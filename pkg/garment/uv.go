package garment

import (
	"github.com/taigrr/garment/pkg/math3d"
	"go.uber.org/zap"
)

// DefaultEpsilon is the distance under which a point is considered to lie on
// a vertex or an edge of its source triangle.
const DefaultEpsilon = 1e-5

// UVReconstructor assigns texture coordinates to vertices created by a cut.
// Points that cannot be placed on the source triangle's boundary are projected
// onto the XY plane of the mesh bounds.
type UVReconstructor struct {
	bounds  math3d.Box3
	epsilon float64
	log     *zap.Logger

	// Fallbacks counts projections used because no edge claimed a point.
	Fallbacks int
}

// NewUVReconstructor creates a reconstructor for a mesh with the given bounds.
func NewUVReconstructor(bounds math3d.Box3, epsilon float64, log *zap.Logger) *UVReconstructor {
	if log == nil {
		log = zap.NewNop()
	}
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &UVReconstructor{bounds: bounds, epsilon: epsilon, log: log}
}

// Project maps a position to UV space using the mesh bounds. A zero extent on
// either axis yields 0 for that coordinate.
func (r *UVReconstructor) Project(p math3d.Vec3) math3d.Vec2 {
	var uv math3d.Vec2
	if w := r.bounds.Max.X - r.bounds.Min.X; w > 0 {
		uv.X = (p.X - r.bounds.Min.X) / w
	}
	if h := r.bounds.Max.Y - r.bounds.Min.Y; h > 0 {
		uv.Y = (p.Y - r.bounds.Min.Y) / h
	}
	return uv
}

// EnsureUVs fills in projected UVs for a triangle that carries none.
func (r *UVReconstructor) EnsureUVs(t Triangle) Triangle {
	if t.HasUV {
		return t
	}
	for i, v := range t.V {
		t.UV[i] = r.Project(v)
	}
	t.HasUV = true
	return t
}

// Reconstruct returns the UV of point p relative to the source triangle src.
// A point on a corner reuses that corner's UV exactly; a point on an edge is
// interpolated along it. Anything else falls back to Project and is logged.
func (r *UVReconstructor) Reconstruct(p math3d.Vec3, src Triangle) math3d.Vec2 {
	src = r.EnsureUVs(src)
	for i, v := range src.V {
		if p.Distance(v) < r.epsilon {
			return src.UV[i]
		}
	}

	for i := range 3 {
		start, end := src.V[i], src.V[(i+1)%3]
		closest := math3d.ClosestPointOnSegment(p, start, end)
		if closest.Distance(p) >= r.epsilon {
			continue
		}
		var t float64
		if edge := start.Distance(end); edge > r.epsilon {
			t = p.Distance(start) / edge
		}
		t = min(max(t, 0), 1)
		return src.UV[i].Lerp(src.UV[(i+1)%3], t)
	}

	r.Fallbacks++
	r.log.Warn("no edge claims point, using projected uv",
		zap.Float64("x", p.X), zap.Float64("y", p.Y), zap.Float64("z", p.Z))
	return r.Project(p)
}

// Apply returns piece with every corner's UV reconstructed from src.
func (r *UVReconstructor) Apply(piece, src Triangle) Triangle {
	for i, v := range piece.V {
		piece.UV[i] = r.Reconstruct(v, src)
	}
	piece.HasUV = true
	return piece
}
