// Package garment splits a T-shirt mesh into sleeve, front and back regions,
// rebuilds texture coordinates for cut triangles and places logo decals.
package garment

import (
	"github.com/taigrr/garment/pkg/math3d"
)

// minTriangleArea is the area below which a split output is treated as degenerate.
const minTriangleArea = 1e-12

// Triangle is an ephemeral triangle with optional per-corner UVs.
type Triangle struct {
	V     [3]math3d.Vec3
	UV    [3]math3d.Vec2
	HasUV bool
}

// NewTriangle builds a triangle from three positions without UVs.
func NewTriangle(a, b, c math3d.Vec3) Triangle {
	return Triangle{V: [3]math3d.Vec3{a, b, c}}
}

// Centroid returns the average of the three corners.
func (t Triangle) Centroid() math3d.Vec3 {
	return t.V[0].Add(t.V[1]).Add(t.V[2]).Scale(1.0 / 3.0)
}

// Normal returns the unnormalized face normal (b-a)x(c-a).
func (t Triangle) Normal() math3d.Vec3 {
	return t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0]))
}

// Area returns the triangle area.
func (t Triangle) Area() float64 {
	return t.Normal().Len() * 0.5
}

// Degenerate reports whether the triangle has (near) zero area or a
// non-finite corner.
func (t Triangle) Degenerate() bool {
	for _, v := range t.V {
		if !v.IsFinite() {
			return true
		}
	}
	return t.Area() <= minTriangleArea
}

// SplitResult holds the pieces of a triangle cut by an axis-aligned plane.
// Positive pieces lie where v[axis] >= threshold.
type SplitResult struct {
	Positive     []Triangle
	Negative     []Triangle
	Intersection [2]math3d.Vec3
}

// SplitTriangleByAxis cuts triangle abc with the plane v[axis] == threshold.
// It returns nil when all three corners fall on the same side. A corner exactly
// on the plane counts as positive, except that a triangle with no corner
// strictly above the plane is not cut: touching it at a corner or an edge
// leaves the triangle whole on the negative side. The minority corner yields one triangle on
// its side, the two majority corners yield two on the other. All outputs keep
// the winding of the input. Outputs carry positions only; see UVReconstructor.
func SplitTriangleByAxis(a, b, c math3d.Vec3, axis math3d.Axis, threshold float64) *SplitResult {
	return splitTriangle(NewTriangle(a, b, c), axis, threshold)
}

func splitTriangle(t Triangle, axis math3d.Axis, threshold float64) *SplitResult {
	var d [3]float64
	var pos [3]bool
	positives, above := 0, 0
	for i, v := range t.V {
		d[i] = v.Get(axis) - threshold
		pos[i] = d[i] >= 0
		if pos[i] {
			positives++
		}
		if d[i] > 0 {
			above++
		}
	}
	if positives == 0 || positives == 3 || above == 0 {
		return nil
	}

	// The minority corner is the lone positive or the lone negative one.
	m := 0
	for i := range 3 {
		if pos[i] == (positives == 1) {
			m = i
			break
		}
	}
	j := (m + 1) % 3
	k := (m + 2) % 3

	tj := d[m] / (d[m] - d[j])
	tk := d[m] / (d[m] - d[k])
	ij := t.V[m].Lerp(t.V[j], tj)
	ik := t.V[m].Lerp(t.V[k], tk)

	minority := Triangle{V: [3]math3d.Vec3{t.V[m], ij, ik}}
	majorA := Triangle{V: [3]math3d.Vec3{t.V[j], t.V[k], ik}}
	majorB := Triangle{V: [3]math3d.Vec3{t.V[j], ik, ij}}

	res := &SplitResult{Intersection: [2]math3d.Vec3{ij, ik}}
	if pos[m] {
		res.Positive = []Triangle{minority}
		res.Negative = []Triangle{majorA, majorB}
	} else {
		res.Positive = []Triangle{majorA, majorB}
		res.Negative = []Triangle{minority}
	}
	return res
}
