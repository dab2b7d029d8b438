package math3d

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min, Max Vec3
}

// BoundsOf returns the bounding box of points. ok is false when points is empty.
func BoundsOf(points []Vec3) (b Box3, ok bool) {
	if len(points) == 0 {
		return Box3{}, false
	}
	b = Box3{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Expand(p)
	}
	return b, true
}

// Expand returns the box grown to contain p.
func (b Box3) Expand(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Center returns the center of the box.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent of the box along each axis.
func (b Box3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Valid reports whether the box is finite and not inverted.
func (b Box3) Valid() bool {
	if !b.Min.IsFinite() || !b.Max.IsFinite() {
		return false
	}
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}
