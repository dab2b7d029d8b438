package garment

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/taigrr/garment/pkg/math3d"
	"github.com/taigrr/garment/pkg/models"
)

// ErrInvalidDecal is returned by DecalParams.Validate and DecalParams.Check.
var ErrInvalidDecal = errors.New("invalid decal parameters")

// Decal placement constants.
const (
	MinDecalScale = 0.01
	MaxDecalScale = 0.5
	MaxOffsetY    = 0.2

	// decalDepth pushes the projector off the surface toward the viewer.
	decalDepth = 0.15
	// Between these scales the Y offset is clamped to keep the decal off the collar and hem.
	clampScaleMin = 0.15
	clampScaleMax = 0.2
	clampOffsetY  = 0.08

	// DecalBias is how far decal vertices are lifted off the surface.
	DecalBias = 1e-4
)

// DecalParams are the user-controlled logo parameters.
type DecalParams struct {
	Scale  float64
	Offset math3d.Vec2
	Target Region
}

// DefaultDecalParams is the logo placement a fresh design starts with.
func DefaultDecalParams() DecalParams {
	return DecalParams{Scale: 0.15, Offset: math3d.V2(0, 0.04), Target: Front}
}

// Check reports parameters that cannot be placed at all: a target other than
// front or back, a non-positive scale or a non-finite number. Offsets outside
// the designer's sliders pass; Placement clamps what it must.
func (p DecalParams) Check() error {
	if p.Target != Front && p.Target != Back {
		return fmt.Errorf("%w: target %s must be front or back", ErrInvalidDecal, p.Target)
	}
	if !(p.Scale > 0) || math.IsInf(p.Scale, 0) {
		return fmt.Errorf("%w: scale %g must be positive", ErrInvalidDecal, p.Scale)
	}
	if !p.Offset.IsFinite() {
		return fmt.Errorf("%w: offset %v is not finite", ErrInvalidDecal, p.Offset)
	}
	return nil
}

// Validate checks the parameters against the ranges the designer allows.
// It applies to interactive input; saved placements only need Check.
func (p DecalParams) Validate() error {
	if err := p.Check(); err != nil {
		return err
	}
	if p.Scale < MinDecalScale || p.Scale > MaxDecalScale {
		return fmt.Errorf("%w: scale %g outside [%g, %g]", ErrInvalidDecal, p.Scale, MinDecalScale, MaxDecalScale)
	}
	if maxX := (1 - p.Scale) / 2; !(math.Abs(p.Offset.X) <= maxX) {
		return fmt.Errorf("%w: offset x %g exceeds %g", ErrInvalidDecal, p.Offset.X, maxX)
	}
	if !(math.Abs(p.Offset.Y) <= MaxOffsetY) {
		return fmt.Errorf("%w: offset y %g exceeds %g", ErrInvalidDecal, p.Offset.Y, MaxOffsetY)
	}
	return nil
}

// Placement is the projector box derived from DecalParams.
type Placement struct {
	Position  math3d.Vec3
	RotationY float64
	Size      math3d.Vec3
	// Offset is the offset actually used after clamping.
	Offset math3d.Vec2
}

// Placement computes the projector box. It does not validate.
func (p DecalParams) Placement() Placement {
	offset := p.Offset
	if p.Scale >= clampScaleMin && p.Scale <= clampScaleMax {
		offset.Y = math.Max(-clampOffsetY, math.Min(offset.Y, clampOffsetY))
	}

	pl := Placement{
		Position: math3d.V3(offset.X, offset.Y, decalDepth),
		Offset:   offset,
	}
	if p.Target == Back {
		pl.Position.Z = -decalDepth
		pl.RotationY = math.Pi
	}
	size := p.Scale * 0.5
	pl.Size = math3d.V3(size, size, size)
	return pl
}

// Matrix maps the unit projector box [-0.5, 0.5]^3 into mesh space.
func (pl Placement) Matrix() math3d.Mat4 {
	return math3d.Translate(pl.Position).
		Mul(math3d.RotateY(pl.RotationY)).
		Mul(math3d.Scale(pl.Size))
}

// Inverse maps mesh space into the unit projector box.
func (pl Placement) Inverse() math3d.Mat4 {
	inv := math3d.V3(1/pl.Size.X, 1/pl.Size.Y, 1/pl.Size.Z)
	return math3d.Scale(inv).
		Mul(math3d.RotateY(-pl.RotationY)).
		Mul(math3d.Translate(pl.Position.Scale(-1)))
}

// DecalMaterial describes how the decal is drawn over the base surface.
type DecalMaterial struct {
	Map       image.Image
	Fabric    FabricMaps
	Roughness float64

	Transparent         bool
	DepthTest           bool
	DepthWrite          bool
	PolygonOffset       bool
	PolygonOffsetFactor float64
	PolygonOffsetUnits  float64
}

// NewDecalMaterial returns the decal material for a logo image.
func NewDecalMaterial(logo image.Image, fabric FabricMaps) DecalMaterial {
	return DecalMaterial{
		Map:                 logo,
		Fabric:              fabric,
		Roughness:           0.4,
		Transparent:         true,
		PolygonOffset:       true,
		PolygonOffsetFactor: -1,
		PolygonOffsetUnits:  -1,
	}
}

// Model converts the material for export.
func (m DecalMaterial) Model() models.Material {
	return models.Material{
		Name:        "decal",
		BaseColor:   [4]float64{1, 1, 1, 1},
		Roughness:   m.Roughness,
		BaseMap:     m.Map,
		DoubleSided: false,
	}
}

// Apply assigns m as the sole material of the decal mesh.
func (m DecalMaterial) Apply(mesh *models.Mesh) {
	mesh.Materials = []models.Material{m.Model()}
	for i := range mesh.Faces {
		mesh.Faces[i].Material = 0
	}
}

// boxPlanes are the six clip planes of the unit projector box.
var boxPlanes = [...]struct {
	axis  math3d.Axis
	limit float64
	keep  bool // keep the side with v >= limit
}{
	{math3d.AxisX, -0.5, true}, {math3d.AxisX, 0.5, false},
	{math3d.AxisY, -0.5, true}, {math3d.AxisY, 0.5, false},
	{math3d.AxisZ, -0.5, true}, {math3d.AxisZ, 0.5, false},
}

// ProjectDecal clips mesh against the projector box described by params and
// returns the covered surface as a new mesh named "decal". Its UVs span the
// box face: (0,0) bottom left to (1,1) top right as seen by the projector.
// Vertices are lifted DecalBias along their normals. The result is empty when
// the box misses the mesh. Out-of-range offsets are clamped by Placement, not
// rejected.
func ProjectDecal(mesh *models.Mesh, params DecalParams) (*models.Mesh, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}
	pl := params.Placement()
	toBox := pl.Inverse()
	fromBox := pl.Matrix()

	var clipped []Triangle
	for _, t := range Triangles(mesh) {
		for i := range t.V {
			t.V[i] = toBox.MulVec3(t.V[i])
		}
		clipped = append(clipped, clipToBox(t)...)
	}

	out := make([]Triangle, 0, len(clipped))
	for _, t := range clipped {
		if t.Degenerate() {
			continue
		}
		for i, v := range t.V {
			t.UV[i] = math3d.V2(v.X+0.5, v.Y+0.5)
			t.V[i] = fromBox.MulVec3(v)
		}
		t.HasUV = true
		out = append(out, t)
	}

	decal := BuildGeometry("decal", out)
	for i := range decal.Vertices {
		v := &decal.Vertices[i]
		v.Position = v.Position.Add(v.Normal.Scale(DecalBias))
	}
	decal.CalculateBounds()
	return decal, nil
}

func clipToBox(t Triangle) []Triangle {
	tris := []Triangle{t}
	for _, plane := range boxPlanes {
		var next []Triangle
		for _, tri := range tris {
			res := splitTriangle(tri, plane.axis, plane.limit)
			if res == nil {
				// Uncut triangles lie on one closed side; corners on the plane do not decide it.
				if (tri.Centroid().Get(plane.axis) >= plane.limit) == plane.keep {
					next = append(next, tri)
				}
				continue
			}
			if plane.keep {
				next = append(next, res.Positive...)
			} else {
				next = append(next, res.Negative...)
			}
		}
		tris = next
		if len(tris) == 0 {
			break
		}
	}
	return tris
}
