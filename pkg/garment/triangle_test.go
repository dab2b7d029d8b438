package garment

import (
	"testing"

	"github.com/taigrr/garment/pkg/math3d"
)

func TestSplitTriangleByAxisNoCrossing(t *testing.T) {
	tests := []struct {
		name      string
		a, b, c   math3d.Vec3
		axis      math3d.Axis
		threshold float64
	}{
		{"all positive", math3d.V3(0, 0, 0.6), math3d.V3(0, 0.1, 0.6), math3d.V3(0, 0, 0.4), math3d.AxisZ, 0},
		{"all negative", math3d.V3(-1, 0, 0), math3d.V3(-2, 0, 0), math3d.V3(-1, 1, 0), math3d.AxisX, 0},
		{"touching counts positive", math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.AxisX, 0},
		{"y axis", math3d.V3(0, 2, 0), math3d.V3(1, 3, 0), math3d.V3(0, 4, 1), math3d.AxisY, 1},
		{"corner on plane from below", math3d.V3(0, 0, 0), math3d.V3(0.1, 0, -1), math3d.V3(0, 0.1, -1), math3d.AxisZ, 0},
		{"edge on plane from below", math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, -1), math3d.AxisZ, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := SplitTriangleByAxis(tt.a, tt.b, tt.c, tt.axis, tt.threshold); res != nil {
				t.Errorf("expected nil, got %d positive / %d negative", len(res.Positive), len(res.Negative))
			}
		})
	}
}

func TestSplitTriangleByAxisCounts(t *testing.T) {
	tests := []struct {
		name         string
		z            [3]float64
		wantPositive int
		wantNegative int
	}{
		{"one positive", [3]float64{0.2, -0.3, -0.1}, 1, 2},
		{"two positive", [3]float64{0.2, 0.3, -0.1}, 2, 1},
		{"minority first", [3]float64{-0.5, 0.3, 0.1}, 2, 1},
		{"minority last", [3]float64{-0.5, -0.3, 0.1}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := math3d.V3(0, 0, tt.z[0])
			b := math3d.V3(1, 0, tt.z[1])
			c := math3d.V3(0, 1, tt.z[2])
			res := SplitTriangleByAxis(a, b, c, math3d.AxisZ, 0)
			if res == nil {
				t.Fatal("expected a split")
			}
			if len(res.Positive) != tt.wantPositive || len(res.Negative) != tt.wantNegative {
				t.Errorf("got %d/%d, want %d/%d",
					len(res.Positive), len(res.Negative), tt.wantPositive, tt.wantNegative)
			}

			src := NewTriangle(a, b, c)
			got := trianglesArea(res.Positive) + trianglesArea(res.Negative)
			if !near(got, src.Area()) {
				t.Errorf("area = %v, want %v", got, src.Area())
			}

			for _, p := range res.Intersection {
				if !near(p.Z, 0) {
					t.Errorf("intersection %v not on plane", p)
				}
			}
			for _, tri := range res.Positive {
				for _, v := range tri.V {
					if v.Z < -tol {
						t.Errorf("positive piece has vertex %v below plane", v)
					}
				}
			}
			for _, tri := range res.Negative {
				for _, v := range tri.V {
					if v.Z > tol {
						t.Errorf("negative piece has vertex %v above plane", v)
					}
				}
			}
		})
	}
}

func TestSplitPreservesWinding(t *testing.T) {
	a, b, c := math3d.V3(-1, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)
	want := NewTriangle(a, b, c).Normal().Normalize()

	for _, threshold := range []float64{-0.5, 0, 0.3, 0.9} {
		res := SplitTriangleByAxis(a, b, c, math3d.AxisX, threshold)
		if res == nil {
			t.Fatalf("threshold %v: expected a split", threshold)
		}
		for _, tri := range append(res.Positive, res.Negative...) {
			if tri.Degenerate() {
				continue
			}
			if got := tri.Normal().Normalize(); !nearVec(got, want) {
				t.Errorf("threshold %v: piece normal %v, want %v", threshold, got, want)
			}
		}
	}
}

func TestTriangleDegenerate(t *testing.T) {
	tests := []struct {
		name string
		tri  Triangle
		want bool
	}{
		{"unit", NewTriangle(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)), false},
		{"collinear", NewTriangle(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0)), true},
		{"repeated", NewTriangle(math3d.V3(0, 0, 0), math3d.V3(0, 0, 0), math3d.V3(0, 1, 0)), true},
	}
	for _, tt := range tests {
		if got := tt.tri.Degenerate(); got != tt.want {
			t.Errorf("%s: Degenerate() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
