package detection

import (
	"image"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestMinEnclosingCircle(t *testing.T) {
	tests := []struct {
		name       string
		pts        []image.Point
		wantCenter r2.Vec
		wantRadius float64
	}{
		{"empty", nil, r2.Vec{}, 0},
		{"single point", []image.Point{{3, 4}}, r2.Vec{X: 3, Y: 4}, 0},
		{"two points", []image.Point{{0, 0}, {6, 8}}, r2.Vec{X: 3, Y: 4}, 5},
		{"square corners", []image.Point{{0, 0}, {4, 0}, {0, 4}, {4, 4}}, r2.Vec{X: 2, Y: 2}, math.Sqrt(8)},
		{"collinear", []image.Point{{0, 0}, {5, 0}, {10, 0}}, r2.Vec{X: 5, Y: 0}, 5},
		{"right triangle", []image.Point{{0, 0}, {6, 0}, {0, 8}}, r2.Vec{X: 3, Y: 4}, 5},
		{"interior points ignored", []image.Point{{0, 0}, {10, 0}, {5, 1}, {5, -1}, {4, 0}}, r2.Vec{X: 5, Y: 0}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MinEnclosingCircle(tt.pts)
			if math.Abs(c.Center.X-tt.wantCenter.X) > 1e-9 || math.Abs(c.Center.Y-tt.wantCenter.Y) > 1e-9 {
				t.Errorf("center = %v, want %v", c.Center, tt.wantCenter)
			}
			if math.Abs(c.Radius-tt.wantRadius) > 1e-9 {
				t.Errorf("radius = %v, want %v", c.Radius, tt.wantRadius)
			}
		})
	}
}

func TestMinEnclosingCircle_ContainsAllAndIsDeterministic(t *testing.T) {
	var pts []image.Point
	for i := 0; i < 200; i++ {
		// A deterministic scatter inside a 60x40 window.
		pts = append(pts, image.Pt((i*37)%60, (i*53)%40))
	}

	c1 := MinEnclosingCircle(pts)
	c2 := MinEnclosingCircle(pts)
	if c1 != c2 {
		t.Fatalf("repeated calls differ: %v vs %v", c1, c2)
	}
	for _, p := range pts {
		if !c1.Contains(r2.Vec{X: float64(p.X), Y: float64(p.Y)}) {
			t.Fatalf("point %v lies outside %v", p, c1)
		}
	}
	// The window's diagonal bounds the diameter from above.
	if c1.Radius > math.Hypot(59, 39)/2+1e-9 {
		t.Errorf("radius %v larger than half the window diagonal", c1.Radius)
	}
}

func TestCircle_Disk(t *testing.T) {
	c := Circle{Center: r2.Vec{X: 9.7, Y: 3.2}, Radius: 4.6}
	cx, cy, r := c.Disk(2)
	if cx != 9 || cy != 3 || r != 6 {
		t.Errorf("Disk(2) = (%d,%d,%d), want (9,3,6)", cx, cy, r)
	}
	if _, _, r := c.Disk(0); r != 4 {
		t.Errorf("Disk(0) radius = %d, want 4", r)
	}
}
