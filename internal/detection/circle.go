package detection

import (
	"image"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// Circle is a circle in continuous pixel coordinates.
type Circle struct {
	Center r2.Vec  `json:"center"`
	Radius float64 `json:"radius"`
}

// Contains reports whether v lies inside or on the circle, allowing for rounding.
func (c Circle) Contains(v r2.Vec) bool {
	return r2.Norm(r2.Sub(v, c.Center)) <= c.Radius+1e-7*math.Max(1, c.Radius)
}

// Disk returns the integer centre and radius used when painting the circle grown
// by boost. Both are truncated toward zero.
func (c Circle) Disk(boost float64) (cx, cy, r int) {
	return int(c.Center.X), int(c.Center.Y), int(c.Radius + boost)
}

// shuffleSeed fixes the point order used by MinEnclosingCircle so that results
// are reproducible.
const shuffleSeed = 1

// MinEnclosingCircle returns the smallest circle containing every point.
//
// It uses Welzl's randomized incremental algorithm with a fixed shuffle seed, so
// the same input always yields the same circle. An empty input yields the zero
// Circle; a single point yields a circle of radius 0 centred on it.
func MinEnclosingCircle(points []image.Point) Circle {
	if len(points) == 0 {
		return Circle{}
	}

	pts := make([]r2.Vec, len(points))
	for i, p := range points {
		pts[i] = r2.Vec{X: float64(p.X), Y: float64(p.Y)}
	}
	rng := rand.New(rand.NewSource(shuffleSeed))
	rng.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })

	c := Circle{Center: pts[0]}
	for i := 1; i < len(pts); i++ {
		if c.Contains(pts[i]) {
			continue
		}
		c = Circle{Center: pts[i]}
		for j := 0; j < i; j++ {
			if c.Contains(pts[j]) {
				continue
			}
			c = circleFrom2(pts[i], pts[j])
			for k := 0; k < j; k++ {
				if !c.Contains(pts[k]) {
					c = circleFrom3(pts[i], pts[j], pts[k])
				}
			}
		}
	}
	return c
}

// circleFrom2 is the circle with segment ab as its diameter.
func circleFrom2(a, b r2.Vec) Circle {
	center := r2.Scale(0.5, r2.Add(a, b))
	return Circle{Center: center, Radius: r2.Norm(r2.Sub(a, center))}
}

// circleFrom3 is the circumcircle of a, b and c. Collinear points fall back to the
// circle over the two points farthest apart.
func circleFrom3(a, b, c r2.Vec) Circle {
	ab := r2.Sub(b, a)
	ac := r2.Sub(c, a)
	d := 2 * r2.Cross(ab, ac)
	if math.Abs(d) < 1e-12 {
		best := circleFrom2(a, b)
		if cand := circleFrom2(a, c); cand.Radius > best.Radius {
			best = cand
		}
		if cand := circleFrom2(b, c); cand.Radius > best.Radius {
			best = cand
		}
		return best
	}

	ab2 := r2.Norm2(ab)
	ac2 := r2.Norm2(ac)
	ux := (ac.Y*ab2 - ab.Y*ac2) / d
	uy := (ab.X*ac2 - ac.X*ab2) / d
	center := r2.Add(a, r2.Vec{X: ux, Y: uy})
	return Circle{Center: center, Radius: math.Hypot(ux, uy)}
}
