package detection

import (
	"fmt"
	"image"
)

// ApproxMode selects how many border pixels a traced contour keeps.
type ApproxMode int

const (
	// ApproxNone keeps every border pixel.
	ApproxNone ApproxMode = iota

	// ApproxSimple compresses horizontal, vertical and diagonal runs down to their
	// end points. Extreme coordinates are always kept, so bounding rectangles are
	// identical to ApproxNone.
	ApproxSimple
)

// String implements fmt.Stringer.
func (m ApproxMode) String() string {
	switch m {
	case ApproxNone:
		return "none"
	case ApproxSimple:
		return "simple"
	default:
		return "unknown"
	}
}

// ParseApproxMode is the inverse of String. The empty string selects ApproxNone.
func ParseApproxMode(s string) (ApproxMode, error) {
	switch s {
	case "", "none":
		return ApproxNone, nil
	case "simple":
		return ApproxSimple, nil
	default:
		return ApproxNone, fmt.Errorf("unknown approximation mode %q", s)
	}
}

// Contour is a closed border traced around (or inside) a connected region of
// non-zero pixels.
type Contour struct {
	// Points is the ordered border, in image coordinates.
	Points []image.Point `json:"points"`

	// Parent is the index of the enclosing contour in the same Contours slice,
	// or -1 for a top-level border.
	Parent int `json:"parent"`

	// Hole is true for the inner border of a region.
	Hole bool `json:"hole"`
}

// Contours is a set of contours in discovery order. Parent indexes refer into the
// same slice.
type Contours []Contour

// Outer returns the top-level contours, preserving order.
func (cs Contours) Outer() Contours {
	var out Contours
	for _, c := range cs {
		if c.Parent == -1 {
			out = append(out, c)
		}
	}
	return out
}

// Neighbour directions, counterclockwise on screen starting east. Decreasing the
// index turns clockwise.
var dirX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
var dirY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}

const (
	dirEast = 0
	dirWest = 4
)

type borderInfo struct {
	hole   bool
	parent int32
}

// FindContours traces every border in a binary image and records the full nesting
// tree. Any non-zero pixel is foreground; connectivity is 8-way for foreground
// and 4-way for background.
//
// Contours are returned in tree order: each top-level border is followed by its
// holes, each hole by the borders inside it, and so on depth first. Siblings keep
// the order in which their first pixel is met scanning rows top to bottom, left
// to right. Outer borders and hole borders alternate down the tree, so the parent
// of a hole is the outer border that contains it and the parent of an outer border
// is the hole it sits in (or -1).
//
// # Algorithm
//
// Border following after Suzuki and Abe (1985). The image is copied into a label
// grid with a one-pixel zero frame. Each border gets a sequential number NBD and
// its pixels are relabelled while it is traced so that every border is followed
// exactly once:
//
//   - An outer border starts at a pixel labelled 1 whose left neighbour is 0.
//   - A hole border starts at a foreground pixel whose right neighbour is 0.
//   - The parent is decided from the last border crossed on the current row.
//
// The input is not modified.
func FindContours(edges *image.Gray, mode ApproxMode) Contours {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	stride := w + 2
	f := make([]int32, stride*(h+2))
	for y := 0; y < h; y++ {
		row := edges.Pix[edges.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] != 0 {
				f[(y+1)*stride+x+1] = 1
			}
		}
	}

	var off [8]int
	for k := range off {
		off[k] = dirY[k]*stride + dirX[k]
	}

	// borders[0] is unused; borders[1] is the image frame, treated as a hole.
	borders := []borderInfo{{}, {hole: true, parent: 0}}
	var out Contours

	nbd := int32(1)
	for y := 1; y <= h; y++ {
		lnbd := int32(1)
		for x := 1; x <= w; x++ {
			p := y*stride + x
			v := f[p]
			if v == 0 {
				continue
			}

			from := -1
			hole := false
			if v == 1 && f[p-1] == 0 {
				from = dirWest
			} else if v >= 1 && f[p+1] == 0 {
				from = dirEast
				hole = true
				if v > 1 {
					lnbd = v
				}
			}

			if from >= 0 {
				nbd++
				parent := lnbd
				if borders[lnbd].hole == hole {
					parent = borders[lnbd].parent
				}
				borders = append(borders, borderInfo{hole: hole, parent: parent})

				pts := traceBorder(f, off, p, from, nbd, stride)
				if mode == ApproxSimple {
					pts = compressRuns(pts)
				}

				parentIdx := -1
				if parent > 1 {
					parentIdx = int(parent) - 2
				}
				out = append(out, Contour{Points: pts, Parent: parentIdx, Hole: hole})
			}

			if f[p] != 1 {
				lnbd = abs32(f[p])
			}
		}
	}
	return treeOrder(out)
}

// treeOrder reorders contours found in raster order into depth-first tree order
// and rewrites the parent indexes to match.
func treeOrder(found Contours) Contours {
	children := make([][]int, len(found))
	var roots []int
	for i, c := range found {
		if c.Parent < 0 {
			roots = append(roots, i)
		} else {
			children[c.Parent] = append(children[c.Parent], i)
		}
	}

	out := make(Contours, 0, len(found))
	var visit func(i, parent int)
	visit = func(i, parent int) {
		c := found[i]
		c.Parent = parent
		out = append(out, c)
		self := len(out) - 1
		for _, child := range children[i] {
			visit(child, self)
		}
	}
	for _, r := range roots {
		visit(r, -1)
	}
	return out
}

// traceBorder follows one border starting at p0, where from is the direction of
// the zero pixel that triggered the start. Visited pixels are relabelled with nbd,
// or -nbd where the pixel to their east is background.
func traceBorder(f []int32, off [8]int, p0, from int, nbd int32, stride int) []image.Point {
	toPoint := func(p int) image.Point {
		return image.Point{X: p%stride - 1, Y: p/stride - 1}
	}

	// Clockwise search for the first foreground neighbour, ending back at from.
	d1 := -1
	for k := 1; k <= 8; k++ {
		d := (from - k + 16) % 8
		if f[p0+off[d]] != 0 {
			d1 = d
			break
		}
	}
	if d1 < 0 {
		f[p0] = -nbd
		return []image.Point{toPoint(p0)}
	}

	p1 := p0 + off[d1]
	p3 := p0
	back := d1 // direction from p3 to the previous border pixel
	var pts []image.Point

	for {
		// Counterclockwise search around p3, starting just past the previous pixel.
		eastZero := false
		d4 := back
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if f[p3+off[d]] != 0 {
				d4 = d
				break
			}
			if d == dirEast {
				eastZero = true
			}
		}
		p4 := p3 + off[d4]

		if eastZero {
			f[p3] = -nbd
		} else if f[p3] == 1 {
			f[p3] = nbd
		}
		pts = append(pts, toPoint(p3))

		if p4 == p0 && p3 == p1 {
			return pts
		}
		back = (d4 + 4) % 8
		p3 = p4
	}
}

// compressRuns drops every point whose incoming step equals its outgoing step,
// treating the point list as closed.
func compressRuns(pts []image.Point) []image.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}
	out := make([]image.Point, 0, n/2+1)
	for i, p := range pts {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		in := p.Sub(prev)
		outStep := next.Sub(p)
		if in != outStep {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return pts[:1]
	}
	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
