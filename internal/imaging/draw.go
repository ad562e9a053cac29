package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CloneRGBA returns an RGBA copy of img re-based so its bounds start at (0,0).
func CloneRGBA(img image.Image) *image.RGBA {
	dst := clone.AsRGBA(img)
	if off := dst.Rect.Min; off != (image.Point{}) {
		dst.Rect = dst.Rect.Sub(off)
	}
	return dst
}

// FillDisk paints every pixel within radius r of (cx, cy) in place. A zero radius
// paints the centre pixel only; a negative radius paints nothing.
func FillDisk(img *image.RGBA, cx, cy, r int, c Color) {
	if r < 0 {
		return
	}
	rgba := c.RGBA()
	area := image.Rect(cx-r, cy-r, cx+r+1, cy+r+1).Intersect(img.Rect)
	r2 := r * r
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := y - cy
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := x - cx
			if dx*dx+dy*dy <= r2 {
				img.SetRGBA(x, y, rgba)
			}
		}
	}
}

// DrawRect draws a rectangle outline in place.
//
// Parameters:
//   - img: Destination image.
//   - x1, y1, x2, y2: Inclusive corners. Swapped corners are accepted.
//   - thick: Stroke width in pixels, centred on the outline.
//   - c: Stroke colour.
//
// Pixels outside img are clipped.
func DrawRect(img *image.RGBA, x1, y1, x2, y2, thick int, c Color) {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	if thick < 1 {
		thick = 1
	}
	lo := (thick - 1) / 2
	hi := thick / 2
	rgba := c.RGBA()

	fill(img, image.Rect(x1-lo, y1-lo, x2+hi+1, y1+hi+1), rgba) // top
	fill(img, image.Rect(x1-lo, y2-lo, x2+hi+1, y2+hi+1), rgba) // bottom
	fill(img, image.Rect(x1-lo, y1-lo, x1+hi+1, y2+hi+1), rgba) // left
	fill(img, image.Rect(x2-lo, y1-lo, x2+hi+1, y2+hi+1), rgba) // right
}

// DrawPolyline draws straight segments between consecutive points, joining the
// last point back to the first when closed is set.
func DrawPolyline(img *image.RGBA, pts []image.Point, closed bool, thick int, c Color) {
	if len(pts) == 0 {
		return
	}
	if thick < 1 {
		thick = 1
	}
	rgba := c.RGBA()
	if len(pts) == 1 {
		dot(img, pts[0], thick, rgba)
		return
	}
	for i := 1; i < len(pts); i++ {
		line(img, pts[i-1], pts[i], thick, rgba)
	}
	if closed {
		line(img, pts[len(pts)-1], pts[0], thick, rgba)
	}
}

// DrawLabel writes text with its baseline-left corner at (x, y) using the 7x13
// bitmap face.
func DrawLabel(img *image.RGBA, x, y int, text string, c Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.RGBA()),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func dot(img *image.RGBA, p image.Point, thick int, c color.RGBA) {
	lo := (thick - 1) / 2
	hi := thick / 2
	fill(img, image.Rect(p.X-lo, p.Y-lo, p.X+hi+1, p.Y+hi+1), c)
}

// line rasterizes a segment with Bresenham's algorithm, stamping a square brush at
// every step.
func line(img *image.RGBA, a, b image.Point, thick int, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	p := a
	for {
		dot(img, p, thick, c)
		if p == b {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
