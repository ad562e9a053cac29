package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/spectro-roi/internal/logger"
)

// Box is an axis-aligned pixel rectangle: the top-left corner plus extent, with y
// increasing downward. It is the one rectangle representation used throughout
// detection and reporting.
//
// A box covering the pixels from column X to column X+Width-1 inclusive has width
// Width, so a contour that spans a single column has Width 1.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width*Height in square pixels.
func (b Box) Area() int {
	return b.Width * b.Height
}

// Rect converts b to an image.Rectangle whose Max corner is exclusive.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Corners returns the inclusive top-left and bottom-right pixels of b.
func (b Box) Corners() (x1, y1, x2, y2 int) {
	return b.X, b.Y, b.X + b.Width - 1, b.Y + b.Height - 1
}

// FromRect converts an image.Rectangle (exclusive Max) to a Box.
func FromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// String implements fmt.Stringer.
func (b Box) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.Width, b.Height)
}

// BoundingRect returns the smallest box containing every point. An empty point
// set yields the zero Box.
func BoundingRect(points []image.Point) Box {
	if len(points) == 0 {
		return Box{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Box{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// FilterBoxes converts contours to bounding boxes and keeps those whose area is
// strictly between minArea and maxArea. A box equal to the one kept just before
// it is dropped. Contour order is preserved.
func FilterBoxes(contours Contours, minArea, maxArea int) []Box {
	boxes := make([]Box, 0, len(contours))
	for _, c := range contours {
		b := BoundingRect(c.Points)
		area := b.Area()
		logger.Debug("bbox", "contour %s area %d", b, area)
		if area <= minArea || area >= maxArea {
			continue
		}
		if n := len(boxes); n > 0 && boxes[n-1] == b {
			continue
		}
		boxes = append(boxes, b)
	}
	logger.Debug("bbox", "kept %d of %d contours", len(boxes), len(contours))
	return boxes
}
