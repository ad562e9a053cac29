package detection

import (
	"image"

	"github.com/ironsheep/spectro-roi/internal/imaging"
	"github.com/ironsheep/spectro-roi/internal/logger"
)

// Extraction holds the edge map and the contours traced from it.
type Extraction struct {
	Edges    *image.Gray
	Contours Contours
}

// Extract converts img to a set of closed contours: grayscale, 3x3 wrap-border
// blur, Canny with edgeMin/edgeMax, then full-tree border following with the
// requested approximation.
//
// The raw pass uses ApproxNone so the enclosing-circle fit sees every border
// pixel. There is no cap on the number of contours; a noisy frame can yield
// hundreds of fragments.
func Extract(img image.Image, edgeMin, edgeMax float64, mode ApproxMode) Contours {
	return ExtractStages(img, edgeMin, edgeMax, mode).Contours
}

// ExtractStages is Extract but also returns the intermediate edge map.
func ExtractStages(img image.Image, edgeMin, edgeMax float64, mode ApproxMode) Extraction {
	gray := imaging.Grayscale(img)
	edges := imaging.Canny(imaging.BlurWrap(gray), edgeMin, edgeMax)
	contours := FindContours(edges, mode)
	logger.Debug("extract", "edges %g/%g approx=%s: %d contours", edgeMin, edgeMax, mode, len(contours))
	return Extraction{Edges: edges, Contours: contours}
}
