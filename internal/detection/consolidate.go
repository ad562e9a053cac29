package detection

import (
	"image"

	"github.com/ironsheep/spectro-roi/internal/imaging"
	"github.com/ironsheep/spectro-roi/internal/logger"
)

// ConsolidateParams controls the circle-fill consolidation pass.
type ConsolidateParams struct {
	// RadiusBoost is added to each enclosing-circle radius. Larger values merge
	// fragments that sit further apart.
	RadiusBoost float64

	// EdgeMin and EdgeMax are the Canny thresholds applied to the binary mask.
	EdgeMin float64
	EdgeMax float64

	// ThreshMin and ThreshMax binarize the filled image.
	ThreshMin uint8
	ThreshMax uint8
}

// Consolidation carries every stage of a consolidation pass.
type Consolidation struct {
	// Filled is the input copy with a black disk painted over each raw contour.
	Filled *image.RGBA

	// Mask is the blurred, thresholded Filled image.
	Mask *image.Gray

	// Edges is the Canny edge map of Mask.
	Edges *image.Gray

	// Circles are the enclosing circles of the raw contours, in contour order.
	Circles []Circle

	// Contours are the consolidated contours traced from Edges with ApproxSimple.
	Contours Contours
}

// Consolidate fuses fragmented raw contours into one blob per acoustic event and
// returns the contours of those blobs.
//
// For every raw contour the minimum enclosing circle is grown by RadiusBoost and
// painted as a filled black disk onto a copy of img. The copy is converted to
// grayscale, blurred and thresholded into a binary mask, and the mask's edges are
// traced again with ApproxSimple.
//
// The result depends only on img, raw and p. img is not modified.
func Consolidate(img image.Image, raw Contours, p ConsolidateParams) Contours {
	return ConsolidateStages(img, raw, p).Contours
}

// ConsolidateStages is Consolidate but also returns every intermediate image.
func ConsolidateStages(img image.Image, raw Contours, p ConsolidateParams) Consolidation {
	filled := imaging.CloneRGBA(img)
	circles := make([]Circle, 0, len(raw))
	for _, c := range raw {
		circle := MinEnclosingCircle(c.Points)
		circles = append(circles, circle)
		cx, cy, r := circle.Disk(p.RadiusBoost)
		imaging.FillDisk(filled, cx, cy, r, imaging.Black)
	}

	gray := imaging.Grayscale(filled)
	mask := imaging.Threshold(imaging.BlurWrap(gray), p.ThreshMin, p.ThreshMax)
	edges := imaging.Canny(mask, p.EdgeMin, p.EdgeMax)
	contours := FindContours(edges, ApproxSimple)

	logger.Debug("consolidate", "%d raw contours -> %d consolidated (%d top-level)",
		len(raw), len(contours), len(contours.Outer()))

	return Consolidation{
		Filled:   filled,
		Mask:     mask,
		Edges:    edges,
		Circles:  circles,
		Contours: contours,
	}
}
