package detection

import (
	"errors"
	"fmt"

	"github.com/ironsheep/spectro-roi/internal/imaging"
)

// Params is the tuned parameter set for one target and taxon. It is a plain value;
// a Detector keeps its own copy.
type Params struct {
	// ConEdgesMin and ConEdgesMax are the Canny thresholds of the raw pass.
	ConEdgesMin float64 `json:"con_edges_min"`
	ConEdgesMax float64 `json:"con_edges_max"`

	// CoralEdgesMin and CoralEdgesMax are the Canny thresholds of the
	// consolidation pass.
	CoralEdgesMin float64 `json:"coral_edges_min"`
	CoralEdgesMax float64 `json:"coral_edges_max"`

	// ThreshMin and ThreshMax are the binary threshold bounds applied to the
	// filled image: pixels above ThreshMin become ThreshMax.
	ThreshMin uint8 `json:"thresh_min"`
	ThreshMax uint8 `json:"thresh_max"`

	// RadiusBoost is added to every enclosing-circle radius before filling.
	RadiusBoost float64 `json:"radius_boost"`

	// MinROI and MaxROI are the exclusive pixel-area bounds for kept boxes.
	MinROI int `json:"min_roi"`
	MaxROI int `json:"max_roi"`

	// RectColor and LineThick style the debug rectangles.
	RectColor imaging.Color `json:"rect_color"`
	LineThick int           `json:"line_thick"`

	// Y1Max is the suppression line: only boxes whose top row is strictly below
	// it (Y > Y1Max) are drawn on the debug overlay.
	Y1Max int `json:"y1_max"`
}

// DefaultParams returns a parameter set that works on 640x320 mel spectrograms
// rendered with a light background.
func DefaultParams() Params {
	return Params{
		ConEdgesMin:   50,
		ConEdgesMax:   150,
		CoralEdgesMin: 50,
		CoralEdgesMax: 150,
		ThreshMin:     127,
		ThreshMax:     255,
		RadiusBoost:   5,
		MinROI:        100,
		MaxROI:        50000,
		RectColor:     imaging.Green,
		LineThick:     2,
		Y1Max:         0,
	}
}

// Validate reports parameter combinations that could never produce a box.
func (p Params) Validate() error {
	var errs []error
	if p.ConEdgesMin < 0 || p.ConEdgesMax < 0 {
		errs = append(errs, fmt.Errorf("con_edges thresholds must be non-negative"))
	}
	if p.CoralEdgesMin < 0 || p.CoralEdgesMax < 0 {
		errs = append(errs, fmt.Errorf("coral_edges thresholds must be non-negative"))
	}
	if p.MinROI < 0 {
		errs = append(errs, fmt.Errorf("min_roi must be non-negative, got %d", p.MinROI))
	}
	if p.MaxROI <= p.MinROI+1 {
		errs = append(errs, fmt.Errorf("max_roi (%d) must exceed min_roi (%d) by more than 1", p.MaxROI, p.MinROI))
	}
	if p.LineThick < 1 {
		errs = append(errs, fmt.Errorf("line_thick must be at least 1, got %d", p.LineThick))
	}
	if p.RadiusBoost < 0 {
		errs = append(errs, fmt.Errorf("radius_boost must be non-negative, got %g", p.RadiusBoost))
	}
	return errors.Join(errs...)
}
