// Package transform maps pixel boxes found on a rendered spectrogram to
// physical rectangles in seconds and hertz.
//
// Pixel row 0 is the top of the frame, the highest displayed frequency, while
// the physical axis grows upward from fmin. The vertical coordinate is therefore
// flipped: a box's lower edge becomes its starting frequency.
package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/spectro-roi/internal/detection"
	"github.com/ironsheep/spectro-roi/internal/logger"
)

// ErrInvalidGeometry is returned by Derive for frame sizes or acoustic ranges
// that cannot describe a rendered spectrogram.
var ErrInvalidGeometry = errors.New("invalid spectrogram geometry")

// Params holds the scale factors derived from one target's frame geometry.
type Params struct {
	FrameWidth  int     `json:"frame_width"`
	FrameHeight int     `json:"frame_height"`
	Seconds     float64 `json:"recording_seconds"`
	FMin        float64 `json:"fmin"`
	FMax        float64 `json:"fmax"`

	// XFac is pixels per second.
	XFac float64 `json:"xfac"`
	// YFac is pixels per hertz, used for the vertical position.
	YFac float64 `json:"yfac"`
	// ZFac is hertz per pixel, used for the height.
	ZFac float64 `json:"zfac"`
}

// Rect is a rectangle in physical units, ready to overlay on the annotated plot.
type Rect struct {
	Start    float64 `json:"seconds_start"`
	Low      float64 `json:"hz_start"`
	Duration float64 `json:"seconds_width"`
	Span     float64 `json:"hz_height"`
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.3fs,%.1fHz %.3fs x %.1fHz)", r.Start, r.Low, r.Duration, r.Span)
}

// Derive computes the scale factors for a frame of width x height pixels that
// shows seconds of audio up to fmax hertz.
func Derive(width, height int, seconds, fmin, fmax float64) (Params, error) {
	switch {
	case width <= 0 || height <= 0:
		return Params{}, fmt.Errorf("%w: frame %dx%d", ErrInvalidGeometry, width, height)
	case !(seconds > 0) || math.IsInf(seconds, 0):
		return Params{}, fmt.Errorf("%w: recording_seconds %g", ErrInvalidGeometry, seconds)
	case !(fmax > 0) || math.IsInf(fmax, 0):
		return Params{}, fmt.Errorf("%w: spec_fmax %g", ErrInvalidGeometry, fmax)
	case fmin < 0 || fmin >= fmax:
		return Params{}, fmt.Errorf("%w: spec_fmin %g outside [0, %g)", ErrInvalidGeometry, fmin, fmax)
	}

	return Params{
		FrameWidth:  width,
		FrameHeight: height,
		Seconds:     seconds,
		FMin:        fmin,
		FMax:        fmax,
		XFac:        float64(width) / seconds,
		YFac:        float64(height) / fmax,
		ZFac:        fmax / float64(height),
	}, nil
}

// ToPhysical maps a pixel box to seconds and hertz.
//
// A lower edge that lands at or below 0 Hz is moved up by fmin when fmin is
// positive and set to fmin otherwise. The height is scaled by ZFac while the
// position uses YFac; both are kept as the rendered overlays expect them.
func (p Params) ToPhysical(b detection.Box) Rect {
	bottom := b.Y + b.Height
	low := float64(p.FrameHeight-bottom) * p.YFac
	if low <= 0 {
		if p.FMin > 0 {
			low += p.FMin
		} else {
			low = p.FMin
		}
	}

	r := Rect{
		Start:    float64(b.X) / p.XFac,
		Low:      low,
		Duration: float64(b.Width) / p.XFac,
		Span:     p.ZFac * float64(b.Height),
	}
	logger.Debug("transform", "%v -> %v", b, r)
	return r
}

// ToPhysicalAll maps every box in order.
func (p Params) ToPhysicalAll(boxes []detection.Box) []Rect {
	out := make([]Rect, len(boxes))
	for i, b := range boxes {
		out[i] = p.ToPhysical(b)
	}
	return out
}

// ToPixel is the inverse of ToPhysical for rectangles whose lower edge was not
// clamped. Coordinates are rounded to the nearest pixel.
func (p Params) ToPixel(r Rect) detection.Box {
	h := r.Span / p.ZFac
	bottom := float64(p.FrameHeight) - r.Low/p.YFac
	return detection.Box{
		X:      int(math.Round(r.Start * p.XFac)),
		Y:      int(math.Round(bottom - h)),
		Width:  int(math.Round(r.Duration * p.XFac)),
		Height: int(math.Round(h)),
	}
}
