package detection

import (
	"fmt"
	"image"
	"strconv"

	"github.com/ironsheep/spectro-roi/internal/imaging"
	"github.com/ironsheep/spectro-roi/internal/logger"
)

// coralThick is the stroke width of consolidated contours on the _CORAL overlay.
const coralThick = 2

// Detector runs the detection pipeline with one immutable parameter set. It is
// safe for concurrent use as long as its Sink is.
type Detector struct {
	params    Params
	sink      imaging.Sink
	fullDebug bool
	frameX    int
	frameY    int
	trainDir  string
	tileSize  int
}

// Option configures a Detector.
type Option func(*Detector)

// WithDebugSink sends the _CONS overlay (and, with WithFullDebug, the _EDGES and
// _CORAL snapshots) of every named detection to s.
func WithDebugSink(s imaging.Sink) Option {
	return func(d *Detector) { d.sink = s }
}

// WithFullDebug enables the _EDGES and _CORAL snapshots.
func WithFullDebug(on bool) Option {
	return func(d *Detector) { d.fullDebug = on }
}

// WithFrameSize makes SeekFile resize frames to x by y pixels.
func WithFrameSize(x, y int) Option {
	return func(d *Detector) {
		d.frameX = x
		d.frameY = y
	}
}

// WithTrainingTiles writes a size x size tile per detected box into dir.
func WithTrainingTiles(dir string, size int) Option {
	return func(d *Detector) {
		d.trainDir = dir
		d.tileSize = size
	}
}

// NewDetector validates p and returns a Detector holding a copy of it.
func NewDetector(p Params, opts ...Option) (*Detector, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection parameters: %w", err)
	}
	d := &Detector{params: p}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Params returns the detector's parameter set.
func (d *Detector) Params() Params {
	return d.params
}

// Result is the full outcome of one detection.
type Result struct {
	// Boxes are the filtered pixel boxes in contour discovery order.
	Boxes []Box

	// Raw are the contours of the first edge pass.
	Raw Contours

	// Consolidation holds the consolidation pass stages.
	Consolidation Consolidation
}

// Detect runs extraction, consolidation and box filtering on img. It has no side
// effects.
func (d *Detector) Detect(img image.Image) *Result {
	p := d.params
	raw := Extract(img, p.ConEdgesMin, p.ConEdgesMax, ApproxNone)
	cons := ConsolidateStages(img, raw, ConsolidateParams{
		RadiusBoost: p.RadiusBoost,
		EdgeMin:     p.CoralEdgesMin,
		EdgeMax:     p.CoralEdgesMax,
		ThreshMin:   p.ThreshMin,
		ThreshMax:   p.ThreshMax,
	})
	boxes := FilterBoxes(cons.Contours, p.MinROI, p.MaxROI)
	return &Result{Boxes: boxes, Raw: raw, Consolidation: cons}
}

// Seek detects boxes in img and returns them in pixel space. When name is not
// empty, debug artifacts and training tiles are written under its stem; failures
// there are logged and never affect the returned boxes.
//
// Every box is returned regardless of Y1Max, which only limits what the debug
// overlay draws.
func (d *Detector) Seek(img image.Image, name string) []Box {
	res := d.Detect(img)
	if name != "" {
		d.writeArtifacts(img, name, res)
	}
	return res.Boxes
}

// SeekFile loads the frame at path and runs Seek on it. If the file cannot be
// read or decoded the failure is logged and ok is false; the box list is empty.
func (d *Detector) SeekFile(path string) (boxes []Box, ok bool) {
	logger.Info("detect", "seeking ROIs in %s", path)
	img, err := imaging.LoadFrame(path, d.frameX, d.frameY)
	if err != nil {
		logger.Warn("detect", "failed to load %s: %v", path, err)
		return nil, false
	}
	boxes = d.Seek(img, path)
	logger.Debug("detect", "%s: %d boxes", path, len(boxes))
	return boxes, true
}

// Overlay returns a copy of img with every box whose top row is below the
// suppression line drawn and numbered by its index in boxes.
func (d *Detector) Overlay(img image.Image, boxes []Box) *image.RGBA {
	out := imaging.CloneRGBA(img)
	p := d.params
	for i, b := range boxes {
		if b.Y <= p.Y1Max {
			continue
		}
		imaging.DrawRect(out, b.X, b.Y, b.X+b.Width, b.Y+b.Height, p.LineThick, p.RectColor)
		imaging.DrawLabel(out, b.X+2, b.Y+b.Height-3, strconv.Itoa(i), p.RectColor)
	}
	return out
}

func (d *Detector) writeArtifacts(img image.Image, name string, res *Result) {
	if d.sink != nil {
		d.writeDebug(imaging.DebugName(name, imaging.SuffixCons), d.Overlay(img, res.Boxes))

		if d.fullDebug {
			d.writeDebug(imaging.DebugName(name, imaging.SuffixEdges), res.Consolidation.Edges)

			coral := imaging.CloneRGBA(img)
			for _, c := range res.Consolidation.Contours {
				imaging.DrawPolyline(coral, c.Points, true, coralThick, imaging.Green)
			}
			d.writeDebug(imaging.DebugName(name, imaging.SuffixCoral), coral)
		}
	}

	if d.trainDir != "" && len(res.Boxes) > 0 {
		regions := make([]image.Rectangle, len(res.Boxes))
		for i, b := range res.Boxes {
			regions[i] = b.Rect()
		}
		if _, err := imaging.ExportTiles(img, regions, d.trainDir, imaging.Stem(name), d.tileSize); err != nil {
			logger.Warn("detect", "training tiles for %s: %v", name, err)
		}
	}
}

func (d *Detector) writeDebug(name string, img image.Image) {
	logger.Debug("detect", "writing %s", name)
	if err := d.sink.Write(name, img); err != nil {
		logger.Warn("detect", "debug write %s failed: %v", name, err)
	}
}
