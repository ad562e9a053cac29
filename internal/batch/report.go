package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ReportWriter writes one JSON document per file, keyed by source path, as
// JSON lines.
type ReportWriter struct {
	enc    *json.Encoder
	target string
	taxon  string
}

type reportRecord struct {
	Target string `json:"target"`
	Taxon  string `json:"taxon"`
	FileResult
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// NewReportWriter writes records for target and taxon to w.
func NewReportWriter(w io.Writer, target, taxon string) *ReportWriter {
	return &ReportWriter{enc: json.NewEncoder(w), target: target, taxon: taxon}
}

// Write appends res to the report. It is not safe for concurrent use; Runner
// serializes its result hook.
func (w *ReportWriter) Write(res FileResult) error {
	rec := reportRecord{
		Target:         w.target,
		Taxon:          w.taxon,
		FileResult:     res,
		ElapsedSeconds: res.Duration.Seconds(),
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write report for %s: %w", res.Path, err)
	}
	return nil
}

// Summary aggregates a batch run.
type Summary struct {
	Files  int
	Failed int
	Boxes  int

	MeanBoxes     float64
	StdDevBoxes   float64
	MedianSeconds float64
	MaxSeconds    float64
}

// Summarize computes per-file statistics over the successfully decoded files.
func Summarize(results []FileResult) Summary {
	s := Summary{Files: len(results)}

	var boxes, secs []float64
	for _, r := range results {
		if !r.OK {
			s.Failed++
			continue
		}
		s.Boxes += len(r.Boxes)
		boxes = append(boxes, float64(len(r.Boxes)))
		secs = append(secs, r.Duration.Seconds())
	}
	if len(boxes) == 0 {
		return s
	}

	s.MeanBoxes = stat.Mean(boxes, nil)
	if len(boxes) > 1 {
		_, s.StdDevBoxes = stat.MeanStdDev(boxes, nil)
	}
	sort.Float64s(secs)
	s.MedianSeconds = stat.Quantile(0.5, stat.Empirical, secs, nil)
	s.MaxSeconds = floats.Max(secs)
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d files (%d failed), %d boxes, %.2f +/- %.2f boxes/file, median %.3fs, max %.3fs",
		s.Files, s.Failed, s.Boxes, s.MeanBoxes, s.StdDevBoxes, s.MedianSeconds, s.MaxSeconds)
}
