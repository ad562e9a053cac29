package batch

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ironsheep/spectro-roi/internal/detection"
	"github.com/ironsheep/spectro-roi/internal/logger"
	"github.com/ironsheep/spectro-roi/internal/metrics"
	"github.com/ironsheep/spectro-roi/internal/transform"
)

// Seeker detects boxes in one spectrogram file. *detection.Detector implements
// it.
type Seeker interface {
	SeekFile(path string) ([]detection.Box, bool)
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path  string           `json:"path"`
	OK    bool             `json:"ok"`
	Boxes []detection.Box  `json:"boxes"`
	Rects []transform.Rect `json:"rects"`

	Duration time.Duration `json:"-"`
}

// Runner fans files across a fixed pool of workers.
type Runner struct {
	seeker   Seeker
	xf       transform.Params
	workers  int
	metrics  *metrics.Metrics
	onResult func(FileResult)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the pool size. Values below 1 select runtime.NumCPU().
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) { r.workers = n }
}

// WithMetrics records per-file counters and durations in m.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithResultHook calls fn for every finished file. Calls are serialized.
func WithResultHook(fn func(FileResult)) RunnerOption {
	return func(r *Runner) { r.onResult = fn }
}

// NewRunner returns a Runner that detects with s and maps boxes with xf.
func NewRunner(s Seeker, xf transform.Params, opts ...RunnerOption) *Runner {
	r := &Runner{seeker: s, xf: xf}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = runtime.NumCPU()
	}
	return r
}

// Workers returns the pool size.
func (r *Runner) Workers() int {
	return r.workers
}

// Run processes files and returns their results in completion order. Once ctx
// is done no further files are dispatched; files already running finish, and
// Run returns what completed together with ctx.Err().
func (r *Runner) Run(ctx context.Context, files []string) ([]FileResult, error) {
	jobs := make(chan string)
	out := make(chan FileResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				out <- r.process(path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]FileResult, 0, len(files))
	for res := range out {
		if r.onResult != nil {
			r.onResult(res)
		}
		results = append(results, res)
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("batch", "stopped after %d of %d files: %v", len(results), len(files), err)
		return results, err
	}
	return results, nil
}

func (r *Runner) process(path string) FileResult {
	if r.metrics != nil {
		r.metrics.Busy.Add(1)
		defer r.metrics.Busy.Add(-1)
	}

	start := time.Now()
	boxes, ok := r.seeker.SeekFile(path)
	res := FileResult{
		Path:     path,
		OK:       ok,
		Boxes:    boxes,
		Duration: time.Since(start),
	}
	if res.Boxes == nil {
		res.Boxes = []detection.Box{}
	}
	res.Rects = r.xf.ToPhysicalAll(res.Boxes)

	if r.metrics != nil {
		r.metrics.ObserveFile(res.Duration, len(res.Boxes), ok)
	}
	return res
}
