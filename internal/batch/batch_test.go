package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/spectro-roi/internal/detection"
	"github.com/ironsheep/spectro-roi/internal/metrics"
	"github.com/ironsheep/spectro-roi/internal/transform"
)

// fakeSeeker returns canned boxes per path and fails for paths it does not know.
type fakeSeeker struct {
	mu    sync.Mutex
	boxes map[string][]detection.Box
	seen  []string
}

func (f *fakeSeeker) SeekFile(path string) ([]detection.Box, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, path)
	b, ok := f.boxes[path]
	return b, ok
}

func testTransform(t *testing.T) transform.Params {
	t.Helper()
	xf, err := transform.Derive(640, 320, 20, 0, 1500)
	if err != nil {
		t.Fatal(err)
	}
	return xf
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a/clip_sox_mel_10.png",
		"a/clip_sox_mel_2.png",
		"b/clip_sox_mel_1.PNG",
		"a/clip_annotated.png",
		"a/clip_sox_mel_2_CONS.png",
		"a/clip_sox_mel_2_roi_0.png",
		"a/clip_sox_mel.txt",
	} {
		touch(t, filepath.Join(dir, name))
	}

	got, err := Discover(dir, "")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a/clip_sox_mel_2.png"),
		filepath.Join(dir, "a/clip_sox_mel_10.png"),
		filepath.Join(dir, "b/clip_sox_mel_1.PNG"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover = %v, want %v", got, want)
	}

	if _, err := Discover(filepath.Join(dir, "missing"), ""); err == nil {
		t.Error("Discover of a missing directory succeeded")
	}
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"clip_2", "clip_10", true},
		{"clip_10", "clip_2", false},
		{"clip_002", "clip_10", true},
		{"a", "b", true},
		{"clip", "clip_1", true},
		{"x9y", "x9z", true},
		{"same", "same", false},
	}
	for _, tt := range tests {
		if got := naturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRunner_Run(t *testing.T) {
	box := detection.Box{X: 100, Y: 50, Width: 40, Height: 30}
	seeker := &fakeSeeker{boxes: map[string][]detection.Box{
		"one.png":   {box},
		"two.png":   {box, box},
		"empty.png": nil,
	}}
	m := metrics.New()

	var hooked []string
	r := NewRunner(seeker, testTransform(t), WithWorkers(3), WithMetrics(m),
		WithResultHook(func(res FileResult) { hooked = append(hooked, res.Path) }))

	files := []string{"one.png", "two.png", "empty.png", "broken.png"}
	results, err := r.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(files) || len(hooked) != len(files) {
		t.Fatalf("got %d results and %d hook calls, want %d", len(results), len(hooked), len(files))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	byPath := map[string]FileResult{}
	for _, res := range results {
		byPath[res.Path] = res
	}

	if res := byPath["broken.png"]; res.OK || len(res.Boxes) != 0 {
		t.Errorf("broken file = %+v", res)
	}
	if res := byPath["empty.png"]; !res.OK || res.Boxes == nil || len(res.Rects) != 0 {
		t.Errorf("empty file = %+v", res)
	}
	two := byPath["two.png"]
	if len(two.Rects) != 2 || two.Rects[0].Start != 3.125 {
		t.Errorf("two.png rects = %v", two.Rects)
	}

	if got := m.FilesProcessed.Load(); got != 3 {
		t.Errorf("files processed = %d, want 3", got)
	}
	if got := m.FilesFailed.Load(); got != 1 {
		t.Errorf("files failed = %d, want 1", got)
	}
	if got := m.BoxesFound.Load(); got != 3 {
		t.Errorf("boxes found = %d, want 3", got)
	}
	if got := m.Busy.Load(); got != 0 {
		t.Errorf("busy workers after run = %d", got)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	seeker := &fakeSeeker{boxes: map[string][]detection.Box{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewRunner(seeker, testTransform(t), WithWorkers(2)).Run(ctx, []string{"a.png", "b.png"})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(results) != 0 || len(seeker.seen) != 0 {
		t.Errorf("cancelled run processed %v", seeker.seen)
	}
}

func TestRunner_DefaultWorkers(t *testing.T) {
	if r := NewRunner(&fakeSeeker{}, transform.Params{}); r.Workers() < 1 {
		t.Errorf("default workers = %d", r.Workers())
	}
}

func TestRunner_WithDetector(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if dx, dy := x-60, y-40; dx*dx+dy*dy <= 100 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, "clip_sox_mel.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	p := detection.DefaultParams()
	p.ConEdgesMin, p.ConEdgesMax = 100, 300
	p.CoralEdgesMin, p.CoralEdgesMax = 100, 300
	p.RadiusBoost = 0
	d, err := detection.NewDetector(p)
	if err != nil {
		t.Fatal(err)
	}
	xf, err := transform.Derive(120, 80, 10, 0, 4000)
	if err != nil {
		t.Fatal(err)
	}

	results, err := NewRunner(d, xf, WithWorkers(1)).Run(context.Background(), []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !results[0].OK || len(results[0].Boxes) != 1 {
		t.Fatalf("results = %+v", results)
	}
}

func TestReportWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewReportWriter(&buf, "marsh", "beta")

	results := []FileResult{
		{Path: "a.png", OK: true, Boxes: []detection.Box{{X: 1, Y: 2, Width: 3, Height: 4}},
			Rects: []transform.Rect{{Start: 1}}, Duration: 1500 * time.Millisecond},
		{Path: "b.png", OK: false, Boxes: []detection.Box{}, Rects: []transform.Rect{}},
	}
	for _, res := range results {
		if err := w.Write(res); err != nil {
			t.Fatal(err)
		}
	}

	sc := bufio.NewScanner(&buf)
	var docs []map[string]interface{}
	for sc.Scan() {
		var doc map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		docs = append(docs, doc)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	first := docs[0]
	if first["path"] != "a.png" || first["target"] != "marsh" || first["taxon"] != "beta" {
		t.Errorf("unexpected document %v", first)
	}
	if first["elapsed_seconds"] != 1.5 {
		t.Errorf("elapsed_seconds = %v, want 1.5", first["elapsed_seconds"])
	}
	if _, ok := first["Duration"]; ok {
		t.Error("raw duration leaked into the report")
	}
	if boxes, _ := first["boxes"].([]interface{}); len(boxes) != 1 {
		t.Errorf("boxes = %v", first["boxes"])
	}
	if docs[1]["ok"] != false {
		t.Errorf("second document = %v", docs[1])
	}
}

func TestSummarize(t *testing.T) {
	results := []FileResult{
		{OK: true, Boxes: make([]detection.Box, 2), Duration: time.Second},
		{OK: true, Boxes: make([]detection.Box, 4), Duration: 3 * time.Second},
		{OK: true, Boxes: nil, Duration: 2 * time.Second},
		{OK: false},
	}
	s := Summarize(results)

	if s.Files != 4 || s.Failed != 1 || s.Boxes != 6 {
		t.Errorf("counts = %+v", s)
	}
	if s.MeanBoxes != 2 || s.StdDevBoxes != 2 {
		t.Errorf("mean/stddev = %v/%v, want 2/2", s.MeanBoxes, s.StdDevBoxes)
	}
	if s.MedianSeconds != 2 || s.MaxSeconds != 3 {
		t.Errorf("median/max = %v/%v, want 2/3", s.MedianSeconds, s.MaxSeconds)
	}

	if empty := Summarize(nil); empty != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v", empty)
	}
}
