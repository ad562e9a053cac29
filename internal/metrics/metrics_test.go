package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFile(t *testing.T) {
	m := New()
	m.ObserveFile(120*time.Millisecond, 3, true)
	m.ObserveFile(80*time.Millisecond, 2, true)
	m.ObserveFile(5*time.Millisecond, 0, false)

	expected := `
# HELP spectro_roi_boxes_found_total Total regions of interest returned
# TYPE spectro_roi_boxes_found_total counter
spectro_roi_boxes_found_total 5
# HELP spectro_roi_files_failed_total Total spectrogram files that could not be decoded
# TYPE spectro_roi_files_failed_total counter
spectro_roi_files_failed_total 1
# HELP spectro_roi_files_processed_total Total spectrogram files processed
# TYPE spectro_roi_files_processed_total counter
spectro_roi_files_processed_total 2
`
	err := testutil.GatherAndCompare(m.registry, strings.NewReader(expected),
		"spectro_roi_boxes_found_total",
		"spectro_roi_files_failed_total",
		"spectro_roi_files_processed_total",
	)
	if err != nil {
		t.Error(err)
	}

	if err := testutil.GatherAndCompare(m.registry, strings.NewReader(`
# HELP spectro_roi_workers_busy Workers currently running a detection
# TYPE spectro_roi_workers_busy gauge
spectro_roi_workers_busy 0
`), "spectro_roi_workers_busy"); err != nil {
		t.Error(err)
	}

	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("histogram collected %d metrics, want 1", n)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Busy.Add(2)
	m.ObserveFile(time.Second, 4, true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		"spectro_roi_workers_busy 2",
		"spectro_roi_boxes_found_total 4",
		"spectro_roi_file_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
