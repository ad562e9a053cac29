package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/spectro-roi/internal/config"
)

// createBlobImageFile writes a white PNG with a filled black disk at its centre
// and returns its path.
func createBlobImageFile(t *testing.T, width, height, radius int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	cx, cy := width/2, height/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if dx, dy := x-cx, y-cy; dx*dx+dy*dy <= radius*radius {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "clip_sox_mel.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

const testConfig = `
targets:
  marsh:
    debug_dir: %s
    frame_x: 200
    frame_y: 200
    recording_seconds: 10
    spec_fmin: 0
    spec_fmax: 2000
    taxa:
      beta:
        con_edges_min: 100
        con_edges_max: 300
        coral_edges_min: 100
        coral_edges_max: 300
        thresh_min: 127
        thresh_max: 255
        radius_boost: 0
        min_roi: 100
        max_roi: 20000
        rect_color: "#ff0000"
        line_thick: 1
        y1_max: 0
`

func newConfiguredServer(t *testing.T) (*Server, string) {
	t.Helper()
	debugDir := filepath.Join(t.TempDir(), "debug")
	cfg, err := config.Parse([]byte(fmt.Sprintf(testConfig, debugDir)))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return New(cfg), debugDir
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeResult unpacks the JSON text content of a successful tool call.
func decodeResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content %v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode %q: %v", text, err)
	}
}

func wantToolError(t *testing.T, resp *MCPResponse, code int, contains string) {
	t.Helper()
	if resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != code {
		t.Errorf("error code = %d, want %d", resp.Error.Code, code)
	}
	if data, _ := resp.Error.Data.(string); contains != "" && !strings.Contains(data, contains) {
		t.Errorf("error data %q does not mention %q", data, contains)
	}
}

func TestHandleToolsCall_SpectrogramLoad(t *testing.T) {
	s, _ := newConfiguredServer(t)
	path := createBlobImageFile(t, 120, 80, 10)

	var info struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		Format       string `json:"format"`
		MatchesFrame *bool  `json:"matches_frame"`
	}
	decodeResult(t, callTool(t, s, "spectrogram_load", map[string]interface{}{"path": path}), &info)
	if info.Width != 120 || info.Height != 80 || info.Format != "png" {
		t.Errorf("info = %+v", info)
	}
	if info.MatchesFrame != nil {
		t.Error("matches_frame reported without a target")
	}

	decodeResult(t, callTool(t, s, "spectrogram_load", map[string]interface{}{"path": path, "target": "marsh"}), &info)
	if info.MatchesFrame == nil || *info.MatchesFrame {
		t.Errorf("120x80 frame should not match the 200x200 target: %+v", info.MatchesFrame)
	}
}

func TestHandleToolsCall_SpectrogramDimensions(t *testing.T) {
	path := createBlobImageFile(t, 64, 32, 4)

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	decodeResult(t, callTool(t, New(nil), "spectrogram_dimensions", map[string]interface{}{"path": path}), &dims)
	if dims.Width != 64 || dims.Height != 32 {
		t.Errorf("dimensions = %+v", dims)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	resp := callTool(t, New(nil), "spectrogram_dimensions", map[string]interface{}{"path": "/nonexistent/clip.png"})
	wantToolError(t, resp, -32000, "")
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	resp := callTool(t, New(nil), "image_crop", map[string]interface{}{"path": "x.png"})
	wantToolError(t, resp, -32000, "unknown tool")
}

func TestHandleToolsCall_MissingArguments(t *testing.T) {
	wantToolError(t, callTool(t, New(nil), "spectrogram_load", nil), -32000, "path is required")
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	resp := New(nil).handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	wantToolError(t, resp, -32602, "")
}

func TestHandleToolsCall_SpectrogramSeek(t *testing.T) {
	s, debugDir := newConfiguredServer(t)
	path := createBlobImageFile(t, 200, 200, 20)

	var res SeekResult
	decodeResult(t, callTool(t, s, "spectrogram_seek", map[string]interface{}{"path": path, "target": "marsh"}), &res)

	if res.Taxon != config.DefaultTaxon {
		t.Errorf("taxon = %q, want the default", res.Taxon)
	}
	if res.Count != 1 || len(res.Boxes) != 1 || len(res.Rects) != 1 {
		t.Fatalf("result = %+v, want one box", res)
	}
	b, r := res.Boxes[0], res.Rects[0]
	if math.Abs(r.Start-float64(b.X)/20) > 1e-9 || math.Abs(r.Duration-float64(b.Width)/20) > 1e-9 {
		t.Errorf("rect %+v does not match box %+v at 20 px/s", r, b)
	}
	if _, err := os.Stat(filepath.Join(debugDir, "clip_sox_mel_CONS.png")); err != nil {
		t.Errorf("debug overlay not written: %v", err)
	}

	// The detector is built once per target and taxon.
	callTool(t, s, "spectrogram_seek", map[string]interface{}{"path": path, "target": "marsh"})
	if len(s.detectors) != 1 {
		t.Errorf("detector cache has %d entries, want 1", len(s.detectors))
	}
}

func TestHandleToolsCall_SpectrogramSeekErrors(t *testing.T) {
	path := createBlobImageFile(t, 200, 200, 20)
	s, _ := newConfiguredServer(t)

	tests := []struct {
		name     string
		srv      *Server
		args     map[string]interface{}
		contains string
	}{
		{"no config", New(nil), map[string]interface{}{"path": path, "target": "marsh"}, "no configuration"},
		{"no target", s, map[string]interface{}{"path": path}, "required"},
		{"unknown target", s, map[string]interface{}{"path": path, "target": "swamp"}, "unknown target"},
		{"unknown taxon", s, map[string]interface{}{"path": path, "target": "marsh", "taxon": "owl"}, "unknown taxon"},
		{"missing file", s, map[string]interface{}{"path": "/nonexistent.png", "target": "marsh"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantToolError(t, callTool(t, tt.srv, "spectrogram_seek", tt.args), -32000, tt.contains)
		})
	}
}

func TestHandleToolsCall_SpectrogramEdges(t *testing.T) {
	path := createBlobImageFile(t, 100, 100, 15)
	s := New(nil)

	var res struct {
		Width         int    `json:"width"`
		EdgePixels    int    `json:"edge_pixels"`
		ImageBase64   string `json:"image_base64"`
		MimeType      string `json:"mime_type"`
		Contours      int    `json:"contours"`
		OuterContours int    `json:"outer_contours"`
	}
	decodeResult(t, callTool(t, s, "spectrogram_edges", map[string]interface{}{
		"path": path, "threshold_low": 100, "threshold_high": 300, "approx": "simple",
	}), &res)

	if res.Width != 100 || res.MimeType != "image/png" || res.ImageBase64 == "" {
		t.Errorf("unexpected edge image %+v", res)
	}
	if res.EdgePixels == 0 || res.Contours == 0 || res.OuterContours == 0 {
		t.Errorf("blob produced no edges: %+v", res)
	}

	resp := callTool(t, s, "spectrogram_edges", map[string]interface{}{"path": path, "approx": "tc89"})
	wantToolError(t, resp, -32000, "approximation")
}

func TestHandleToolsCall_SpectrogramTransform(t *testing.T) {
	var res TransformResult
	decodeResult(t, callTool(t, New(nil), "spectrogram_transform", map[string]interface{}{
		"x": 100, "y": 50, "width": 40, "height": 30,
		"frame_width": 640, "frame_height": 320, "recording_seconds": 20, "fmax": 1500,
	}), &res)

	if res.Rect.Start != 3.125 || res.Rect.Duration != 1.25 || res.Rect.Span != 140.625 {
		t.Errorf("rect = %+v", res.Rect)
	}
	if math.Abs(res.Rect.Low-51.2) > 1e-6 {
		t.Errorf("low = %v, want 51.2", res.Rect.Low)
	}

	s, _ := newConfiguredServer(t)
	decodeResult(t, callTool(t, s, "spectrogram_transform", map[string]interface{}{
		"x": 20, "y": 0, "width": 10, "height": 10, "target": "marsh",
	}), &res)
	if res.Params.XFac != 20 || res.Rect.Start != 1 {
		t.Errorf("target transform = %+v", res)
	}

	resp := callTool(t, New(nil), "spectrogram_transform", map[string]interface{}{"x": 1, "y": 1, "width": 1, "height": 1})
	wantToolError(t, resp, -32000, "invalid spectrogram geometry")
}

func TestHandleToolsCall_SpectrogramCacheClear(t *testing.T) {
	s := New(nil)
	a := createBlobImageFile(t, 64, 32, 5)
	b := createBlobImageFile(t, 64, 32, 5)
	for _, p := range []string{a, b} {
		decodeResult(t, callTool(t, s, "spectrogram_dimensions", map[string]interface{}{"path": p}), &struct{}{})
	}

	tests := []struct {
		name        string
		args        map[string]interface{}
		wantEvicted int
		wantCached  int
	}{
		{"evict one path", map[string]interface{}{"path": a}, 1, 1},
		{"evict unknown path", map[string]interface{}{"path": "/never/loaded.png"}, 0, 1},
		{"clear everything", nil, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res CacheResult
			decodeResult(t, callTool(t, s, "spectrogram_cache_clear", tt.args), &res)
			if res.Evicted != tt.wantEvicted || res.Cached != tt.wantCached {
				t.Errorf("got %+v, want evicted %d cached %d", res, tt.wantEvicted, tt.wantCached)
			}
		})
	}

	// A cleared frame is decoded from disk again.
	if err := os.WriteFile(a, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	wantToolError(t, callTool(t, s, "spectrogram_dimensions", map[string]interface{}{"path": a}), -32000, "decode")
}
