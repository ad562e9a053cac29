// Package config loads the per-target, per-taxon detection configuration.
//
// The YAML document is read and validated once by Load. After that a Config is
// read-only and may be shared by any number of workers.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/spectro-roi/internal/detection"
	"github.com/ironsheep/spectro-roi/internal/imaging"
	"github.com/ironsheep/spectro-roi/internal/transform"
)

// Lookup and validation errors.
var (
	ErrUnknownTarget = errors.New("unknown target")
	ErrUnknownTaxon  = errors.New("unknown taxon")
	ErrInvalidColor  = errors.New("invalid color")
	ErrMissingKey    = errors.New("missing required key")
)

// DefaultTaxon is used when a caller does not name one.
const DefaultTaxon = "beta"

// Config is the whole configuration document.
type Config struct {
	// Debug enables the _EDGES and _CORAL snapshots in addition to _CONS.
	Debug bool `yaml:"debug"`

	Targets map[string]*Target `yaml:"targets"`
}

// Target describes one recording site: where its spectrograms live, how they
// are rendered, and the tuned parameters for each taxon.
type Target struct {
	ProcessedDir string `yaml:"processed_dir,omitempty"`
	DebugDir     string `yaml:"debug_dir,omitempty"`
	TrainDir     string `yaml:"train_dir,omitempty"`

	FrameX           int     `yaml:"frame_x"`
	FrameY           int     `yaml:"frame_y"`
	RecordingSeconds float64 `yaml:"recording_seconds"`
	SpecFMin         float64 `yaml:"spec_fmin"`
	SpecFMax         float64 `yaml:"spec_fmax"`

	Taxa map[string]*Taxon `yaml:"taxa"`
}

var targetKeys = []string{"frame_x", "frame_y", "recording_seconds", "spec_fmin", "spec_fmax", "taxa"}

// UnmarshalYAML rejects targets that leave out any geometry key.
func (t *Target) UnmarshalYAML(n *yaml.Node) error {
	if err := requireKeys(n, targetKeys); err != nil {
		return err
	}
	type plain Target
	return n.Decode((*plain)(t))
}

// Taxon is the detection parameter block for one taxon.
type Taxon struct {
	ConEdgesMin   float64 `yaml:"con_edges_min"`
	ConEdgesMax   float64 `yaml:"con_edges_max"`
	CoralEdgesMin float64 `yaml:"coral_edges_min"`
	CoralEdgesMax float64 `yaml:"coral_edges_max"`
	ThreshMin     uint8   `yaml:"thresh_min"`
	ThreshMax     uint8   `yaml:"thresh_max"`
	RadiusBoost   float64 `yaml:"radius_boost"`
	MinROI        int     `yaml:"min_roi"`
	MaxROI        int     `yaml:"max_roi"`
	RectColor     Color   `yaml:"rect_color"`
	LineThick     int     `yaml:"line_thick"`
	Y1Max         int     `yaml:"y1_max"`
}

var taxonKeys = []string{
	"con_edges_min", "con_edges_max", "coral_edges_min", "coral_edges_max",
	"thresh_min", "thresh_max", "radius_boost", "min_roi", "max_roi",
	"rect_color", "line_thick", "y1_max",
}

// UnmarshalYAML rejects taxa that leave out any detection key.
func (t *Taxon) UnmarshalYAML(n *yaml.Node) error {
	if err := requireKeys(n, taxonKeys); err != nil {
		return err
	}
	type plain Taxon
	return n.Decode((*plain)(t))
}

// Params converts the block to detection parameters.
func (t *Taxon) Params() detection.Params {
	return detection.Params{
		ConEdgesMin:   t.ConEdgesMin,
		ConEdgesMax:   t.ConEdgesMax,
		CoralEdgesMin: t.CoralEdgesMin,
		CoralEdgesMax: t.CoralEdgesMax,
		ThreshMin:     t.ThreshMin,
		ThreshMax:     t.ThreshMax,
		RadiusBoost:   t.RadiusBoost,
		MinROI:        t.MinROI,
		MaxROI:        t.MaxROI,
		RectColor:     t.RectColor.Color,
		LineThick:     t.LineThick,
		Y1Max:         t.Y1Max,
	}
}

// Color is a draw colour written either as a hex string ("#00ff00") or as an
// [r, g, b] list of 0-255 components.
type Color struct {
	imaging.Color
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		parsed, err := imaging.ParseColor(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w: %v", n.Line, ErrInvalidColor, err)
		}
		c.Color = parsed
		return nil
	case yaml.SequenceNode:
		var rgb []int
		if err := n.Decode(&rgb); err != nil {
			return fmt.Errorf("line %d: %w: %v", n.Line, ErrInvalidColor, err)
		}
		if len(rgb) != 3 {
			return fmt.Errorf("line %d: %w: want 3 components, got %d", n.Line, ErrInvalidColor, len(rgb))
		}
		for _, v := range rgb {
			if v < 0 || v > 255 {
				return fmt.Errorf("line %d: %w: component %d out of range", n.Line, ErrInvalidColor, v)
			}
		}
		c.Color = imaging.RGB(uint8(rgb[0]), uint8(rgb[1]), uint8(rgb[2]))
		return nil
	default:
		return fmt.Errorf("line %d: %w: want a hex string or [r, g, b]", n.Line, ErrInvalidColor)
	}
}

// MarshalYAML writes the colour as a hex string.
func (c Color) MarshalYAML() (interface{}, error) {
	return c.Hex(), nil
}

func requireKeys(n *yaml.Node, keys []string) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	present := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		present[n.Content[i].Value] = true
	}
	var missing []string
	for _, k := range keys {
		if !present[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("line %d: %w: %s", n.Line, ErrMissingKey, strings.Join(missing, ", "))
	}
	return nil
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every target's geometry and every taxon's parameters.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return errors.New("config defines no targets")
	}
	var errs []error
	for _, name := range c.TargetNames() {
		t := c.Targets[name]
		if t == nil {
			errs = append(errs, fmt.Errorf("target %q is empty", name))
			continue
		}
		if _, err := c.Transform(name); err != nil {
			errs = append(errs, err)
		}
		if len(t.Taxa) == 0 {
			errs = append(errs, fmt.Errorf("target %q defines no taxa", name))
		}
		for _, taxon := range sortedKeys(t.Taxa) {
			p, err := c.Params(name, taxon)
			if err == nil {
				err = p.Validate()
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("target %q taxon %q: %w", name, taxon, err))
			}
		}
	}
	return errors.Join(errs...)
}

// TargetNames returns the configured target names in sorted order.
func (c *Config) TargetNames() []string {
	return sortedKeys(c.Targets)
}

// Target returns the named target.
func (c *Config) Target(name string) (*Target, error) {
	t, ok := c.Targets[name]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	return t, nil
}

// Params returns the detection parameters for target and taxon.
func (c *Config) Params(target, taxon string) (detection.Params, error) {
	t, err := c.Target(target)
	if err != nil {
		return detection.Params{}, err
	}
	tx, ok := t.Taxa[taxon]
	if !ok || tx == nil {
		return detection.Params{}, fmt.Errorf("%w: %q in target %q", ErrUnknownTaxon, taxon, target)
	}
	return tx.Params(), nil
}

// Transform derives the coordinate transform for target.
func (c *Config) Transform(target string) (transform.Params, error) {
	t, err := c.Target(target)
	if err != nil {
		return transform.Params{}, err
	}
	p, err := transform.Derive(t.FrameX, t.FrameY, t.RecordingSeconds, t.SpecFMin, t.SpecFMax)
	if err != nil {
		return transform.Params{}, fmt.Errorf("target %q: %w", target, err)
	}
	return p, nil
}

// Detector builds a detector for target and taxon. Frames are resized to the
// target's frame size, the _CONS overlay goes to debug_dir when one is set, and
// training tiles go to train_dir when one is set.
func (c *Config) Detector(target, taxon string) (*detection.Detector, error) {
	p, err := c.Params(target, taxon)
	if err != nil {
		return nil, err
	}
	t := c.Targets[target]

	opts := []detection.Option{
		detection.WithFrameSize(t.FrameX, t.FrameY),
		detection.WithFullDebug(c.Debug),
	}
	if t.DebugDir != "" {
		opts = append(opts, detection.WithDebugSink(imaging.DirSink{Dir: t.DebugDir}))
	}
	if t.TrainDir != "" {
		opts = append(opts, detection.WithTrainingTiles(t.TrainDir, imaging.DefaultTileSize))
	}
	return detection.NewDetector(p, opts...)
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example returns a complete configuration with one target and the default
// taxon, suitable as a starting point.
func Example() *Config {
	p := detection.DefaultParams()
	return &Config{
		Targets: map[string]*Target{
			"bioblitz": {
				ProcessedDir:     "processed",
				DebugDir:         "debug",
				FrameX:           640,
				FrameY:           320,
				RecordingSeconds: 20,
				SpecFMin:         0,
				SpecFMax:         1500,
				Taxa: map[string]*Taxon{
					DefaultTaxon: {
						ConEdgesMin:   p.ConEdgesMin,
						ConEdgesMax:   p.ConEdgesMax,
						CoralEdgesMin: p.CoralEdgesMin,
						CoralEdgesMax: p.CoralEdgesMax,
						ThreshMin:     p.ThreshMin,
						ThreshMax:     p.ThreshMax,
						RadiusBoost:   p.RadiusBoost,
						MinROI:        p.MinROI,
						MaxROI:        p.MaxROI,
						RectColor:     Color{p.RectColor},
						LineThick:     p.LineThick,
						Y1Max:         p.Y1Max,
					},
				},
			},
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
