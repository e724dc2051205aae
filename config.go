package linviz

import (
	"context"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// FontConfig controls the text of boxes and row labels.
type FontConfig struct {
	Family string `yaml:"family" env:"LINVIZ_FONT_FAMILY, overwrite"` // Font family for all text elements (e.g., "Arial, sans-serif")
	Size   int    `yaml:"size" env:"LINVIZ_FONT_SIZE, overwrite"`     // Base font size in pixels
}

// ColorConfig holds the colors of every drawn element as hex codes.
type ColorConfig struct {
	Background string `yaml:"background" env:"LINVIZ_COLOR_BACKGROUND, overwrite"` // SVG background color
	Text       string `yaml:"text" env:"LINVIZ_COLOR_TEXT, overwrite"`             // Box label text color
	Label      string `yaml:"label" env:"LINVIZ_COLOR_LABEL, overwrite"`           // Row label text color
	Operation  string `yaml:"operation" env:"LINVIZ_COLOR_OPERATION, overwrite"`   // Operation box fill
	Annotation string `yaml:"annotation" env:"LINVIZ_COLOR_ANNOTATION, overwrite"` // Annotation box fill when the annotation sets none
	Point      string `yaml:"point" env:"LINVIZ_COLOR_POINT, overwrite"`           // Linearization point and segment color
	Illegal    string `yaml:"illegal" env:"LINVIZ_COLOR_ILLEGAL, overwrite"`       // Illegal next step marker and segment color
	Selected   string `yaml:"selected" env:"LINVIZ_COLOR_SELECTED, overwrite"`     // Outline of the selected box
}

// LayoutConfig holds the geometry constants. None of them affect which
// constraints the layout satisfies, only the resulting sizes.
type LayoutConfig struct {
	BoxHeight           float64 `yaml:"box_height" env:"LINVIZ_BOX_HEIGHT, overwrite"`                       // Height of an event box in pixels
	RowGap              float64 `yaml:"row_gap" env:"LINVIZ_ROW_GAP, overwrite"`                             // Vertical space between rows in pixels
	Padding             float64 `yaml:"padding" env:"LINVIZ_PADDING, overwrite"`                             // Outer padding of the drawing in pixels
	XOffset             float64 `yaml:"x_offset" env:"LINVIZ_X_OFFSET, overwrite"`                           // Gap between the row label column and timestamp 0
	BoxTextPadding      float64 `yaml:"box_text_padding" env:"LINVIZ_BOX_TEXT_PADDING, overwrite"`           // Horizontal text padding inside a box, per side
	MinTimestampGap     float64 `yaml:"min_timestamp_gap" env:"LINVIZ_MIN_TIMESTAMP_GAP, overwrite"`         // Minimum distance between consecutive timestamps (G)
	MinLinearizationGap float64 `yaml:"min_linearization_gap" env:"LINVIZ_MIN_LINEARIZATION_GAP, overwrite"` // Minimum distance between consecutive linearization points (E)
	LineBleed           float64 `yaml:"line_bleed" env:"LINVIZ_LINE_BLEED, overwrite"`                       // How far point markers extend past a box vertically
	BoxRadius           float64 `yaml:"box_radius" env:"LINVIZ_BOX_RADIUS, overwrite"`                       // Corner radius of event boxes
}

// MarkerConfig styles the linearization point markers.
type MarkerConfig struct {
	Shape       string  `yaml:"shape" env:"LINVIZ_MARKER_SHAPE, overwrite"`               // "line", "circle", "square", "diamond" or "triangle"
	Size        float64 `yaml:"size" env:"LINVIZ_MARKER_SIZE, overwrite"`                 // Marker size in pixels; ignored for "line"
	StrokeWidth float64 `yaml:"stroke_width" env:"LINVIZ_MARKER_STROKE_WIDTH, overwrite"` // Width of point ticks and segments
}

// Config represents the complete configuration of a visualization. It maps
// directly to YAML configuration files:
//   - font and colors control appearance only
//   - layout sets the spacing constants of the layout solver
//   - marker styles the linearization points
type Config struct {
	Font   FontConfig   `yaml:"font"`
	Colors ColorConfig  `yaml:"colors"`
	Layout LayoutConfig `yaml:"layout"`
	Marker MarkerConfig `yaml:"marker"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Font: FontConfig{
			Family: "Arial, sans-serif",
			Size:   12,
		},
		Colors: ColorConfig{
			Background: "#ffffff",
			Text:       "#333333",
			Label:      "#333333",
			Operation:  "#dddddd",
			Annotation: "#e6f0ff",
			Point:      "#4285f4",
			Illegal:    "#d93025",
			Selected:   "#f4b400",
		},
		Layout: LayoutConfig{
			BoxHeight:           30,
			RowGap:              15,
			Padding:             10,
			XOffset:             20,
			BoxTextPadding:      10,
			MinTimestampGap:     20,
			MinLinearizationGap: 20,
			LineBleed:           5,
			BoxRadius:           4,
		},
		Marker: MarkerConfig{
			Shape:       "line",
			Size:        4,
			StrokeWidth: 2,
		},
	}
}

// LoadConfig loads configuration from a YAML file, or returns the default
// configuration if no file is given. Values missing from the file keep their
// defaults.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, config.Validate()
}

// ApplyEnv overrides config values from LINVIZ_* environment variables. A nil
// lookuper reads the process environment.
func ApplyEnv(ctx context.Context, config *Config, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   config,
		Lookuper: lookuper,
	})
	if err != nil {
		return fmt.Errorf("error reading environment: %w", err)
	}
	return config.Validate()
}

// Validate rejects values the layout cannot work with.
func (c Config) Validate() error {
	l := c.Layout
	switch {
	case c.Font.Size <= 0:
		return fmt.Errorf("font.size must be positive, got %d: %w", c.Font.Size, ErrConfig)
	case l.MinTimestampGap <= 0:
		return fmt.Errorf("layout.min_timestamp_gap must be positive, got %v: %w", l.MinTimestampGap, ErrConfig)
	case l.MinLinearizationGap <= 0:
		return fmt.Errorf("layout.min_linearization_gap must be positive, got %v: %w", l.MinLinearizationGap, ErrConfig)
	case l.BoxHeight <= 0:
		return fmt.Errorf("layout.box_height must be positive, got %v: %w", l.BoxHeight, ErrConfig)
	case l.RowGap < 0 || l.Padding < 0 || l.XOffset < 0 || l.BoxTextPadding < 0 || l.LineBleed < 0:
		return fmt.Errorf("layout spacing must not be negative: %w", ErrConfig)
	}
	switch c.Marker.Shape {
	case "line", "circle", "square", "diamond", "triangle":
	default:
		return fmt.Errorf("marker.shape %q is not one of line, circle, square, diamond, triangle: %w",
			c.Marker.Shape, ErrConfig)
	}
	return nil
}
