package linviz

import (
	"golang.org/x/text/width"
)

// StyleClass names the text style a string is rendered with.
type StyleClass string

const (
	ClassOperation  StyleClass = "operation"
	ClassAnnotation StyleClass = "annotation"
	ClassLabel      StyleClass = "label"
)

// Measurer reports the rendered width of text in pixels. Renderers that can
// measure glyphs supply their own; Estimator is used otherwise.
type Measurer interface {
	Measure(text string, class StyleClass) float64
}

// MeasureFunc adapts a function to the Measurer interface.
type MeasureFunc func(text string, class StyleClass) float64

func (f MeasureFunc) Measure(text string, class StyleClass) float64 {
	return f(text, class)
}

// Estimator approximates text width from the character count, with an
// average character width of CharWidth * FontSize. East Asian wide and
// fullwidth runes count double.
type Estimator struct {
	FontSize  float64
	CharWidth float64
	// LabelScale widens row labels, which are drawn bold.
	LabelScale float64
}

// NewEstimator returns an Estimator for the configured font.
func NewEstimator(cfg Config) Estimator {
	return Estimator{
		FontSize:   float64(cfg.Font.Size),
		CharWidth:  0.6,
		LabelScale: 1.1,
	}
}

func (e Estimator) Measure(text string, class StyleClass) float64 {
	cells := 0
	for _, r := range text {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			cells += 2
		default:
			cells++
		}
	}
	w := float64(cells) * e.FontSize * e.CharWidth
	if class == ClassLabel && e.LabelScale > 0 {
		w *= e.LabelScale
	}
	return w
}
