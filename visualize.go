package linviz

import (
	"io"
	"log/slog"
)

type options struct {
	logger   *slog.Logger
	measurer Measurer
}

// Option configures the pipeline.
type Option func(*options)

// WithLogger sets the logger for diagnostics. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeasurer replaces the default text width Estimator.
func WithMeasurer(m Measurer) Option {
	return func(o *options) {
		o.measurer = m
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Visualization is the result of the full pipeline over one dataset.
type Visualization struct {
	Config     Config
	Model      *Model
	Layout     *Layout
	Projection *Projection
	Scene      *Scene
	Controller *Controller
}

// Visualize runs every stage over a dataset. The result is a pure function of
// the dataset and the configuration.
func Visualize(d Dataset, cfg Config, opts ...Option) (*Visualization, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := Normalize(d, opts...)
	if err != nil {
		return nil, err
	}
	l, err := Solve(m, cfg, opts...)
	if err != nil {
		return nil, err
	}
	proj := Project(m, l, cfg)
	return &Visualization{
		Config:     cfg,
		Model:      m,
		Layout:     l,
		Projection: proj,
		Scene:      Emit(m, l, proj, cfg),
		Controller: NewController(m, proj),
	}, nil
}

// WriteSVG renders the visualization as SVG in the given interaction state.
func (v *Visualization) WriteSVG(w io.Writer, state State) error {
	return WriteSVG(w, v.Scene, v.Controller, v.Config, state)
}
