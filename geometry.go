package linviz

// Box is the rectangle of one event.
type Box struct {
	Ref      Ref     `json:"ref"`
	GlobalID int     `json:"gid"`
	Kind     Kind    `json:"kind"`
	Row      int     `json:"row"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Label    string  `json:"label"`
	Fill     string  `json:"fill"`
	Color    string  `json:"color"`
	// TextX is the anchor of the centered label.
	TextX float64 `json:"text_x"`
	TextY float64 `json:"text_y"`
}

// RowLabel is the label of one row, right-aligned at X.
type RowLabel struct {
	Row   int     `json:"row"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Divider is a guide line: the vertical line at the first timestamp, or the
// horizontal line between client rows and tag rows.
type Divider struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// SceneLayer holds the drawable lines of one linearization. Points and
// Segments use the valid style, Illegal and IllegalSegments the illegal next
// style.
type SceneLayer struct {
	Partition       int       `json:"partition"`
	Index           int       `json:"index"`
	Default         bool      `json:"default"`
	Points          []Point   `json:"points"`
	Segments        []Segment `json:"segments"`
	Illegal         []Point   `json:"illegal"`
	IllegalSegments []Segment `json:"illegal_segments"`
}

// Scene is the renderer-agnostic geometry of a visualization.
type Scene struct {
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Rows     []RowLabel   `json:"rows"`
	Dividers []Divider    `json:"dividers"`
	Boxes    []Box        `json:"boxes"`
	Layers   []SceneLayer `json:"layers"`
}

// Emit converts a solved and projected model into draw geometry.
func Emit(m *Model, l *Layout, proj *Projection, cfg Config) *Scene {
	b := bands{cfg.Layout}
	s := &Scene{}

	for _, row := range m.Rows {
		s.Rows = append(s.Rows, RowLabel{
			Row:   row.Index,
			Label: row.Label(),
			X:     cfg.Layout.Padding + l.LabelWidth,
			Y:     b.top(row.Index) + cfg.Layout.BoxHeight/2,
		})
	}

	for _, p := range m.Partitions {
		for _, ev := range p.Events {
			x1, x2 := l.X(ev.Start), l.X(ev.End)
			box := Box{
				Ref:      ev.Ref(),
				GlobalID: ev.GlobalID,
				Kind:     ev.Kind,
				Row:      ev.Row,
				X:        x1,
				Y:        b.top(ev.Row),
				Width:    x2 - x1,
				Height:   cfg.Layout.BoxHeight,
				Label:    ev.Description,
				Fill:     cfg.Colors.Operation,
				Color:    cfg.Colors.Text,
				TextX:    (x1 + x2) / 2,
				TextY:    b.top(ev.Row) + cfg.Layout.BoxHeight/2,
			}
			if ev.Kind == KindAnnotation {
				box.Fill = cfg.Colors.Annotation
				if ev.BackgroundColor != "" {
					box.Fill = ev.BackgroundColor
				}
				if ev.TextColor != "" {
					box.Color = ev.TextColor
				}
			}
			s.Boxes = append(s.Boxes, box)
		}
	}

	for _, pp := range proj.Partitions {
		for _, ly := range pp.Layers {
			s.Layers = append(s.Layers, SceneLayer{
				Partition:       ly.Partition,
				Index:           ly.Index,
				Default:         ly.Index == 0,
				Points:          ly.Points,
				Segments:        ly.Segments,
				Illegal:         ly.Illegal,
				IllegalSegments: ly.IllegalSegments,
			})
		}
	}

	s.Width = l.Offset + l.Span() + cfg.Layout.Padding
	for _, box := range s.Boxes {
		s.Width = max(s.Width, box.X+box.Width+cfg.Layout.Padding)
	}
	rows := len(m.Rows)
	s.Height = 2 * cfg.Layout.Padding
	if rows > 0 {
		s.Height = b.bottom(rows-1) + cfg.Layout.Padding + cfg.Layout.LineBleed
	}

	s.Dividers = append(s.Dividers, Divider{
		X1: l.Offset, Y1: cfg.Layout.Padding,
		X2: l.Offset, Y2: s.Height - cfg.Layout.Padding,
	})
	clients := 0
	for _, row := range m.Rows {
		if row.Tag == "" {
			clients++
		}
	}
	if clients < rows {
		y := b.top(clients) - cfg.Layout.RowGap/2
		s.Dividers = append(s.Dividers, Divider{
			X1: cfg.Layout.Padding, Y1: y,
			X2: l.Offset, Y2: y,
		})
	}
	return s
}
