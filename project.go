package linviz

// Point is a linearization point, or an illegal next marker, drawn as a
// vertical tick through its event's row.
type Point struct {
	Event int     `json:"event"`
	Row   int     `json:"row"`
	X     float64 `json:"x"`
	Y1    float64 `json:"y1"`
	Y2    float64 `json:"y2"`
	// State is the abstract state after the step; empty for illegal markers.
	State string `json:"state,omitempty"`
}

// Segment connects two consecutive points.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Layer is the drawable form of one partial linearization.
type Layer struct {
	Partition int
	Index     int

	Points          []Point
	Segments        []Segment
	Illegal         []Point
	IllegalSegments []Segment

	stepOf  map[int]int
	illegal map[int]struct{}
}

// StepOf returns the step position of event in the linearization.
func (ly *Layer) StepOf(event int) (int, bool) {
	k, ok := ly.stepOf[event]
	return k, ok
}

// IsIllegalNext reports whether event is in the illegal next set.
func (ly *Layer) IsIllegalNext(event int) bool {
	_, ok := ly.illegal[event]
	return ok
}

// LastState is the state after the final step, or "" for an empty
// linearization.
func (ly *Layer) LastState() string {
	if len(ly.Points) == 0 {
		return ""
	}
	return ly.Points[len(ly.Points)-1].State
}

// PartitionProjection holds the layers of one partition and the lookups that
// pick which of them to show for a given event. Largest maps an event to the
// longest linearization containing it as a step, LargestIllegal to the
// longest one with the event in its illegal next set. Ties go to the lower
// index.
type PartitionProjection struct {
	Layers         []Layer
	Largest        map[int]int
	LargestIllegal map[int]int
}

// Resolve returns the layer to show for event, preferring one where it is a
// real step.
func (pp *PartitionProjection) Resolve(event int) (int, bool) {
	if li, ok := pp.Largest[event]; ok {
		return li, true
	}
	li, ok := pp.LargestIllegal[event]
	return li, ok
}

// Projection is the set of layers of every partition.
type Projection struct {
	Partitions []PartitionProjection
}

// Project replays every linearization against a solved layout.
func Project(m *Model, l *Layout, cfg Config) *Projection {
	b := bands{cfg.Layout}
	proj := &Projection{Partitions: make([]PartitionProjection, len(m.Partitions))}

	for pi, p := range m.Partitions {
		pp := PartitionProjection{
			Layers:         make([]Layer, len(p.Linearizations)),
			Largest:        p.Largest,
			LargestIllegal: make(map[int]int),
		}
		for li, lin := range p.Linearizations {
			ly := Layer{
				Partition: pi,
				Index:     li,
				Points:    make([]Point, 0, len(lin)),
				stepOf:    make(map[int]int, len(lin)),
				illegal:   make(map[int]struct{}),
			}
			for k, step := range lin {
				ev := p.Events[step.Index]
				pt := b.tick(ev, l.PointX(pi, li, k))
				pt.State = step.StateDescription
				if k > 0 {
					ly.Segments = append(ly.Segments, b.route(ly.Points[k-1], pt))
				}
				ly.Points = append(ly.Points, pt)
				ly.stepOf[step.Index] = k
			}
			for _, idx := range l.IllegalNext(pi, li) {
				x, ok := l.MarkerX(pi, li, idx)
				if !ok {
					continue
				}
				pt := b.tick(p.Events[idx], x)
				if n := len(ly.Points); n > 0 {
					ly.IllegalSegments = append(ly.IllegalSegments, b.route(ly.Points[n-1], pt))
				}
				ly.Illegal = append(ly.Illegal, pt)
				ly.illegal[idx] = struct{}{}
				if _, seen := pp.LargestIllegal[idx]; !seen {
					pp.LargestIllegal[idx] = li
				}
			}
			pp.Layers[li] = ly
		}
		proj.Partitions[pi] = pp
	}
	return proj
}

// bands maps rows to vertical extents.
type bands struct {
	cfg LayoutConfig
}

func (b bands) top(row int) float64 {
	return b.cfg.Padding + float64(row)*(b.cfg.BoxHeight+b.cfg.RowGap)
}

func (b bands) bottom(row int) float64 {
	return b.top(row) + b.cfg.BoxHeight
}

func (b bands) tick(ev Event, x float64) Point {
	return Point{
		Event: ev.Index,
		Row:   ev.Row,
		X:     x,
		Y1:    b.top(ev.Row) - b.cfg.LineBleed,
		Y2:    b.bottom(ev.Row) + b.cfg.LineBleed,
	}
}

// route joins two ticks through the row bands: moving down (or staying on
// the row) it leaves the bottom of from and enters the top of to, moving up
// it leaves the top and enters the bottom.
func (b bands) route(from, to Point) Segment {
	if to.Row >= from.Row {
		return Segment{X1: from.X, Y1: from.Y2, X2: to.X, Y2: to.Y1}
	}
	return Segment{X1: from.X, Y1: from.Y1, X2: to.X, Y2: to.Y2}
}
