package linviz

import (
	"fmt"
	"math"
	"sort"
)

// Layout assigns an x coordinate to every distinct timestamp of a model.
// Coordinates are absolute: timestamp 0 sits at Offset, right of the row
// label column.
type Layout struct {
	Timestamps []float64
	Offset     float64
	LabelWidth float64
	// TextWidth is the minimum box width of each event, by global id.
	TextWidth []float64

	x map[float64]float64
	// points[p][l][k] is the x of step k of linearization l in partition p.
	points [][][]float64
	// markers[p][l] maps an illegal next event to the x of its marker.
	markers [][]map[int]float64
	// illegal[p][l] is the sorted illegal next set of linearization l.
	illegal [][][]int
}

// X returns the x coordinate of timestamp t.
func (l *Layout) X(t float64) float64 {
	x, ok := l.x[t]
	if !ok {
		panic(fmt.Sprintf("linviz: timestamp %v is not part of the layout", t))
	}
	return x
}

// Span is the distance between the first and last timestamp.
func (l *Layout) Span() float64 {
	if len(l.Timestamps) == 0 {
		return 0
	}
	return l.X(l.Timestamps[len(l.Timestamps)-1]) - l.Offset
}

// PointX returns the x of step k of linearization lin in partition p.
func (l *Layout) PointX(p, lin, k int) float64 {
	return l.points[p][lin][k]
}

// MarkerX returns the x of the illegal next marker of event in linearization
// lin of partition p.
func (l *Layout) MarkerX(p, lin, event int) (float64, bool) {
	x, ok := l.markers[p][lin][event]
	return x, ok
}

// IllegalNext returns the illegal next set of linearization lin in partition p.
func (l *Layout) IllegalNext(p, lin int) []int {
	return l.illegal[p][lin]
}

// Solve computes the layout of a model in a single left-to-right pass.
//
// The constraints are:
//
//	(a) x(t[i]) >= x(t[i-1]) + G for consecutive timestamps
//	(b) x(e.end) >= x(e.start) + w(e) for every event e
//	(c) for every linearization, point(k) >= x(start of step k's event),
//	    point(k) >= point(k-1) + E, and x(end of step k's event) >= point(k)
//	(d) every illegal next marker m of a linearization: m >= x(start of its
//	    event), m >= last point + E, and x(end of its event) >= m
//
// Each constraint is a lower bound on one variable in terms of variables that
// belong to strictly smaller timestamps, and none is an upper bound. The
// timestamps are visited in increasing order, which is a topological order of
// those dependencies, so when x(t) is fixed every bound on it is already
// known. Setting x(t) to the largest of its lower bounds is then optimal:
// every later bound is non-decreasing in the earlier variables, so a smaller
// x(t) can only loosen what comes after, and no feasible assignment can place
// any timestamp further left than the greedy one. Induction over the scan
// gives the minimum span. Points and markers are resolved lazily the first
// time the scan reaches the end of their event, and each is computed once, so
// the pass is linear in timestamps plus linearization steps after sorting.
func Solve(m *Model, cfg Config, opts ...Option) (*Layout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	measurer := o.measurer
	if measurer == nil {
		measurer = NewEstimator(cfg)
	}
	gap := cfg.Layout.MinTimestampGap
	linGap := cfg.Layout.MinLinearizationGap

	l := &Layout{
		Timestamps: m.Timestamps,
		TextWidth:  make([]float64, m.EventCount()),
		x:          make(map[float64]float64, len(m.Timestamps)),
		points:     make([][][]float64, len(m.Partitions)),
		markers:    make([][]map[int]float64, len(m.Partitions)),
		illegal:    make([][][]int, len(m.Partitions)),
	}

	for _, row := range m.Rows {
		l.LabelWidth = max(l.LabelWidth, measurer.Measure(row.Label(), ClassLabel))
	}
	l.Offset = cfg.Layout.Padding + l.LabelWidth + cfg.Layout.XOffset

	// steps[p][event] lists (linearization, step) pairs placing the event;
	// illegalBy[p][event] lists linearizations with the event in their
	// illegal next set.
	type stepRef struct{ lin, step int }
	steps := make([]map[int][]stepRef, len(m.Partitions))
	illegalBy := make([]map[int][]int, len(m.Partitions))
	var events []Event
	for pi, p := range m.Partitions {
		steps[pi] = make(map[int][]stepRef)
		illegalBy[pi] = make(map[int][]int)
		l.points[pi] = make([][]float64, len(p.Linearizations))
		l.markers[pi] = make([]map[int]float64, len(p.Linearizations))
		l.illegal[pi] = make([][]int, len(p.Linearizations))
		for li, lin := range p.Linearizations {
			l.points[pi][li] = make([]float64, 0, len(lin))
			l.markers[pi][li] = make(map[int]float64)
			for k, step := range lin {
				steps[pi][step.Index] = append(steps[pi][step.Index], stepRef{li, k})
			}
			l.illegal[pi][li] = illegalNext(p.Events, lin)
			for _, ev := range l.illegal[pi][li] {
				illegalBy[pi][ev] = append(illegalBy[pi][ev], li)
			}
		}
		for _, ev := range p.Events {
			l.TextWidth[ev.GlobalID] = measurer.Measure(ev.Description, classOf(ev)) +
				2*cfg.Layout.BoxTextPadding
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].End < events[j].End
	})

	if len(m.Timestamps) == 0 {
		return l, nil
	}

	// startX is x(start) of an event, or the current scan position when the
	// start has not been placed yet. That only happens for linearizations that
	// order an event before one that finished before it started.
	startX := func(ev Event, pos float64) float64 {
		if x, ok := l.x[ev.Start]; ok {
			return x
		}
		o.logger.Debug("linearization step precedes its start",
			"partition", ev.Partition, "event", ev.Index, "start", ev.Start)
		return pos
	}
	point := func(pi, li, k int, pos float64) float64 {
		p := m.Partitions[pi]
		xs := l.points[pi][li]
		for len(xs) <= k {
			j := len(xs)
			v := startX(p.Events[p.Linearizations[li][j].Index], pos)
			if j > 0 {
				v = max(v, xs[j-1]+linGap)
			}
			xs = append(xs, v)
		}
		l.points[pi][li] = xs
		return xs[k]
	}
	marker := func(pi, li, ev int, pos float64) float64 {
		if x, ok := l.markers[pi][li][ev]; ok {
			return x
		}
		p := m.Partitions[pi]
		v := startX(p.Events[ev], pos)
		if n := len(p.Linearizations[li]); n > 0 {
			v = max(v, point(pi, li, n-1, pos)+linGap)
		}
		l.markers[pi][li][ev] = v
		return v
	}

	l.x[m.Timestamps[0]] = l.Offset
	cursor := 0
	for i := 1; i < len(m.Timestamps); i++ {
		t := m.Timestamps[i]
		pos := l.x[m.Timestamps[i-1]] + gap
		for cursor < len(events) && events[cursor].End <= t {
			ev := events[cursor]
			cursor++
			pos = max(pos, startX(ev, pos)+l.TextWidth[ev.GlobalID])
			for _, s := range steps[ev.Partition][ev.Index] {
				pos = max(pos, point(ev.Partition, s.lin, s.step, pos))
			}
			for _, li := range illegalBy[ev.Partition][ev.Index] {
				pos = max(pos, marker(ev.Partition, li, ev.Index, pos))
			}
		}
		l.x[t] = pos
	}

	o.logger.Debug("layout solved",
		"timestamps", len(m.Timestamps), "events", len(events),
		"label_width", l.LabelWidth, "span", l.Span())
	return l, nil
}

// illegalNext returns, in index order, the events a linearization leaves out
// that could have been linearized next: those starting before every other
// left-out event ends.
func illegalNext(events []Event, lin Linearization) []int {
	included := make(map[int]struct{}, len(lin))
	for _, step := range lin {
		included[step.Index] = struct{}{}
	}
	// smallest and second smallest end among excluded events, so each event
	// can be compared against the minimum over the others
	first, second := math.Inf(1), math.Inf(1)
	firstIdx := -1
	for i, ev := range events {
		if _, ok := included[i]; ok {
			continue
		}
		switch {
		case ev.End < first:
			first, second = ev.End, first
			firstIdx = i
		case ev.End < second:
			second = ev.End
		}
	}
	var out []int
	for i, ev := range events {
		if _, ok := included[i]; ok {
			continue
		}
		minOther := first
		if i == firstIdx {
			minOther = second
		}
		if ev.Start < minOther {
			out = append(out, i)
		}
	}
	return out
}

func classOf(ev Event) StyleClass {
	if ev.Kind == KindAnnotation {
		return ClassAnnotation
	}
	return ClassOperation
}
