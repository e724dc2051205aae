package linviz

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// Normalize builds the event model from a dataset. The dataset is not
// modified.
//
// Every event gets a dense global id (partition order, then event order,
// annotations last). Tagged annotations get a virtual client id per distinct
// tag, placed after the real clients. Timestamps that tie are then pulled
// apart by a fraction of the smallest gap between distinct timestamps:
//
//   - an operation whose end equals some start is extended by epsilon, so
//     touching operations overlap and read as concurrent;
//   - a point annotation is extended by epsilon/4 so it has a width;
//   - an interval annotation whose end equals some start is shortened by
//     epsilon/2, and one whose start equals some end is shifted right by
//     epsilon/2, so touching annotations abut without overlapping.
//
// All offsets are smaller than half the smallest gap and differ from each
// other, so adjusted timestamps never collide and never reorder timestamps
// that were distinct to begin with.
//
// Two events of the same client where one ends exactly when the other starts
// are accepted as is. Their boxes may overlap on the same row.
func Normalize(d Dataset, opts ...Option) (*Model, error) {
	o := newOptions(opts)

	if err := validate(d); err != nil {
		return nil, err
	}

	starts := make(map[float64]struct{})
	ends := make(map[float64]struct{})
	all := make(map[float64]struct{})
	for _, p := range d.Partitions {
		for _, el := range p.History {
			starts[el.Start] = struct{}{}
			ends[el.End] = struct{}{}
			all[el.Start] = struct{}{}
			all[el.End] = struct{}{}
		}
	}
	for _, a := range d.Annotations {
		end := annotationEnd(a)
		starts[a.Start] = struct{}{}
		ends[end] = struct{}{}
		all[a.Start] = struct{}{}
		all[end] = struct{}{}
	}

	epsilon := tieEpsilon(sortedKeys(all))
	o.logger.Debug("normalizing dataset",
		"partitions", len(d.Partitions), "annotations", len(d.Annotations),
		"timestamps", len(all), "epsilon", epsilon)

	clientRow, rows, tagClient := assignRows(d)

	m := &Model{
		Rows:    rows,
		Epsilon: epsilon,
	}
	gid := 0
	adjusted := make(map[float64]struct{})

	for pi, p := range d.Partitions {
		part := Partition{
			Events:         make([]Event, 0, len(p.History)),
			Linearizations: make([]Linearization, len(p.PartialLinearizations)),
		}
		for i, el := range p.History {
			end := el.End
			if _, ok := starts[end]; ok {
				end += epsilon
				o.logger.Debug("separated touching operation",
					"partition", pi, "event", i, "end", el.End, "adjusted", end)
			}
			ev := Event{
				GlobalID:      gid,
				Partition:     pi,
				Index:         i,
				ClientID:      el.ClientId,
				Row:           clientRow[el.ClientId],
				Start:         el.Start,
				End:           end,
				OriginalStart: el.Start,
				OriginalEnd:   el.End,
				Description:   el.Description,
				Kind:          KindOperation,
			}
			part.Events = append(part.Events, ev)
			m.byGID = append(m.byGID, ev.Ref())
			adjusted[ev.Start] = struct{}{}
			adjusted[ev.End] = struct{}{}
			gid++
		}
		for li, lin := range p.PartialLinearizations {
			part.Linearizations[li] = slices.Clone(Linearization(lin))
		}
		// longest first; stable so equal lengths keep source order
		sort.SliceStable(part.Linearizations, func(i, j int) bool {
			return len(part.Linearizations[i]) > len(part.Linearizations[j])
		})
		part.Largest = largestContaining(part.Linearizations)
		m.Partitions = append(m.Partitions, part)
	}

	annots := Partition{
		Events:      make([]Event, 0, len(d.Annotations)),
		Largest:     map[int]int{},
		Annotations: true,
	}
	ai := len(d.Partitions)
	for i, a := range d.Annotations {
		start, end := a.Start, annotationEnd(a)
		clientID := a.ClientId
		if a.Tag != "" {
			clientID = tagClient[a.Tag]
		}
		ev := Event{
			GlobalID:        gid,
			Partition:       ai,
			Index:           i,
			ClientID:        clientID,
			Row:             clientRow[clientID],
			OriginalStart:   start,
			OriginalEnd:     end,
			Description:     a.Description,
			Kind:            KindAnnotation,
			Tag:             a.Tag,
			Details:         a.Details,
			BackgroundColor: a.BackgroundColor,
			TextColor:       a.TextColor,
		}
		if start == end {
			end += epsilon / 4
		} else {
			if _, ok := starts[end]; ok {
				end -= epsilon / 2
			}
			if _, ok := ends[start]; ok {
				start += epsilon / 2
			}
		}
		ev.Start, ev.End = start, end
		annots.Events = append(annots.Events, ev)
		m.byGID = append(m.byGID, ev.Ref())
		adjusted[ev.Start] = struct{}{}
		adjusted[ev.End] = struct{}{}
		gid++
	}
	m.Partitions = append(m.Partitions, annots)
	m.Timestamps = sortedKeys(adjusted)

	return m, nil
}

// validate checks the parts of the data contract that decoding cannot.
func validate(d Dataset) error {
	for pi, p := range d.Partitions {
		if len(p.History) == 0 && len(p.PartialLinearizations) > 0 {
			return fmt.Errorf("partition %d: %d linearizations over an empty history: %w",
				pi, len(p.PartialLinearizations), ErrDataContract)
		}
		for i, el := range p.History {
			if el.ClientId < 0 {
				return fmt.Errorf("partition %d: event %d: negative client id %d: %w",
					pi, i, el.ClientId, ErrDataContract)
			}
			if invalidTime(el.Start) || invalidTime(el.End) {
				return fmt.Errorf("partition %d: event %d: non-finite timestamp: %w",
					pi, i, ErrDataContract)
			}
			if el.End < el.Start {
				return fmt.Errorf("partition %d: event %d: end %v before start %v: %w",
					pi, i, el.End, el.Start, ErrDataContract)
			}
		}
		for li, lin := range p.PartialLinearizations {
			seen := make(map[int]struct{}, len(lin))
			for si, step := range lin {
				if step.Index < 0 || step.Index >= len(p.History) {
					return fmt.Errorf("partition %d: linearization %d: step %d: index %d out of range [0, %d): %w",
						pi, li, si, step.Index, len(p.History), ErrDataContract)
				}
				if _, dup := seen[step.Index]; dup {
					return fmt.Errorf("partition %d: linearization %d: step %d: event %d linearized twice: %w",
						pi, li, si, step.Index, ErrDataContract)
				}
				seen[step.Index] = struct{}{}
			}
		}
	}
	for i, a := range d.Annotations {
		if a.Tag == "" && a.ClientId < 0 {
			return fmt.Errorf("annotation %d: negative client id %d: %w", i, a.ClientId, ErrDataContract)
		}
		if invalidTime(a.Start) || invalidTime(a.End) {
			return fmt.Errorf("annotation %d: non-finite timestamp: %w", i, ErrDataContract)
		}
	}
	return nil
}

func invalidTime(t float64) bool {
	return math.IsNaN(t) || math.IsInf(t, 0)
}

// annotationEnd treats an end before the start, including an omitted end, as
// a point in time.
func annotationEnd(a Annotation) float64 {
	if a.End < a.Start {
		return a.Start
	}
	return a.End
}

// tieEpsilon is a third of the smallest gap between distinct timestamps, or
// 1 when there are fewer than two.
func tieEpsilon(sorted []float64) float64 {
	minGap := math.Inf(1)
	for i := 1; i < len(sorted); i++ {
		minGap = min(minGap, sorted[i]-sorted[i-1])
	}
	if math.IsInf(minGap, 1) {
		return 1
	}
	return minGap / 3
}

// assignRows orders real clients by id, followed by one virtual client per
// distinct annotation tag in lexicographic order.
func assignRows(d Dataset) (map[int]int, []Row, map[string]int) {
	clients := make(map[int]struct{})
	tags := make(map[string]struct{})
	maxClient := -1
	for _, p := range d.Partitions {
		for _, el := range p.History {
			clients[el.ClientId] = struct{}{}
			maxClient = max(maxClient, el.ClientId)
		}
	}
	for _, a := range d.Annotations {
		if a.Tag != "" {
			tags[a.Tag] = struct{}{}
			continue
		}
		clients[a.ClientId] = struct{}{}
		maxClient = max(maxClient, a.ClientId)
	}

	ids := make([]int, 0, len(clients))
	for id := range clients {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	sortedTags := make([]string, 0, len(tags))
	for tag := range tags {
		sortedTags = append(sortedTags, tag)
	}
	sort.Strings(sortedTags)

	clientRow := make(map[int]int, len(ids)+len(sortedTags))
	rows := make([]Row, 0, len(ids)+len(sortedTags))
	for _, id := range ids {
		clientRow[id] = len(rows)
		rows = append(rows, Row{Index: len(rows), ClientID: id})
	}
	tagClient := make(map[string]int, len(sortedTags))
	for i, tag := range sortedTags {
		id := maxClient + 1 + i
		tagClient[tag] = id
		clientRow[id] = len(rows)
		rows = append(rows, Row{Index: len(rows), ClientID: id, Tag: tag})
	}
	return clientRow, rows, tagClient
}

// largestContaining maps each linearized event to the longest linearization
// containing it. Linearizations must already be sorted longest first, so the
// first hit wins and ties go to the lowest index.
func largestContaining(lins []Linearization) map[int]int {
	largest := make(map[int]int)
	for li, lin := range lins {
		for _, step := range lin {
			if _, ok := largest[step.Index]; !ok {
				largest[step.Index] = li
			}
		}
	}
	return largest
}

func sortedKeys(set map[float64]struct{}) []float64 {
	keys := make([]float64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}
