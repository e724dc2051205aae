package linviz

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/orsinium-labs/enum"
)

// Dataset is the visualization input produced by an upstream checker.
type Dataset struct {
	Partitions  []PartitionData `json:"Partitions" yaml:"Partitions"`
	Annotations []Annotation    `json:"Annotations" yaml:"Annotations"`
}

// PartitionData is one independently checked group of operations together
// with the partial linearizations found for it.
type PartitionData struct {
	History               []HistoryElement `json:"History" yaml:"History"`
	PartialLinearizations [][]Step         `json:"PartialLinearizations" yaml:"PartialLinearizations"`
}

// HistoryElement is one client's invocation-to-response interval.
type HistoryElement struct {
	ClientId    int     `json:"ClientId" yaml:"ClientId"`
	Start       float64 `json:"Start" yaml:"Start"`
	End         float64 `json:"End" yaml:"End"`
	Description string  `json:"Description" yaml:"Description"`
}

// Annotation is a display-only interval or point. A non-empty Tag places the
// annotation on its own row instead of the row of ClientId.
type Annotation struct {
	ClientId        int     `json:"ClientId" yaml:"ClientId"`
	Tag             string  `json:"Tag" yaml:"Tag"`
	Start           float64 `json:"Start" yaml:"Start"`
	End             float64 `json:"End" yaml:"End"`
	Description     string  `json:"Description" yaml:"Description"`
	Details         string  `json:"Details" yaml:"Details"`
	BackgroundColor string  `json:"BackgroundColor" yaml:"BackgroundColor"`
	TextColor       string  `json:"TextColor" yaml:"TextColor"`
}

// Step is one element of a partial linearization: the local index of the
// linearized event and the abstract state after it took effect.
type Step struct {
	Index            int    `json:"Index" yaml:"Index"`
	StateDescription string `json:"StateDescription" yaml:"StateDescription"`
}

// Linearization is a hypothesized total order over a subset of a partition's
// events.
type Linearization []Step

// Kind enum

type Kind enum.Member[string]

var (
	KindOperation  = Kind{"operation"}
	KindAnnotation = Kind{"annotation"}
	KindEnum       = enum.New(KindOperation, KindAnnotation)
)

func (k Kind) String() string {
	return k.Value
}

// flatten to a string in JSON

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value)
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed := KindEnum.Parse(s)
	if parsed == nil {
		return fmt.Errorf("kind %q: %w", s, ErrDataContract)
	}
	*k = *parsed
	return nil
}

// Event is the normalized form of a history element or an annotation.
// Start and End are the adjusted timestamps used for layout; OriginalStart
// and OriginalEnd are the values supplied by the caller.
type Event struct {
	GlobalID  int
	Partition int
	Index     int
	ClientID  int
	Row       int

	Start         float64
	End           float64
	OriginalStart float64
	OriginalEnd   float64

	Description     string
	Kind            Kind
	Tag             string
	Details         string
	BackgroundColor string
	TextColor       string
}

// Ref returns the (partition, local index) reference of the event.
func (e Event) Ref() Ref {
	return Ref{Partition: e.Partition, Event: e.Index}
}

// Point reports whether the event was supplied as a point in time.
func (e Event) Point() bool {
	return e.OriginalStart == e.OriginalEnd
}

// Partition is a normalized partition. Linearizations are ordered by length,
// longest first, so index 0 is the default view. Largest maps a local event
// index to the longest linearization containing it as a real step.
type Partition struct {
	Events         []Event
	Linearizations []Linearization
	Largest        map[int]int
	Annotations    bool
}

// Row is one horizontal lane of the timeline.
type Row struct {
	Index    int
	ClientID int
	Tag      string
}

// Label is the text shown in the row label column.
func (r Row) Label() string {
	if r.Tag != "" {
		return r.Tag
	}
	return strconv.Itoa(r.ClientID)
}

// Ref identifies an event by partition and local index.
type Ref struct {
	Partition int
	Event     int
}

// Model is the normalized event model shared by every later stage.
type Model struct {
	Partitions []Partition
	Rows       []Row
	// Timestamps is the sorted set of distinct adjusted timestamps.
	Timestamps []float64
	Epsilon    float64

	byGID []Ref
}

// Event returns the event referenced by ref.
func (m *Model) Event(ref Ref) (Event, bool) {
	if ref.Partition < 0 || ref.Partition >= len(m.Partitions) {
		return Event{}, false
	}
	p := m.Partitions[ref.Partition]
	if ref.Event < 0 || ref.Event >= len(p.Events) {
		return Event{}, false
	}
	return p.Events[ref.Event], true
}

// ByGlobalID returns the event with the given global id.
func (m *Model) ByGlobalID(gid int) (Event, bool) {
	if gid < 0 || gid >= len(m.byGID) {
		return Event{}, false
	}
	return m.Event(m.byGID[gid])
}

// EventCount is the number of events across all partitions.
func (m *Model) EventCount() int {
	return len(m.byGID)
}
