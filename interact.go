package linviz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NoLayer marks a partition with no linearization layer visible.
const NoLayer = -1

// Tooltip texts for events outside the displayed linearization.
const (
	TooltipNoDetails            = "no details"
	TooltipOtherPartition       = "not part of selected partition"
	TooltipNoLinearization      = "not part of any partial linearization"
	TooltipSelectedNoLinearized = "selected element is not part of any partial linearization"
	TooltipNotInLinearization   = "not part of selected element's linearization"
	TooltipInvalidOperation     = "invalid operation"
	initialState                = "initial state"
)

// InputKind enumerates the pointer inputs the controller understands.
type InputKind int

const (
	InputHover InputKind = iota
	InputUnhover
	InputClick
	InputClickBackground
	// InputJump moves to the first visible illegal next marker, selecting
	// its linearization when nothing is selected.
	InputJump
)

func (k InputKind) String() string {
	switch k {
	case InputHover:
		return "hover"
	case InputUnhover:
		return "unhover"
	case InputClick:
		return "click"
	case InputClickBackground:
		return "click-background"
	case InputJump:
		return "jump"
	}
	return "input(" + strconv.Itoa(int(k)) + ")"
}

// Input is a pointer event. Target is only used by InputHover and
// InputClick.
type Input struct {
	Kind   InputKind
	Target Ref
}

// State is the interaction state: either unselected or selected on one
// event. LastTooltip is the tooltip most recently rendered, used to suppress
// redundant updates.
type State struct {
	Selected    bool
	Selection   Ref
	LastTooltip string
}

// Frame is what a renderer must show after a transition.
type Frame struct {
	// Visible holds the visible layer of every partition, or NoLayer.
	Visible []int
	// VisibleHistory reports whether the event boxes of each partition are
	// shown.
	VisibleHistory []bool

	// Highlight is the event whose linearization is shown, if any.
	Highlight   Ref
	Highlighted bool

	Selection Ref
	Selected  bool

	// Cleared is a selection whose mark must be removed.
	Cleared    Ref
	HasCleared bool

	Tooltip        string
	TooltipChanged bool

	// Jump is the marker an InputJump moved to.
	Jump    Marker
	HasJump bool
}

// Controller resolves pointer inputs against a solved visualization. It holds
// no mutable state: transitions are pure functions of (State, Input).
type Controller struct {
	model *Model
	proj  *Projection
	// markers are all illegal next markers, sorted by x.
	markers []Marker
}

// Marker is an illegal next marker: a navigable error point. Target is the
// event a jump selects: the last step of the marker's linearization, or the
// marker's own event when the linearization is empty.
type Marker struct {
	Partition int
	Layer     int
	Event     int
	X         float64
	Target    Ref
}

// NewController returns a controller over a projected model.
func NewController(m *Model, proj *Projection) *Controller {
	c := &Controller{model: m, proj: proj}
	for pi, pp := range proj.Partitions {
		for li, ly := range pp.Layers {
			for _, pt := range ly.Illegal {
				target := Ref{Partition: pi, Event: pt.Event}
				if n := len(ly.Points); n > 0 {
					target.Event = ly.Points[n-1].Event
				}
				c.markers = append(c.markers, Marker{
					Partition: pi,
					Layer:     li,
					Event:     pt.Event,
					X:         pt.X,
					Target:    target,
				})
			}
		}
	}
	sort.SliceStable(c.markers, func(i, j int) bool {
		return c.markers[i].X < c.markers[j].X
	})
	return c
}

// DefaultView shows the longest linearization of every partition.
func (c *Controller) DefaultView() []int {
	visible := make([]int, len(c.proj.Partitions))
	for pi, pp := range c.proj.Partitions {
		visible[pi] = NoLayer
		if len(pp.Layers) > 0 {
			visible[pi] = 0
		}
	}
	return visible
}

// Resolve returns the layer to display when ref is inspected.
func (c *Controller) Resolve(ref Ref) (int, bool) {
	if ref.Partition < 0 || ref.Partition >= len(c.proj.Partitions) {
		return NoLayer, false
	}
	return c.proj.Partitions[ref.Partition].Resolve(ref.Event)
}

// allHistory shows the event boxes of every partition.
func (c *Controller) allHistory() []bool {
	history := make([]bool, len(c.proj.Partitions))
	for pi := range history {
		history[pi] = true
	}
	return history
}

// highlight shows the event boxes of ref's partition and only the resolved
// layer of ref. An event without one shows no layer at all.
func (c *Controller) highlight(ref Ref) ([]int, []bool, bool) {
	visible := make([]int, len(c.proj.Partitions))
	history := make([]bool, len(c.proj.Partitions))
	for pi := range visible {
		visible[pi] = NoLayer
	}
	if ref.Partition >= 0 && ref.Partition < len(history) {
		history[ref.Partition] = true
	}
	li, ok := c.Resolve(ref)
	if ok {
		visible[ref.Partition] = li
	}
	return visible, history, ok
}

// View derives the frame contents that follow from a state alone.
func (c *Controller) View(s State) Frame {
	f := Frame{Selection: s.Selection, Selected: s.Selected}
	if !s.Selected {
		f.Visible = c.DefaultView()
		f.VisibleHistory = c.allHistory()
		return f
	}
	var ok bool
	f.Visible, f.VisibleHistory, ok = c.highlight(s.Selection)
	f.Highlight, f.Highlighted = s.Selection, ok
	return f
}

// Apply performs one transition.
func (c *Controller) Apply(s State, in Input) (State, Frame, error) {
	needsTarget := in.Kind == InputHover || in.Kind == InputClick
	if needsTarget {
		if _, ok := c.model.Event(in.Target); !ok {
			return s, Frame{}, fmt.Errorf("%s on partition %d event %d: %w",
				in.Kind, in.Target.Partition, in.Target.Event, ErrNoSuchEvent)
		}
	}

	next := s
	var cleared Ref
	var hasCleared bool
	var jump Marker
	var hasJump bool
	switch in.Kind {
	case InputHover, InputUnhover:
	case InputClick:
		if s.Selected && s.Selection == in.Target {
			next.Selected = false
			next.Selection = Ref{}
			cleared, hasCleared = s.Selection, true
		} else {
			if s.Selected {
				cleared, hasCleared = s.Selection, true
			}
			next.Selected = true
			next.Selection = in.Target
		}
	case InputClickBackground:
		if s.Selected {
			cleared, hasCleared = s.Selection, true
		}
		next.Selected = false
		next.Selection = Ref{}
	case InputJump:
		jump, hasJump = c.FirstError(c.View(s).Visible)
		if hasJump && !s.Selected {
			next.Selected = true
			next.Selection = jump.Target
		}
	default:
		return s, Frame{}, fmt.Errorf("unknown input %s", in.Kind)
	}

	f := c.View(next)
	f.Cleared, f.HasCleared = cleared, hasCleared
	f.Jump, f.HasJump = jump, hasJump
	if in.Kind == InputHover && !next.Selected {
		f.Visible, f.VisibleHistory, f.Highlighted = c.highlight(in.Target)
		if f.Highlighted {
			f.Highlight = in.Target
		}
	}

	tooltip := ""
	if needsTarget {
		tooltip = c.Tooltip(next, in.Target)
	}
	f.Tooltip = tooltip
	f.TooltipChanged = tooltip != s.LastTooltip
	next.LastTooltip = tooltip
	return next, f, nil
}

// Tooltip returns the text shown when hovering over ref in state s.
func (c *Controller) Tooltip(s State, ref Ref) string {
	ev, ok := c.model.Event(ref)
	if !ok {
		return ""
	}
	if ev.Kind == KindAnnotation {
		if ev.Details == "" {
			return TooltipNoDetails
		}
		return ev.Details
	}
	if s.Selected && ref.Partition != s.Selection.Partition {
		return TooltipOtherPartition
	}

	focus := ref
	if s.Selected {
		focus = s.Selection
	}
	li, ok := c.Resolve(focus)
	if !ok {
		if s.Selected {
			return TooltipSelectedNoLinearized
		}
		return TooltipNoLinearization
	}
	ly := &c.proj.Partitions[ref.Partition].Layers[li]

	if k, ok := ly.StepOf(ref.Event); ok {
		prev := initialState
		if k > 0 {
			prev = ly.Points[k-1].State
		}
		return tooltipLines(ev, prev, ly.Points[k].State)
	}
	if ly.IsIllegalNext(ref.Event) {
		prev := ly.LastState()
		if len(ly.Points) == 0 {
			prev = initialState
		}
		return tooltipLines(ev, prev, TooltipInvalidOperation)
	}
	return TooltipNotInLinearization
}

func tooltipLines(ev Event, prev, next string) string {
	var b strings.Builder
	b.WriteString(ev.Description)
	b.WriteString("\nprevious state: ")
	b.WriteString(prev)
	b.WriteString("\nnew state: ")
	b.WriteString(next)
	b.WriteString("\nstart: ")
	b.WriteString(formatTime(ev.OriginalStart))
	b.WriteString("\nend: ")
	b.WriteString(formatTime(ev.OriginalEnd))
	return b.String()
}

func formatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// Markers returns every illegal next marker, sorted by x.
func (c *Controller) Markers() []Marker {
	return c.markers
}

// FirstError returns the leftmost illegal next marker that belongs to a
// visible layer.
func (c *Controller) FirstError(visible []int) (Marker, bool) {
	for _, mk := range c.markers {
		if mk.Partition < len(visible) && visible[mk.Partition] == mk.Layer {
			return mk, true
		}
	}
	return Marker{}, false
}
