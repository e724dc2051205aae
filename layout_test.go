package linviz

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveTouchingOperations(t *testing.T) {
	vis := visualize(t, Dataset{Partitions: []PartitionData{{
		History: []HistoryElement{
			{ClientId: 0, Start: 10, End: 20, Description: "A"},
			{ClientId: 1, Start: 20, End: 30, Description: "B"},
		},
	}}})
	l := vis.Layout
	eps := vis.Model.Epsilon

	assert.Equal(t, l.Offset, l.X(10))
	assert.Equal(t, l.Offset+20, l.X(20))
	assert.Equal(t, l.Offset+40, l.X(20+eps))
	assert.Equal(t, l.Offset+60, l.X(30))
	assert.Less(t, l.X(20), l.X(20+eps))
}

func TestSolveTextFit(t *testing.T) {
	vis := visualize(t, Dataset{Partitions: []PartitionData{{
		History: []HistoryElement{
			{ClientId: 0, Start: 0, End: 10, Description: "wide"},
			{ClientId: 1, Start: 10, End: 11, Description: "x"},
		},
	}}}, WithMeasurer(perChar(20)))
	l := vis.Layout
	eps := vis.Model.Epsilon

	// "wide" ends at 10+eps and needs 80px
	assert.Equal(t, l.Offset+20, l.X(10))
	assert.Equal(t, l.Offset+80, l.X(10+eps))
	// "x" needs 20px from x(10), less than the gap already gives
	assert.Equal(t, l.Offset+100, l.X(11))
	assert.Equal(t, 80.0, l.TextWidth[0])
	assert.Equal(t, 20.0, l.TextWidth[1])
}

func TestSolveLabelColumn(t *testing.T) {
	d := Dataset{
		Partitions: []PartitionData{{
			History: []HistoryElement{{ClientId: 0, Start: 0, End: 1, Description: "a"}},
		}},
		Annotations: []Annotation{{Tag: "Test Framework", Start: 0, End: 1}},
	}
	vis := visualize(t, d, WithMeasurer(perChar(2)))

	cfg := testConfig()
	assert.Equal(t, 28.0, vis.Layout.LabelWidth)
	assert.Equal(t, cfg.Layout.Padding+28+cfg.Layout.XOffset, vis.Layout.Offset)
}

func TestSolveLinearizationSpacing(t *testing.T) {
	// three fully concurrent operations: only the point gap separates them
	vis := visualize(t, Dataset{Partitions: []PartitionData{{
		History: []HistoryElement{
			{ClientId: 0, Start: 0, End: 100, Description: "a"},
			{ClientId: 1, Start: 0, End: 100, Description: "b"},
			{ClientId: 2, Start: 0, End: 100, Description: "c"},
		},
		PartialLinearizations: [][]Step{{{0, "1"}, {1, "2"}, {2, "3"}}},
	}}})
	l := vis.Layout

	assert.Equal(t, l.Offset, l.PointX(0, 0, 0))
	assert.Equal(t, l.Offset+20, l.PointX(0, 0, 1))
	assert.Equal(t, l.Offset+40, l.PointX(0, 0, 2))
	assert.Equal(t, l.Offset+40, l.X(100))
}

func TestSolveIllegalMarkerSpacing(t *testing.T) {
	vis := visualize(t, Dataset{Partitions: []PartitionData{{
		History: []HistoryElement{
			{ClientId: 0, Start: 0, End: 100, Description: "a"},
			{ClientId: 1, Start: 0, End: 100, Description: "b"},
			{ClientId: 2, Start: 0, End: 100, Description: "c"},
		},
		PartialLinearizations: [][]Step{{{0, "1"}, {1, "2"}}},
	}}})
	l := vis.Layout

	assert.Equal(t, []int{2}, l.IllegalNext(0, 0))
	x, ok := l.MarkerX(0, 0, 2)
	require.True(t, ok)
	assert.Equal(t, l.PointX(0, 0, 1)+20, x)
	assert.Equal(t, l.Offset+40, l.X(100))
	_, ok = l.MarkerX(0, 0, 0)
	assert.False(t, ok)
}

func TestSolveDegenerate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		vis := visualize(t, Dataset{})
		assert.Empty(t, vis.Layout.Timestamps)
		assert.Equal(t, 0.0, vis.Layout.Span())
		assert.Empty(t, vis.Scene.Boxes)
	})
	t.Run("single timestamp", func(t *testing.T) {
		m := &Model{Timestamps: []float64{42}, Partitions: []Partition{{Annotations: true}}}
		l, err := Solve(m, testConfig(), WithMeasurer(perChar(0)))
		require.NoError(t, err)
		assert.Equal(t, l.Offset, l.X(42))
		assert.Equal(t, 0.0, l.Span())
	})
	t.Run("all equal", func(t *testing.T) {
		vis := visualize(t, Dataset{Partitions: []PartitionData{{History: []HistoryElement{
			{ClientId: 0, Start: 7, End: 7, Description: "a"},
			{ClientId: 1, Start: 7, End: 7, Description: "b"},
		}}}})
		assert.Equal(t, vis.Layout.Offset+20, vis.Layout.X(8))
	})
}

func TestSolveRejectsBadConfig(t *testing.T) {
	m, err := Normalize(kvDataset())
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Layout.MinTimestampGap = 0
	_, err = Solve(m, cfg)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSolveIsPure(t *testing.T) {
	d := kvDataset()
	d.Annotations = kvAnnotations()

	a := visualize(t, d, WithMeasurer(perChar(7)))
	b := visualize(t, d, WithMeasurer(perChar(7)))

	opt := cmp.AllowUnexported(Layout{}, Layer{})
	if diff := cmp.Diff(a.Layout, b.Layout, opt); diff != "" {
		t.Errorf("layouts differ:\n%s", diff)
	}
	if diff := cmp.Diff(a.Projection, b.Projection, opt); diff != "" {
		t.Errorf("projections differ:\n%s", diff)
	}
	if diff := cmp.Diff(a.Scene, b.Scene); diff != "" {
		t.Errorf("scenes differ:\n%s", diff)
	}
}

// checkLayout asserts the layout constraints hold for every event, step and
// illegal next marker.
func checkLayout(t *testing.T, vis *Visualization, cfg Config) {
	t.Helper()
	m, l := vis.Model, vis.Layout
	gap, linGap := cfg.Layout.MinTimestampGap, cfg.Layout.MinLinearizationGap
	const slack = 1e-9

	for i := 1; i < len(m.Timestamps); i++ {
		prev, cur := l.X(m.Timestamps[i-1]), l.X(m.Timestamps[i])
		require.Less(t, prev, cur)
		require.GreaterOrEqual(t, cur-prev, gap-slack)
	}
	for pi, p := range m.Partitions {
		for _, ev := range p.Events {
			require.GreaterOrEqual(t, l.X(ev.End)-l.X(ev.Start), l.TextWidth[ev.GlobalID]-slack,
				"event %d/%d does not fit its text", pi, ev.Index)
		}
		for li, lin := range p.Linearizations {
			for k, step := range lin {
				ev := p.Events[step.Index]
				x := l.PointX(pi, li, k)
				require.GreaterOrEqual(t, x, l.X(ev.Start)-slack)
				require.LessOrEqual(t, x, l.X(ev.End)+slack)
				if k > 0 {
					require.GreaterOrEqual(t, x-l.PointX(pi, li, k-1), linGap-slack)
				}
			}
			for _, idx := range l.IllegalNext(pi, li) {
				x, ok := l.MarkerX(pi, li, idx)
				require.True(t, ok)
				ev := p.Events[idx]
				require.GreaterOrEqual(t, x, l.X(ev.Start)-slack)
				require.LessOrEqual(t, x, l.X(ev.End)+slack)
				if n := len(lin); n > 0 {
					require.GreaterOrEqual(t, x-l.PointX(pi, li, n-1), linGap-slack)
				}
			}
		}
	}
}

func TestSolveConstraintsHold(t *testing.T) {
	t.Run("kv", func(t *testing.T) {
		d := kvDataset()
		d.Annotations = kvAnnotations()
		vis := visualize(t, d, WithMeasurer(perChar(6)))
		checkLayout(t, vis, testConfig())
	})

	rng := rand.New(rand.NewSource(11))
	for iter := 0; iter < 200; iter++ {
		d := randomDataset(rng)
		cfg := testConfig()
		cfg.Layout.BoxTextPadding = float64(rng.Intn(8))
		cfg.Layout.MinLinearizationGap = float64(1 + rng.Intn(40))
		vis, err := Visualize(d, cfg, WithMeasurer(perChar(float64(rng.Intn(12)))))
		require.NoError(t, err)
		checkLayout(t, vis, cfg)
	}
}
