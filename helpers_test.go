package linviz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testConfig uses round spacing constants and no text padding, so expected
// coordinates can be worked out by hand.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Layout.BoxTextPadding = 0
	cfg.Layout.MinTimestampGap = 20
	cfg.Layout.MinLinearizationGap = 20
	return cfg
}

// perChar measures every rune as n pixels.
func perChar(n float64) Measurer {
	return MeasureFunc(func(text string, _ StyleClass) float64 {
		return n * float64(len([]rune(text)))
	})
}

func visualize(t *testing.T, d Dataset, opts ...Option) *Visualization {
	t.Helper()
	opts = append([]Option{WithMeasurer(perChar(0))}, opts...)
	vis, err := Visualize(d, testConfig(), opts...)
	require.NoError(t, err)
	return vis
}

// kvDataset is a key-value history with two keys and a failed check on the
// first: the longest linearization of key x leaves out event 5.
func kvDataset() Dataset {
	return Dataset{Partitions: []PartitionData{{
		History: []HistoryElement{
			{ClientId: 0, Start: 0, End: 100, Description: "get('x') -> 'w'"},
			{ClientId: 1, Start: 5, End: 10, Description: "put('x', 'y')"},
			{ClientId: 2, Start: 0, End: 10, Description: "put('x', 'z')"},
			{ClientId: 1, Start: 20, End: 30, Description: "get('x') -> 'y'"},
			{ClientId: 1, Start: 35, End: 45, Description: "put('x', 'w')"},
			{ClientId: 5, Start: 25, End: 35, Description: "get('x') -> 'z'"},
			{ClientId: 3, Start: 30, End: 40, Description: "get('x') -> 'y'"},
		},
		PartialLinearizations: [][]Step{
			{{1, "y"}, {2, "z"}, {5, "z"}},
			{{2, "z"}, {1, "y"}, {3, "y"}, {6, "y"}, {4, "w"}, {0, "w"}},
		},
	}, {
		History: []HistoryElement{
			{ClientId: 4, Start: 50, End: 90, Description: "get('y') -> 'a'"},
			{ClientId: 2, Start: 55, End: 85, Description: "put('y', 'a')"},
		},
		PartialLinearizations: [][]Step{
			{{1, "a"}, {0, "a"}},
		},
	}}}
}

// kvAnnotations decorates kvDataset with tagged, untagged, point and interval
// annotations.
func kvAnnotations() []Annotation {
	return []Annotation{
		{ClientId: 4, Start: 10, End: 31, Description: "get('y') timeout", BackgroundColor: "#ff9191"},
		{ClientId: 5, Start: 80, End: 80, Description: "get('x') timeout", BackgroundColor: "#ff9191"},
		{Tag: "Server 1", Start: 30, End: 30, Description: "leader", Details: "became leader in term 3 with 2 votes"},
		{Tag: "Server 3", Start: 10, End: 10, Description: "duplicate", Details: "saw duplicate operation put('x', 'y')"},
		{Tag: "Server 2", Start: 80, End: 80, Description: "restart"},
		{Tag: "Server 3", Start: 0, End: 0, Description: "leader", Details: "became leader in term 1 with 3 votes"},
		{Tag: "Test Framework", Start: 20, End: 35, Description: "partition [3] [1 2]", BackgroundColor: "#efaefc"},
		{Tag: "Test Framework", Start: 40, End: 100, Description: "partition [2] [1 3]", BackgroundColor: "#efaefc"},
	}
}
