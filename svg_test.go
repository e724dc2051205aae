package linviz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderSVG(t *testing.T, vis *Visualization, state State) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, vis.WriteSVG(&b, state))
	return b.String()
}

func TestWriteSVG(t *testing.T) {
	d := kvDataset()
	d.Annotations = kvAnnotations()
	vis := visualize(t, d)
	cfg := testConfig()

	out := renderSVG(t, vis, State{})

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
	// three history groups and the longest layer of each partition
	assert.Equal(t, 3, strings.Count(out, `<g class="history" `))
	assert.Equal(t, 5, strings.Count(out, `visibility="visible"`))
	assert.Equal(t, 1, strings.Count(out, `visibility="hidden"`))
	assert.Equal(t, len(vis.Scene.Boxes), strings.Count(out, `<g class="event `))
	assert.Equal(t, 8, strings.Count(out, `<g class="event annotation"`))
	assert.NotContains(t, out, "event operation selected")

	// one stylesheet rule per kind; only custom colours are inlined
	assert.Contains(t, out, ".event.operation rect { fill: "+cfg.Colors.Operation+"; }")
	assert.Contains(t, out, ".event.annotation rect { fill: "+cfg.Colors.Annotation+"; }")
	assert.Contains(t, out, `style="fill: #efaefc"`)
	assert.Equal(t, 4, strings.Count(out, `style="fill: `))

	assert.Equal(t, 2, strings.Count(out, `<line class="divider" `))
	assert.Contains(t, out, "get(&apos;x&apos;) -&gt; &apos;w&apos;")
	assert.NotContains(t, out, "-> '")
	assert.Contains(t, out, "<title>became leader in term 3 with 2 votes</title>")
	assert.Contains(t, out, `class="row-label"`)
	assert.Contains(t, out, ">Test Framework</text>")
	assert.Equal(t, 4, strings.Count(out, `<line class="illegal" `))
}

func TestWriteSVGSelection(t *testing.T) {
	vis := visualize(t, kvDataset())
	state, _, err := vis.Controller.Apply(State{}, Input{Kind: InputClick, Target: Ref{0, 5}})
	require.NoError(t, err)

	out := renderSVG(t, vis, state)

	assert.Equal(t, 1, strings.Count(out, `class="event operation selected"`))
	assert.Contains(t, out, `<g class="event operation selected" data-partition="0" data-event="5"`)
	assert.Contains(t, out, `<g class="history" data-partition="0" visibility="visible">`)
	assert.Contains(t, out, `<g class="history" data-partition="1" visibility="hidden">`)
	assert.Contains(t, out, `<g class="linearization" data-partition="0" data-index="1" visibility="visible">`)
	assert.Contains(t, out, `<g class="linearization" data-partition="0" data-index="0" visibility="hidden">`)
	assert.Contains(t, out, `<g class="linearization" data-partition="1" data-index="0" visibility="hidden">`)
	// titles follow the selection
	assert.Contains(t, out, "<title>"+escapeXML(TooltipNotInLinearization)+"</title>")
	assert.Contains(t, out, "<title>"+TooltipOtherPartition+"</title>")
}

func TestWriteSVGMarkerShapes(t *testing.T) {
	shapes := map[string]string{
		"line":     "",
		"circle":   "<circle ",
		"square":   `<rect x=`,
		"diamond":  "<polygon ",
		"triangle": "<polygon ",
	}
	for shape, want := range shapes {
		t.Run(shape, func(t *testing.T) {
			cfg := testConfig()
			cfg.Marker.Shape = shape
			vis, err := Visualize(Dataset{Partitions: []PartitionData{{
				History:               []HistoryElement{{ClientId: 0, Start: 0, End: 10, Description: "a"}},
				PartialLinearizations: [][]Step{{{0, "s"}}},
			}}}, cfg, WithMeasurer(perChar(0)))
			require.NoError(t, err)

			out := renderSVG(t, vis, State{})
			layer := out[strings.Index(out, `<g class="linearization"`):]
			assert.Contains(t, layer, `<line class="point"`)
			if want != "" {
				assert.Contains(t, layer, want)
			} else {
				assert.NotContains(t, layer, "<polygon ")
				assert.NotContains(t, layer, "<circle ")
			}
		})
	}
}

func TestNum(t *testing.T) {
	assert.Equal(t, "10", num(10))
	assert.Equal(t, "10.5", num(10.5))
	assert.Equal(t, "3.33", num(10.0/3))
	assert.Equal(t, "0", num(0))
	assert.Equal(t, "-2.25", num(-2.25))
}
