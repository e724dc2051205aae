package linviz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitBoxes(t *testing.T) {
	d := kvDataset()
	d.Annotations = kvAnnotations()
	vis := visualize(t, d)
	cfg := testConfig()

	require.Len(t, vis.Scene.Boxes, vis.Model.EventCount())
	for _, box := range vis.Scene.Boxes {
		ev, ok := vis.Model.ByGlobalID(box.GlobalID)
		require.True(t, ok)
		assert.Equal(t, ev.Ref(), box.Ref)
		assert.Equal(t, vis.Layout.X(ev.Start), box.X)
		assert.Equal(t, vis.Layout.X(ev.End)-vis.Layout.X(ev.Start), box.Width)
		assert.Equal(t, cfg.Layout.Padding+float64(ev.Row)*(cfg.Layout.BoxHeight+cfg.Layout.RowGap), box.Y)
	}

	// annotation colours override the configured fill
	last := vis.Scene.Boxes[len(vis.Scene.Boxes)-1]
	assert.Equal(t, KindAnnotation, last.Kind)
	assert.Equal(t, "#efaefc", last.Fill)
	assert.Equal(t, cfg.Colors.Operation, vis.Scene.Boxes[0].Fill)
}

func TestEmitDividers(t *testing.T) {
	cfg := testConfig().Layout

	t.Run("with tags", func(t *testing.T) {
		d := kvDataset()
		d.Annotations = kvAnnotations()
		vis := visualize(t, d)
		s := vis.Scene

		require.Len(t, s.Dividers, 2)
		assert.Equal(t, Divider{
			X1: vis.Layout.Offset, Y1: cfg.Padding,
			X2: vis.Layout.Offset, Y2: s.Height - cfg.Padding,
		}, s.Dividers[0])

		// six client rows, then the tags
		y := cfg.Padding + 6*(cfg.BoxHeight+cfg.RowGap) - cfg.RowGap/2
		assert.Equal(t, Divider{X1: cfg.Padding, Y1: y, X2: vis.Layout.Offset, Y2: y}, s.Dividers[1])
	})
	t.Run("clients only", func(t *testing.T) {
		vis := visualize(t, kvDataset())
		require.Len(t, vis.Scene.Dividers, 1)
		assert.Equal(t, vis.Layout.Offset, vis.Scene.Dividers[0].X1)
	})
}
