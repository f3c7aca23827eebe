package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T, src string, opts ...Option) (*fixture, *Engine) {
	t.Helper()
	f := newFixture(t, src, "")
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithMeasurer(fiveApart)}, opts...)
	return f, NewEngine(f.doc, f.matcher, opts...)
}

const nestedDoc = `<html><body>
<table id="outer" style="width: 400px">
	<tr><td><table id="inner"><tr><td>ab</td></tr></table></td><td>x</td></tr>
</table>
<div style="display: none"><table id="hidden"><tr><td>h</td></tr></table></div>
<table id="second"><tr><td>y</td></tr></table>
</body></html>`

func TestEngine_LayoutTables(t *testing.T) {
	f, e := newEngine(t, nestedDoc)
	results, err := e.LayoutTables(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, f.id(t, "outer"), results[0].Element)
	assert.Equal(t, f.id(t, "inner"), results[1].Element)
	assert.Equal(t, f.id(t, "second"), results[2].Element)

	outer := results[0]
	assert.Equal(t, StrategyAuto, outer.Strategy)
	assert.Equal(t, []int{0, 266, 400}, outer.ColumnPos)
	assert.Equal(t, 400, outer.Width)

	inner := results[1]
	assert.Equal(t, 266, inner.Table.ContainingWidth, "nested tables size against their cell")
	assert.Equal(t, 10, inner.Width)
	assert.Equal(t, []int{0, 10}, inner.ColumnPos)

	assert.Equal(t, []int{0, 5}, results[2].ColumnPos)
}

func TestEngine_ContainingWidth(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []Option
		want int
	}{
		{
			name: "ancestor width",
			src: `<div style="width: 500px; padding: 10px">
				<table id="t" style="width: 50%"><tr><td>a</td></tr></table></div>`,
			want: 250,
		},
		{
			name: "ancestor margins and borders",
			src: `<div style="margin: 0 20px; border: 2px solid">
				<table id="t" style="width: 100%"><tr><td>a</td></tr></table></div>`,
			want: 980,
		},
		{
			name: "viewport",
			src:  `<table id="t" style="width: 100%"><tr><td>a</td></tr></table>`,
			opts: []Option{WithViewportWidth(600)},
			want: 600,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, e := newEngine(t, tt.src, tt.opts...)
			results, err := e.LayoutTables(context.Background())
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.want, results[0].Width)
		})
	}
}

func TestEngine_Workers(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, serial := newEngine(t, nestedDoc)
	want, err := serial.LayoutTables(context.Background())
	require.NoError(t, err)

	_, parallel := newEngine(t, nestedDoc, WithWorkers(4))
	got, err := parallel.LayoutTables(context.Background())
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ColumnPos, got[i].ColumnPos)
		assert.Equal(t, want[i].Width, got[i].Width)
	}
}

func TestEngine_Cancelled(t *testing.T) {
	_, e := newEngine(t, nestedDoc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.LayoutTables(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_DefaultMeasurer(t *testing.T) {
	f := newFixture(t, `<table id="t"><tr><td>wide words</td><td>x</td></tr></table>`, "")
	e := NewEngine(f.doc, f.matcher)

	results, err := e.LayoutTables(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	pos := results[0].ColumnPos
	require.Len(t, pos, 3)
	assert.Greater(t, pos[1]-pos[0], pos[2]-pos[1])
}
