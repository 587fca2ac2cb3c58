package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INLOpen/nexusfetch/core"
)

func gapFrame() *Frame {
	f := New(
		ColumnSpec{Name: "NodeId", Field: "NodeId", Kind: Label, Key: true, Categorical: true, Agg: core.AggMode},
		ColumnSpec{Name: "ping_RTT", Field: "RTT", Kind: Float, Agg: core.AggMean},
	)
	f.AppendRow(ts(0), map[string]any{"NodeId": "109", "ping_RTT": 10.0})
	f.AppendRow(ts(1), map[string]any{"NodeId": "109"})
	f.AppendRow(ts(2), map[string]any{"NodeId": "109"})
	f.AppendRow(ts(3), map[string]any{"NodeId": "109", "ping_RTT": 40.0})
	return f
}

func TestInterpolateLinear(t *testing.T) {
	out := Interpolate(gapFrame(), InterpLinear)
	require.Equal(t, 4, out.NumRows())

	rtt, _ := out.Column("ping_RTT")
	assert.Equal(t, 10.0, rtt.Float(0))
	assert.Equal(t, 20.0, rtt.Float(1))
	assert.Equal(t, 30.0, rtt.Float(2))
	assert.Equal(t, 40.0, rtt.Float(3))
}

func TestInterpolateNearest(t *testing.T) {
	out := Interpolate(gapFrame(), InterpNearest)
	rtt, _ := out.Column("ping_RTT")
	assert.Equal(t, 10.0, rtt.Float(1), "equidistant gaps take the earlier value")
	assert.Equal(t, 40.0, rtt.Float(2))
}

func TestInterpolateNeverExtrapolates(t *testing.T) {
	f := New(ColumnSpec{Name: "ping_RTT", Field: "RTT", Kind: Float, Agg: core.AggMean})
	f.AppendRow(ts(0), nil)
	f.AppendRow(ts(1), map[string]any{"ping_RTT": 10.0})
	f.AppendRow(ts(2), map[string]any{"ping_RTT": 30.0})
	f.AppendRow(ts(3), nil)

	out := Interpolate(f, InterpLinear)
	// Leading and trailing nulls stay null; with a single non-key column the
	// all-null rows are then dropped entirely.
	require.Equal(t, 2, out.NumRows())
	rtt, _ := out.Column("ping_RTT")
	assert.Equal(t, 10.0, rtt.Float(0))
	assert.Equal(t, 30.0, rtt.Float(1))
}

func TestInterpolateDirectionalFills(t *testing.T) {
	t.Run("ffill", func(t *testing.T) {
		out := Interpolate(gapFrame(), InterpFFill)
		rtt, _ := out.Column("ping_RTT")
		assert.Equal(t, 10.0, rtt.Float(1))
		assert.Equal(t, 10.0, rtt.Float(2))
	})
	t.Run("bfill", func(t *testing.T) {
		out := Interpolate(gapFrame(), InterpBFill)
		rtt, _ := out.Column("ping_RTT")
		assert.Equal(t, 40.0, rtt.Float(1))
		assert.Equal(t, 40.0, rtt.Float(2))
	})
}

func TestInterpolateCategoricalForwardFills(t *testing.T) {
	f := New(
		ColumnSpec{Name: "modem_DeviceMode", Field: "DeviceMode", Kind: Label, Categorical: true, Agg: core.AggMode},
		ColumnSpec{Name: "modem_RSSI", Field: "RSSI", Kind: Float, Agg: core.AggMean},
	)
	f.AppendRow(ts(0), map[string]any{"modem_DeviceMode": "LTE", "modem_RSSI": -70.0})
	f.AppendRow(ts(1), map[string]any{"modem_RSSI": -72.0})
	f.AppendRow(ts(2), map[string]any{"modem_DeviceMode": "3G", "modem_RSSI": -80.0})

	out := Interpolate(f, InterpLinear)
	mode, _ := out.Column("modem_DeviceMode")
	// Labels cannot be averaged; under a numeric method they carry forward.
	assert.Equal(t, "LTE", mode.Label(1))
	assert.Equal(t, "3G", mode.Label(2))
}

func TestInterpolateGroupsByEntity(t *testing.T) {
	f := New(
		ColumnSpec{Name: "NodeId", Field: "NodeId", Kind: Label, Key: true, Categorical: true, Agg: core.AggMode},
		ColumnSpec{Name: "ping_RTT", Field: "RTT", Kind: Float, Agg: core.AggMean},
	)
	f.AppendRow(ts(0), map[string]any{"NodeId": "109", "ping_RTT": 10.0})
	f.AppendRow(ts(1), map[string]any{"NodeId": "122", "ping_RTT": 90.0})
	f.AppendRow(ts(2), map[string]any{"NodeId": "109"})
	f.AppendRow(ts(3), map[string]any{"NodeId": "109", "ping_RTT": 30.0})

	out := Interpolate(f, InterpLinear)
	require.Equal(t, 4, out.NumRows())

	rtt, _ := out.Column("ping_RTT")
	node, _ := out.Column("NodeId")
	for i := 0; i < out.NumRows(); i++ {
		if node.Label(i) == "109" && out.Time(i).Equal(ts(2)) {
			// Interpolated within node 109 only: midway between 10 and 30,
			// unaffected by node 122's reading.
			assert.Equal(t, 20.0, rtt.Float(i))
		}
	}
}

func TestInterpolateDropsAllNullRows(t *testing.T) {
	f := New(
		ColumnSpec{Name: "NodeId", Field: "NodeId", Kind: Label, Key: true, Categorical: true, Agg: core.AggMode},
		ColumnSpec{Name: "ping_RTT", Field: "RTT", Kind: Float, Agg: core.AggMean},
	)
	f.AppendRow(ts(0), map[string]any{"NodeId": "109", "ping_RTT": 10.0})
	f.AppendRow(ts(1), map[string]any{"NodeId": "109"})

	out := Interpolate(f, InterpFFill)
	require.Equal(t, 2, out.NumRows(), "the fill rescues the second row")

	lone := New(
		ColumnSpec{Name: "NodeId", Field: "NodeId", Kind: Label, Key: true, Categorical: true, Agg: core.AggMode},
		ColumnSpec{Name: "ping_RTT", Field: "RTT", Kind: Float, Agg: core.AggMean},
	)
	lone.AppendRow(ts(1), map[string]any{"NodeId": "109"})
	out2 := Interpolate(lone, InterpLinear)
	assert.Equal(t, 0, out2.NumRows(), "a row with no values at all is dropped")
}

func TestInterpolateNeverAddsRows(t *testing.T) {
	for _, method := range []string{InterpLinear, InterpNearest, InterpFFill, InterpBFill} {
		out := Interpolate(gapFrame(), method)
		assert.LessOrEqual(t, out.NumRows(), 4, "method %s", method)
	}
}

func TestValidInterpolation(t *testing.T) {
	for _, m := range []string{InterpLinear, InterpNearest, InterpFFill, InterpBFill} {
		assert.True(t, ValidInterpolation(m))
	}
	assert.False(t, ValidInterpolation("cubic"))
	assert.False(t, ValidInterpolation(""))
}
