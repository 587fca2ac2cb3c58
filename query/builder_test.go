package query

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INLOpen/nexusfetch/core"
	"github.com/INLOpen/nexusfetch/schema"
)

var (
	specStart = time.Date(2018, 5, 2, 0, 0, 0, 0, time.UTC)
	specEnd   = time.Date(2018, 5, 3, 0, 0, 0, 0, time.UTC)
)

func testSpec(tables, columns []string) *Spec {
	return &Spec{
		Tables:      tables,
		Columns:     columns,
		StartTime:   specStart,
		EndTime:     specEnd,
		Granularity: core.Gran1s,
		Limit:       1000,
	}
}

func TestFieldName(t *testing.T) {
	testCases := []struct {
		clause   string
		expected string
	}{
		{"RTT > 100", "RTT"},
		{"Operator = 'Telenor'", "Operator"},
		{"(RTT > 100 OR Error = 1)", "RTT"},
		{"  NodeId = '109'", "NodeId"},
		{"42 > RTT", "RTT"},
		{"", ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, FieldName(tc.clause), "clause %q", tc.clause)
	}
}

func TestNodeClause(t *testing.T) {
	assert.Equal(t, "", NodeClause(nil))
	assert.Equal(t, "NodeId = '109'", NodeClause([]string{"109"}))
	assert.Equal(t, "(NodeId = '109' OR NodeId = '122')", NodeClause([]string{"109", "122"}))
}

func TestBuildSingleTable(t *testing.T) {
	b := NewBuilder(schema.DefaultRegistry())

	spec := testSpec([]string{"ping"}, []string{"RTT", "Operator"})
	spec.NodeIDs = []string{"109"}

	built, err := b.Build(spec)
	require.NoError(t, err)
	require.Len(t, built, 1)

	expected := "SELECT RTT, Operator FROM ping_1s" +
		" WHERE NodeId = '109'" +
		" AND time >= '2018-05-02T00:00:00Z' AND time <= '2018-05-03T00:00:00Z'" +
		" GROUP BY NodeId, Iccid LIMIT 1000"
	assert.Equal(t, expected, built[0].Text)
	assert.Equal(t, "ping", built[0].Table.Name)
	assert.False(t, built[0].Auxiliary)
}

func TestBuildPushdown(t *testing.T) {
	b := NewBuilder(schema.DefaultRegistry())

	spec := testSpec([]string{"ping", "modem"}, []string{"RTT", "Interface"})
	spec.Where = []string{"RTT > 100", "Interface = 'op0'"}

	built, err := b.Build(spec)
	require.NoError(t, err)
	require.Len(t, built, 2)

	byTable := map[string]string{}
	for _, q := range built {
		byTable[q.Table.Name] = q.Text
	}

	// Each clause lands only on the table that owns its leading identifier.
	assert.Contains(t, byTable["ping"], "RTT > 100")
	assert.NotContains(t, byTable["ping"], "Interface = 'op0'")
	assert.Contains(t, byTable["modem"], "Interface = 'op0'")
	assert.NotContains(t, byTable["modem"], "RTT > 100")

	// The time bounds reach every query.
	for name, text := range byTable {
		assert.Contains(t, text, "time >= '2018-05-02T00:00:00Z'", "table %s", name)
		assert.Contains(t, text, "time <= '2018-05-03T00:00:00Z'", "table %s", name)
	}
}

// A clause no requested table can evaluate is silently dropped from all of
// them rather than breaking the batch.
func TestBuildPushdownUnmatchedClause(t *testing.T) {
	b := NewBuilder(schema.DefaultRegistry())

	spec := testSpec([]string{"gps"}, []string{"Latitude"})
	spec.Where = []string{"Interface = 'op0'"}

	built, err := b.Build(spec)
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.NotContains(t, built[0].Text, "Interface")
}

func TestBuildColumnDistribution(t *testing.T) {
	b := NewBuilder(schema.DefaultRegistry())

	t.Run("bare column reaches every owning table", func(t *testing.T) {
		// Operator exists in both ping and modem.
		spec := testSpec([]string{"ping", "modem"}, []string{"Operator"})
		built, err := b.Build(spec)
		require.NoError(t, err)
		require.Len(t, built, 2)
		for _, q := range built {
			assert.True(t, strings.HasPrefix(q.Text, "SELECT Operator FROM "), q.Text)
		}
	})

	t.Run("dotted column pins its table", func(t *testing.T) {
		spec := testSpec([]string{"ping", "modem"}, []string{"ping.RTT", "modem.RSSI"})
		built, err := b.Build(spec)
		require.NoError(t, err)
		byTable := map[string]string{}
		for _, q := range built {
			byTable[q.Table.Name] = q.Text
		}
		assert.True(t, strings.HasPrefix(byTable["ping"], "SELECT RTT FROM "), byTable["ping"])
		assert.True(t, strings.HasPrefix(byTable["modem"], "SELECT RSSI FROM "), byTable["modem"])
	})

	t.Run("no columns selects everything", func(t *testing.T) {
		spec := testSpec([]string{"gps"}, nil)
		built, err := b.Build(spec)
		require.NoError(t, err)
		require.Len(t, built, 1)
		assert.True(t, strings.HasPrefix(built[0].Text,
			"SELECT NodeId, Latitude, Longitude, Altitude, Speed, SatelliteCount FROM gps_1s"), built[0].Text)
	})

	t.Run("unknown column rejected", func(t *testing.T) {
		spec := testSpec([]string{"ping"}, []string{"Bogus"})
		_, err := b.Build(spec)
		require.Error(t, err)
		assert.True(t, core.IsUnknownColumn(err))
	})

	t.Run("duplicate tables collapse", func(t *testing.T) {
		spec := testSpec([]string{"ping", "PING"}, []string{"RTT"})
		built, err := b.Build(spec)
		require.NoError(t, err)
		assert.Len(t, built, 1)
	})
}

// A key column owned by an unrequested table triggers an auxiliary key query
// so the merge has a join target.
func TestBuildAuxiliaryKeyQuery(t *testing.T) {
	b := NewBuilder(schema.DefaultRegistry())

	spec := testSpec([]string{"gps"}, []string{"Latitude", "Iccid"})
	built, err := b.Build(spec)
	require.NoError(t, err)
	require.Len(t, built, 2)

	assert.Equal(t, "gps", built[0].Table.Name)
	assert.False(t, built[0].Auxiliary)

	aux := built[1]
	assert.True(t, aux.Auxiliary)
	assert.Equal(t, "ping", aux.Table.Name, "ping owns the Iccid key")
	assert.True(t, strings.HasPrefix(aux.Text, "SELECT NodeId, Iccid FROM ping_1s"), aux.Text)
}

func TestBuildResampleAggregates(t *testing.T) {
	b := NewBuilder(schema.DefaultRegistry())

	spec := testSpec([]string{"ping"}, []string{"RTT", "Error", "Operator"})
	spec.Resample = "1h"

	built, err := b.Build(spec)
	require.NoError(t, err)
	require.Len(t, built, 1)

	expected := "SELECT mean(RTT) AS RTT, sum(Error) AS Error, mode(Operator) AS Operator FROM ping_1s" +
		" WHERE time >= '2018-05-02T00:00:00Z' AND time <= '2018-05-03T00:00:00Z'" +
		" GROUP BY time(1h), NodeId, Iccid LIMIT 1000"
	assert.Equal(t, expected, built[0].Text)
}

func TestBuildResampleAuxiliaryStaysRaw(t *testing.T) {
	b := NewBuilder(schema.DefaultRegistry())

	spec := testSpec([]string{"gps"}, []string{"Latitude", "Iccid"})
	spec.Resample = "1h"

	built, err := b.Build(spec)
	require.NoError(t, err)
	require.Len(t, built, 2)

	aux := built[1]
	require.True(t, aux.Auxiliary)
	// Key lookups never aggregate and never bucket by time.
	assert.True(t, strings.HasPrefix(aux.Text, "SELECT NodeId, Iccid FROM "), aux.Text)
	assert.NotContains(t, aux.Text, "time(1h)")
}

func TestBuildUnknownTable(t *testing.T) {
	b := NewBuilder(schema.DefaultRegistry())
	_, err := b.Build(testSpec([]string{"bogus"}, nil))
	require.Error(t, err)
	assert.True(t, core.IsUnknownTable(err))
}
