package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordGrowth(true)
	m.RecordGrowth(false)
	m.RecordTailEOF()

	families, err := reg.Gather()
	require.NoError(t, err)

	var eofFound bool
	for _, f := range families {
		if f.GetName() == "corelog_tail_eof_total" {
			eofFound = true
			assert.Equal(t, float64(1), f.Metric[0].GetCounter().GetValue())
		}
	}
	assert.True(t, eofFound)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordGrowth(true)
	m.SetArenaStats(1, 2)
	m.RecordDecodeError("bad_magic")
	m.RecordTailEOF()
}
