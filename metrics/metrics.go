// Package metrics defines corelog's Prometheus metrics: a struct of
// already-registered collectors, a constructor taking a
// prometheus.Registerer, and nil-receiver methods so a nil *Metrics
// (metrics disabled) is always safe to call.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks corelog-wide counters and gauges across the arena,
// wire codec, fixup, and tail components.
type Metrics struct {
	NVTableGrowthsTotal   *prometheus.CounterVec
	NVTableEntriesLive    prometheus.Gauge
	NVTableBytesUsed      prometheus.Gauge

	WireDecodeErrorsTotal  *prometheus.CounterVec
	WireBytesEncodedTotal  prometheus.Counter
	WireBytesDecodedTotal  prometheus.Counter

	FixupRemapsTotal prometheus.Counter

	TailBytesReadTotal  prometheus.Counter
	TailEOFTotal        prometheus.Counter
	TailDecodeErrorsTotal *prometheus.CounterVec
}

// New creates corelog's metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NVTableGrowthsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corelog_nvtable_growths_total",
				Help: "Total number of NVTable arena grow operations, by outcome.",
			},
			[]string{"outcome"}, // "ok", "exhausted"
		),
		NVTableEntriesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corelog_nvtable_entries_live",
			Help: "Number of live (non-unset) entries across observed NVTables.",
		}),
		NVTableBytesUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corelog_nvtable_bytes_used",
			Help: "Bytes currently used across observed NVTable arenas.",
		}),
		WireDecodeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corelog_wire_decode_errors_total",
				Help: "Total wire.Decode/DecodeNVTable failures, by error kind.",
			},
			[]string{"kind"},
		),
		WireBytesEncodedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corelog_wire_bytes_encoded_total",
			Help: "Total bytes produced by wire.Encode.",
		}),
		WireBytesDecodedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corelog_wire_bytes_decoded_total",
			Help: "Total bytes consumed by wire.Decode.",
		}),
		FixupRemapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corelog_fixup_remaps_total",
			Help: "Total handles remapped by fixup.Run across all messages.",
		}),
		TailBytesReadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corelog_tail_bytes_read_total",
			Help: "Total raw bytes read by tail.Source.Fetch.",
		}),
		TailEOFTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corelog_tail_eof_total",
			Help: "Total clean-EOF Fetch outcomes.",
		}),
		TailDecodeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corelog_tail_decode_errors_total",
				Help: "Total transcoding errors during tail.Source.Fetch, by error kind.",
			},
			[]string{"kind"}, // "short_src", "short_dst", "invalid_sequence"
		),
	}

	reg.MustRegister(
		m.NVTableGrowthsTotal,
		m.NVTableEntriesLive,
		m.NVTableBytesUsed,
		m.WireDecodeErrorsTotal,
		m.WireBytesEncodedTotal,
		m.WireBytesDecodedTotal,
		m.FixupRemapsTotal,
		m.TailBytesReadTotal,
		m.TailEOFTotal,
		m.TailDecodeErrorsTotal,
	)

	return m
}

// Null returns nil, acting as a no-op metrics collector. Every method
// below handles a nil receiver.
func Null() *Metrics { return nil }

func (m *Metrics) RecordGrowth(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "exhausted"
	}
	m.NVTableGrowthsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetArenaStats(liveEntries int, bytesUsed int) {
	if m == nil {
		return
	}
	m.NVTableEntriesLive.Set(float64(liveEntries))
	m.NVTableBytesUsed.Set(float64(bytesUsed))
}

func (m *Metrics) RecordDecodeError(kind string) {
	if m == nil {
		return
	}
	m.WireDecodeErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordEncoded(n int) {
	if m == nil {
		return
	}
	m.WireBytesEncodedTotal.Add(float64(n))
}

func (m *Metrics) RecordDecoded(n int) {
	if m == nil {
		return
	}
	m.WireBytesDecodedTotal.Add(float64(n))
}

func (m *Metrics) RecordFixupRemaps(n int) {
	if m == nil {
		return
	}
	m.FixupRemapsTotal.Add(float64(n))
}

func (m *Metrics) RecordTailRead(n int) {
	if m == nil {
		return
	}
	m.TailBytesReadTotal.Add(float64(n))
}

func (m *Metrics) RecordTailEOF() {
	if m == nil {
		return
	}
	m.TailEOFTotal.Inc()
}

func (m *Metrics) RecordTailDecodeError(kind string) {
	if m == nil {
		return
	}
	m.TailDecodeErrorsTotal.WithLabelValues(kind).Inc()
}
