package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	poolAcquires = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omm",
			Subsystem: "pool",
			Name:      "acquires_total",
			Help:      "Pooled instance acquisitions by pool and hit/miss.",
		},
		[]string{"pool", "result"},
	)
	poolFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omm",
			Subsystem: "pool",
			Name:      "faults_total",
			Help:      "Stale-handle and double-release faults detected by pools.",
		},
		[]string{"pool", "fault"},
	)
	bufferGets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omm",
			Subsystem: "buffer",
			Name:      "gets_total",
			Help:      "Scratch buffer requests by bucket class and hit/miss.",
		},
		[]string{"class", "result"},
	)
	bufferGrows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "omm",
			Subsystem: "encode",
			Name:      "buffer_grows_total",
			Help:      "Encode buffer doublings after BUFFER_TOO_SMALL.",
		},
	)
	encodeCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omm",
			Subsystem: "encode",
			Name:      "completions_total",
			Help:      "Completed encodes by data type.",
		},
		[]string{"type"},
	)
	encodeSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "omm",
			Subsystem: "encode",
			Name:      "size_bytes",
			Help:      "Size of completed encodes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"type"},
	)
	containerFills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omm",
			Subsystem: "decode",
			Name:      "fills_total",
			Help:      "Lazy container fills by data type.",
		},
		[]string{"type"},
	)
	decodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omm",
			Subsystem: "decode",
			Name:      "failures_total",
			Help:      "Decode failures downgraded to error values, by scope and error code.",
		},
		[]string{"scope", "code"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			poolAcquires,
			poolFaults,
			bufferGets,
			bufferGrows,
			encodeCompletions,
			encodeSize,
			containerFills,
			decodeFailures,
		)
	})
}

// PoolCounters returns the hit and miss counters for one pool so hot paths skip
// the label lookup.
func PoolCounters(pool string) (hit, miss prometheus.Counter) {
	RegisterMetrics()
	return poolAcquires.WithLabelValues(pool, "hit"), poolAcquires.WithLabelValues(pool, "miss")
}

func RecordPoolFault(pool, fault string) {
	RegisterMetrics()
	poolFaults.WithLabelValues(pool, fault).Inc()
}

func RecordBufferGet(class string, hit bool) {
	RegisterMetrics()
	result := "miss"
	if hit {
		result = "hit"
	}
	bufferGets.WithLabelValues(class, result).Inc()
}

func RecordBufferGrow() {
	RegisterMetrics()
	bufferGrows.Inc()
}

func RecordEncode(dataType string, size int) {
	RegisterMetrics()
	encodeCompletions.WithLabelValues(dataType).Inc()
	encodeSize.WithLabelValues(dataType).Observe(float64(size))
}

func RecordFill(dataType string) {
	RegisterMetrics()
	containerFills.WithLabelValues(dataType).Inc()
}

func RecordDecodeFailure(scope, code string) {
	RegisterMetrics()
	decodeFailures.WithLabelValues(scope, code).Inc()
}
