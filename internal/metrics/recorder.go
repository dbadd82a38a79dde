package metrics

import (
	"jsonweblog/internal/model"
	"net/http"
	"regexp"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jsonweblog"

// Totals are process-lifetime counters reported by the stats endpoint.
type Totals struct {
	Ingested uint64
	Rejected uint64
	Dropped  uint64
}

type Recorder interface {
	RecordIngested(record *model.LogRecord)
	RecordRejected(reason string)
	RecordDropped(n uint64)
	SetStoreSize(n int)
	SetSubscribers(n int)
	Totals() Totals
	Handler() http.Handler
}

type prometheusRecorder struct {
	registry       *prometheus.Registry
	exceptionRegex *regexp.Regexp

	ingested    *prometheus.CounterVec
	errorLike   prometheus.Counter
	rejected    *prometheus.CounterVec
	dropped     prometheus.Counter
	storeSize   prometheus.Gauge
	subscribers prometheus.Gauge

	ingestedTotal atomic.Uint64
	rejectedTotal atomic.Uint64
	droppedTotal  atomic.Uint64
}

// NewRecorder builds a recorder on its own registry, so several instances can
// coexist in tests.
func NewRecorder() Recorder {
	r := &prometheusRecorder{
		registry:       prometheus.NewRegistry(),
		exceptionRegex: regexp.MustCompile(`(?i)(exception|error|fail|caused by)`),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Records normalized and stored, by level",
		}, []string{"level"}),
		errorLike: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "error_records_total",
			Help:      "Records at ERROR or FATAL level or whose message looks like a failure",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_rejected_total",
			Help:      "Input lines that did not produce a record, by reason",
		}, []string{"reason"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "dropped_total",
			Help:      "Records dropped from full subscriber queues",
		}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records",
			Help:      "Records currently retained",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "subscribers",
			Help:      "Active live-feed subscribers",
		}),
	}

	// Every level is exported from the start, zero until seen.
	for _, level := range model.Levels {
		r.ingested.WithLabelValues(level.String())
	}

	r.registry.MustRegister(
		r.ingested,
		r.errorLike,
		r.rejected,
		r.dropped,
		r.storeSize,
		r.subscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *prometheusRecorder) RecordIngested(record *model.LogRecord) {
	if record == nil {
		return
	}
	r.ingestedTotal.Add(1)
	r.ingested.WithLabelValues(record.Level.String()).Inc()

	if record.Level >= model.LevelError || r.exceptionRegex.MatchString(record.Message) {
		r.errorLike.Inc()
	}
}

func (r *prometheusRecorder) RecordRejected(reason string) {
	r.rejectedTotal.Add(1)
	r.rejected.WithLabelValues(reason).Inc()
}

func (r *prometheusRecorder) RecordDropped(n uint64) {
	if n == 0 {
		return
	}
	r.droppedTotal.Add(n)
	r.dropped.Add(float64(n))
}

func (r *prometheusRecorder) SetStoreSize(n int) {
	r.storeSize.Set(float64(n))
}

func (r *prometheusRecorder) SetSubscribers(n int) {
	r.subscribers.Set(float64(n))
}

func (r *prometheusRecorder) Totals() Totals {
	return Totals{
		Ingested: r.ingestedTotal.Load(),
		Rejected: r.rejectedTotal.Load(),
		Dropped:  r.droppedTotal.Load(),
	}
}

func (r *prometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
