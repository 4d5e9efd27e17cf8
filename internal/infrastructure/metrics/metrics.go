package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tickerlogger"

// Metrics carries the ingestion pipeline's Prometheus instruments.
// Per-connection series are labelled by the handler's connection id.
type Metrics struct {
	MessagesTotal       *prometheus.CounterVec
	ParseErrorsTotal    *prometheus.CounterVec
	RecordsWrittenTotal *prometheus.CounterVec
	FlushesTotal        *prometheus.CounterVec
	ReconnectsTotal     *prometheus.CounterVec
	BufferSize          *prometheus.GaugeVec
	LastFlushUnix       *prometheus.GaugeVec
}

// New registers the instrument set against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	connection := []string{"connection"}

	return &Metrics{
		MessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_messages_total",
			Help:      "Inbound feed messages, including control traffic.",
		}, connection),
		ParseErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Feed messages dropped because they could not be parsed.",
		}, connection),
		RecordsWrittenTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Tick records appended to column files.",
		}, connection),
		FlushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_flushes_total",
			Help:      "Ordering buffer drains committed to disk.",
		}, connection),
		ReconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Feed sessions that ended and entered backoff.",
		}, connection),
		BufferSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_size",
			Help:      "Ticks currently held in the ordering buffer.",
		}, connection),
		LastFlushUnix: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_flush_unix_seconds",
			Help:      "Unix time of the connection's last successful flush.",
		}, connection),
	}
}
