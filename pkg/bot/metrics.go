package bot

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle outcomes recorded by CyclesTotal.
const (
	OutcomeOK              = "ok"
	OutcomeAggregateFailed = "aggregate_failed"
	OutcomeFormatFailed    = "format_failed"
	OutcomeDispatchFailed  = "dispatch_failed"
	OutcomeSkipped         = "skipped"
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	CyclesTotal       *prometheus.CounterVec
	CycleDuration     prometheus.Histogram
	CoalescedTicks    prometheus.Counter
	FetchFailures     *prometheus.CounterVec
	DispatchFailures  *prometheus.CounterVec
	PriceCommands     *prometheus.CounterVec
	LastSummaryUnix   prometheus.Gauge
	LastPriceObserved prometheus.Gauge
}

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pricebot"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Scheduled cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one scheduled cycle",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CoalescedTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "coalesced_ticks_total",
			Help:      "Ticks that fired while a cycle was already running",
		}),
		FetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_failures_total",
			Help:      "Upstream fetch failures by source and kind",
		}, []string{"source", "kind"}),
		DispatchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "dispatch_failures_total",
			Help:      "Chat sends that failed, by operation",
		}, []string{"op"}),
		PriceCommands: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "price_commands_total",
			Help:      "Price commands handled, by trend",
		}, []string{"trend"}),
		LastSummaryUnix: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "last_summary_timestamp",
			Help:      "Unix time of the last summary delivered",
		}),
		LastPriceObserved: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "last_price_usd",
			Help:      "Most recent spot price observed",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")
