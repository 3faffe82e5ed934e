package collectors

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Self metrics, served on -listen in loop mode.
var (
	collectTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opsmetrics_collect_total",
		Help: "Collector runs by result: ok, error or skipped.",
	}, []string{"collector", "result"})
	collectPoints = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "opsmetrics_collect_points",
		Help: "Points returned by the last successful run of a collector.",
	}, []string{"collector"})
	collectDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opsmetrics_collect_duration_seconds",
		Help:    "Time spent in Collect.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"collector"})
)

func init() {
	prometheus.MustRegister(collectTotal, collectPoints, collectDuration)
}

func observe(name string, start time.Time, points int, err error) {
	collectDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		collectTotal.WithLabelValues(name, "error").Inc()
		return
	}
	collectTotal.WithLabelValues(name, "ok").Inc()
	collectPoints.WithLabelValues(name).Set(float64(points))
}

func skipped(name string) {
	collectTotal.WithLabelValues(name, "skipped").Inc()
}
