package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alphasis", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"route", "code"})
	AttendanceWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alphasis", Name: "attendance_writes_total", Help: "Attendance upserts by result",
	}, []string{"result"})
	FinalizeBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "alphasis", Name: "finalize_batches_total", Help: "Marking sessions finalized",
	})
	FinalizeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "alphasis", Name: "finalize_failures_total", Help: "Per-student finalize write failures",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "alphasis", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, AttendanceWrites, FinalizeBatches, FinalizeFailures, DBPing)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveDBPing records one DB health-check round trip.
func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
