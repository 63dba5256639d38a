// Package metrics holds the Prometheus collectors exported by the ckpool-stats daemon.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Fetch volume by outcome ("ok" or an error kind)
	FetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ckpool_fetches_total",
		Help: "Total number of user stats fetches, by outcome.",
	}, []string{"outcome"})

	// Fetch latency including body read and decode
	FetchDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ckpool_fetch_duration_seconds",
		Help:    "Duration of a user stats fetch against the pool API.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	UserHashrate5m = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ckpool_user_hashrate_5m",
		Help: "Last observed 5 minute hashrate of a user in hashes per second.",
	}, []string{"user"})

	UserWorkers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ckpool_user_workers",
		Help: "Last observed worker count of a user.",
	}, []string{"user"})
)

func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		FetchesTotal,
		FetchDurationSeconds,
		UserHashrate5m,
		UserWorkers,
	)
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(outcome string, elapsed time.Duration) {
	FetchesTotal.WithLabelValues(outcome).Inc()
	FetchDurationSeconds.Observe(elapsed.Seconds())
}

// SetUser publishes the latest figures for a user.
func SetUser(user string, hashrate5m float64, workers uint64) {
	UserHashrate5m.WithLabelValues(user).Set(hashrate5m)
	UserWorkers.WithLabelValues(user).Set(float64(workers))
}

// ForgetUser drops the gauges of a user the pool no longer knows.
func ForgetUser(user string) {
	UserHashrate5m.DeleteLabelValues(user)
	UserWorkers.DeleteLabelValues(user)
}
