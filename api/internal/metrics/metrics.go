// Package metrics holds the prometheus instruments shared by the bot and the
// HTTP API. Labels: engine is the vendor name, status is "ok" or "error".
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Extractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitbot_extractions_total",
		Help: "Receipt extraction requests by engine and status.",
	}, []string{"engine", "status"})

	Interpretations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitbot_interpretations_total",
		Help: "Chat interpretation requests by engine and status.",
	}, []string{"engine", "status"})

	EngineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitbot_engine_duration_seconds",
		Help:    "Wall time of external engine calls.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"engine", "op"})
)

// ObserveEngine records one engine call; op is "extract" or "interpret".
func ObserveEngine(engine, op string, start time.Time, err error) {
	EngineDuration.WithLabelValues(engine, op).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	switch op {
	case "extract":
		Extractions.WithLabelValues(engine, status).Inc()
	case "interpret":
		Interpretations.WithLabelValues(engine, status).Inc()
	}
}
