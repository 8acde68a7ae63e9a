package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    StreamEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "marketcal",
            Subsystem: "stream",
            Name:      "events_total",
            Help:      "WebSocket stream events by type",
        },
        []string{"event"},
    )

    StreamDropped = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "marketcal",
            Subsystem: "stream",
            Name:      "dropped_total",
            Help:      "Stream frames dropped before reaching a session",
        },
        []string{"reason"},
    )

    StreamReconnects = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "marketcal",
            Subsystem: "stream",
            Name:      "reconnects_total",
            Help:      "WebSocket reconnect attempts",
        },
    )

    RestRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "marketcal",
            Subsystem: "rest",
            Name:      "requests_total",
            Help:      "Upstream REST requests by endpoint and outcome",
        },
        []string{"endpoint", "outcome"},
    )

    RestLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "marketcal",
            Subsystem: "rest",
            Name:      "latency_seconds",
            Help:      "Latency of upstream REST requests",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    PatternRuns = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "marketcal",
            Subsystem: "patterns",
            Name:      "runs_total",
            Help:      "Pattern detection runs by mode and outcome",
        },
        []string{"mode", "outcome"},
    )

    LastPrice = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{
            Namespace: "marketcal",
            Subsystem: "ticker",
            Name:      "last_price",
            Help:      "Last observed trade price per symbol",
        },
        []string{"symbol"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(
            StreamEvents,
            StreamDropped,
            StreamReconnects,
            RestRequests,
            RestLatency,
            PatternRuns,
            LastPrice,
        )
    })
}
