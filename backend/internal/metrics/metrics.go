package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphpad_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)

	GraphWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphpad_graph_writes_total",
			Help: "Total number of graph writes accepted",
		},
		[]string{"backend"},
	)

	GraphDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphpad_graph_deletes_total",
			Help: "Total number of graph deletions",
		},
		[]string{"backend"},
	)

	WatchersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphpad_watchers_connected",
			Help: "Number of websocket clients currently watching graphs",
		},
	)
)
