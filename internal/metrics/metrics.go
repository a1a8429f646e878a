// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BestEffortFailures counts side effects that failed without failing the request.
	// op is one of blob_upload, fleet_fetch, fleet_push, event_publish, realtime_notify.
	BestEffortFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Name:      "best_effort_failures_total",
		Help:      "Side effects that failed while the request still succeeded.",
	}, []string{"op"})

	DriversRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleet",
		Name:      "drivers_registered_total",
		Help:      "Drivers created through registration.",
	})

	LocationUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleet",
		Name:      "location_updates_total",
		Help:      "Stored driver location updates.",
	})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleet",
		Name:      "stream_clients",
		Help:      "Open driver-updates event streams.",
	})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleet",
		Name:      "realtime_clients",
		Help:      "Connected driver-change websocket subscribers.",
	})
)

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
