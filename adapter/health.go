// Package adapter connects a plugin's lifecycle shim to systems outside the
// simulator: health checkers, metrics scrapers, tracing backends and reload tooling.
package adapter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/plugin-xplm/api"
	"github.com/srediag/plugin-xplm/pkg/health"
)

// Observable is what the HTTP surface needs from a shim.
type Observable interface {
	api.Health
	Gatherer() prometheus.Gatherer
}

// NewMux serves /live and /ready from the plugin's health checks and
// /metrics from its prometheus registry. Health check gauges are added to
// reg when it is not nil.
func NewMux(o Observable, reg prometheus.Registerer, opts health.Options) *http.ServeMux {
	h := health.NewHandler(o, reg, opts)
	mux := http.NewServeMux()
	mux.HandleFunc("/live", h.LiveEndpoint)
	mux.HandleFunc("/ready", h.ReadyEndpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(o.Gatherer(), promhttp.HandlerOpts{}))
	return mux
}
