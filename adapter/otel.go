// Package adapter connects a plugin's lifecycle shim to systems outside the
// simulator: health checkers, metrics scrapers, tracing backends and reload tooling.
package adapter

import (
	"go.opentelemetry.io/otel"

	"github.com/srediag/plugin-xplm/pkg/lifecycle"
)

const instrumentationName = "github.com/srediag/plugin-xplm"

// WithOTel fills the tracer and meter of opts from the global OpenTelemetry
// providers. Install providers before the shim is created; the noop defaults
// are used otherwise.
func WithOTel(opts lifecycle.Options) lifecycle.Options {
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(instrumentationName)
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter(instrumentationName)
	}
	return opts
}
