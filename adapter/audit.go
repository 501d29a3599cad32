// Package adapter connects a plugin's lifecycle shim to systems outside the
// simulator: health checkers, metrics scrapers, tracing backends and reload tooling.
package adapter

import (
	"errors"

	"github.com/srediag/plugin-xplm/api"
)

type tee []api.Audit

// Tee sends every event to all of audits. Failures are joined; one failing
// sink does not stop the others.
func Tee(audits ...api.Audit) api.Audit {
	return tee(audits)
}

func (t tee) LogEvent(event string, details map[string]interface{}) error {
	var errs []error
	for _, a := range t {
		if err := a.LogEvent(event, details); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
