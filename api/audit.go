// Package api defines the contracts between plugin code, the lifecycle shim
// and the integrations around it.
package api

// Audit records lifecycle events.
type Audit interface {
	LogEvent(event string, details map[string]interface{}) error
}

// NopAudit drops every event.
type NopAudit struct{}

func (NopAudit) LogEvent(string, map[string]interface{}) error {
	return nil
}
