// Package api defines the contracts between plugin code, the lifecycle shim
// and the integrations around it.
package api

// Health reports plugin liveness and readiness for external health checks.
type Health interface {
	// LivenessCheck fails once the plugin has panicked.
	LivenessCheck() error
	// ReadinessCheck fails unless the plugin is enabled.
	ReadinessCheck() error
}
