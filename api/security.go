// Package api defines the contracts between plugin code, the lifecycle shim
// and the integrations around it.
package api

// SignatureValidator checks a plugin signature before it is handed to the host.
type SignatureValidator interface {
	ValidateSignature(signature string) error
}
