/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the host calls an entry point the
	// current state does not allow.
	ErrInvalidTransition = errors.New("lifecycle: invalid transition")

	// ErrUnsupportedRevision is returned when the host's SDK is older than the
	// revision the plugin was built for.
	ErrUnsupportedRevision = errors.New("lifecycle: unsupported SDK revision")

	// ErrInvalidInfo is returned when the plugin describes itself with an empty
	// name or a rejected signature.
	ErrInvalidInfo = errors.New("lifecycle: invalid plugin info")

	// ErrPanicked is reported by health checks once a hook or callback panicked.
	ErrPanicked = errors.New("lifecycle: plugin panicked")

	// ErrNotEnabled is reported by readiness checks while the plugin is not enabled.
	ErrNotEnabled = errors.New("lifecycle: plugin not enabled")
)

// LifecycleError wraps a failed plugin hook.
type LifecycleError struct {
	Hook string
	Err  error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("lifecycle: %s hook failed: %v", e.Hook, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a hook.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes panics raised with an error value, contract violations
// included.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
