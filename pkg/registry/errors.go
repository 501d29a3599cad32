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
package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the host has no resource with the requested name.
	ErrNotFound = errors.New("registry: not found")

	// ErrTypeMismatch indicates a dataref was accessed as a type it does not expose.
	ErrTypeMismatch = errors.New("registry: type mismatch")

	// ErrReadOnly indicates a write to a dataref the host marks read-only.
	ErrReadOnly = errors.New("registry: read only")

	// ErrExists indicates a resource with the same name is already published.
	ErrExists = errors.New("registry: already exists")

	// ErrInvalidName indicates a name that cannot be a host resource name.
	ErrInvalidName = errors.New("registry: invalid name")

	// ErrInvalidValue indicates a value the host cannot store, such as a string with NUL.
	ErrInvalidValue = errors.New("registry: invalid value")

	// ErrOutOfRange indicates a negative or past-the-end array offset.
	ErrOutOfRange = errors.New("registry: offset out of range")

	// ErrUnsupported indicates a call or type not available in the targeted SDK revision.
	ErrUnsupported = errors.New("registry: unsupported")
)

// Error carries the operation and resource name for a failed registry call.
type Error struct {
	Op   string // operation that failed
	Name string // resource name
	Err  error  // one of the sentinel errors above
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("registry.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("registry.%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op, name string, err error) error {
	return &Error{Op: op, Name: name, Err: err}
}
