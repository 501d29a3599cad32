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
	"slices"

	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

// Value lists the Go types a plugin-owned dataref can hold.
type Value interface {
	int32 | float32 | float64 | []int32 | []float32 | []byte
}

// Owned is a dataref published by this plugin. The value lives in Go memory and
// is served to the host through accessors.
type Owned[T Value] struct {
	handle
	ref      host.DataRef
	typ      host.DataType
	writable bool
	value    T
}

// Publish registers name as a dataref backed by initial. When writable is set,
// other plugins may change the value through the host. An existing dataref with
// the same name yields ErrExists.
func Publish[T Value](r *Registry, s gate.Scope, name string, writable bool, initial T) (*Owned[T], error) {
	const op = "publish dataref"
	r.require(s, op)
	if err := ValidateName(name); err != nil {
		return nil, opError(op, name, ErrInvalidName)
	}
	if r.host.FindDataRef(name) != 0 {
		return nil, opError(op, name, ErrExists)
	}
	o := &Owned[T]{writable: writable, value: clone(initial)}
	o.typ = typeOf[T]()
	o.ref = r.host.RegisterDataAccessor(name, o.typ, writable, o.accessor())
	if o.ref == 0 {
		return nil, opError(op, name, ErrExists)
	}
	h := r.host
	o.handle = r.add(KindOwnedDataRef, name, o, func() { h.UnregisterDataAccessor(o.ref) })
	return o, nil
}

func typeOf[T Value]() host.DataType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return host.TypeInt
	case float32:
		return host.TypeFloat
	case float64:
		return host.TypeDouble
	case []int32:
		return host.TypeIntArray
	case []float32:
		return host.TypeFloatArray
	default:
		return host.TypeData
	}
}

func clone[T Value](v T) T {
	switch x := any(v).(type) {
	case []int32:
		return any(slices.Clone(x)).(T)
	case []float32:
		return any(slices.Clone(x)).(T)
	case []byte:
		return any(slices.Clone(x)).(T)
	}
	return v
}

// Get returns the current value. Slices are copies.
func (o *Owned[T]) Get(s gate.Scope) T {
	o.check(s, "owned get")
	return clone(o.value)
}

// Set replaces the value. Array lengths may change.
func (o *Owned[T]) Set(s gate.Scope, v T) {
	o.check(s, "owned set")
	o.value = clone(v)
}

// Type returns the single type bit the dataref is published as.
func (o *Owned[T]) Type() host.DataType {
	return o.typ
}

// accessor builds the host callbacks. The host calls them on its own thread
// while reading or writing the dataref, possibly from another plugin's callback.
func (o *Owned[T]) accessor() host.Accessor {
	var acc host.Accessor
	switch p := any(&o.value).(type) {
	case *int32:
		acc.GetInt = func() int32 { return *p }
		if o.writable {
			acc.SetInt = func(v int32) { *p = v }
		}
	case *float32:
		acc.GetFloat = func() float32 { return *p }
		if o.writable {
			acc.SetFloat = func(v float32) { *p = v }
		}
	case *float64:
		acc.GetDouble = func() float64 { return *p }
		if o.writable {
			acc.SetDouble = func(v float64) { *p = v }
		}
	case *[]int32:
		acc.GetIntArray = func(out []int32, offset int) int { return readSlice(*p, out, offset) }
		if o.writable {
			acc.SetIntArray = func(in []int32, offset int) { writeSlice(*p, in, offset) }
		}
	case *[]float32:
		acc.GetFloatArray = func(out []float32, offset int) int { return readSlice(*p, out, offset) }
		if o.writable {
			acc.SetFloatArray = func(in []float32, offset int) { writeSlice(*p, in, offset) }
		}
	case *[]byte:
		acc.GetBytes = func(out []byte, offset int) int { return readSlice(*p, out, offset) }
		if o.writable {
			acc.SetBytes = func(in []byte, offset int) { writeSlice(*p, in, offset) }
		}
	}
	return acc
}

// readSlice follows the host convention: a nil out asks for the length.
func readSlice[E any](src, out []E, offset int) int {
	if out == nil {
		return len(src)
	}
	if offset < 0 || offset >= len(src) {
		return 0
	}
	return copy(out, src[offset:])
}

// writeSlice never grows the backing array; writes past the end are dropped.
func writeSlice[E any](dst, in []E, offset int) {
	if offset < 0 || offset >= len(dst) {
		return
	}
	copy(dst[offset:], in)
}
