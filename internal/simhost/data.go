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

package simhost

import (
	"slices"

	"github.com/srediag/plugin-xplm/pkg/host"
)

// DataRefSpec describes a dataref owned by the simulated host.
type DataRefSpec struct {
	Name     string        `yaml:"name"`
	Types    host.DataType `yaml:"types"`
	Writable bool          `yaml:"writable"`
	Int      int32         `yaml:"int,omitempty"`
	Float    float32       `yaml:"float,omitempty"`
	Double   float64       `yaml:"double,omitempty"`
	Ints     []int32       `yaml:"ints,omitempty"`
	Floats   []float32     `yaml:"floats,omitempty"`
	Bytes    []byte        `yaml:"bytes,omitempty"`
}

type dataRef struct {
	ref      host.DataRef
	name     string
	types    host.DataType
	writable bool
	// acc is set for plugin-published datarefs; values below are unused then.
	acc *host.Accessor

	i  int32
	f  float32
	d  float64
	vi []int32
	vf []float32
	b  []byte
}

// Define publishes a host-owned dataref. Redefining a name replaces its values
// and keeps its ref.
func (h *Host) Define(spec DataRefSpec) host.DataRef {
	dr, ok := h.datarefs.Get(spec.Name)
	if !ok {
		dr = &dataRef{ref: host.DataRef(h.newRef()), name: spec.Name}
	}
	dr.types = spec.Types
	dr.writable = spec.Writable
	dr.acc = nil
	dr.i, dr.f, dr.d = spec.Int, spec.Float, spec.Double
	dr.vi = slices.Clone(spec.Ints)
	dr.vf = slices.Clone(spec.Floats)
	dr.b = slices.Clone(spec.Bytes)
	h.datarefs.Set(spec.Name, dr)
	h.refs.Set(dr.ref, dr)
	return dr.ref
}

// Undefine removes a dataref, as when the plugin owning it is unloaded.
func (h *Host) Undefine(name string) {
	if dr, ok := h.datarefs.Pop(name); ok {
		h.refs.Remove(dr.ref)
	}
}

// DataRefCount returns how many datarefs exist.
func (h *Host) DataRefCount() int {
	return h.datarefs.Count()
}

func (h *Host) FindDataRef(name string) host.DataRef {
	if dr, ok := h.datarefs.Get(name); ok {
		return dr.ref
	}
	return 0
}

func (h *Host) get(ref host.DataRef, want host.DataType) (*dataRef, bool) {
	dr, ok := h.refs.Get(ref)
	if !ok || dr.types&want == 0 {
		return nil, false
	}
	return dr, true
}

func (h *Host) set(ref host.DataRef, want host.DataType) (*dataRef, bool) {
	dr, ok := h.get(ref, want)
	if !ok || !dr.writable {
		return nil, false
	}
	return dr, true
}

func (h *Host) DataRefTypes(ref host.DataRef) host.DataType {
	if dr, ok := h.refs.Get(ref); ok {
		return dr.types
	}
	return host.TypeUnknown
}

func (h *Host) CanWriteDataRef(ref host.DataRef) bool {
	if dr, ok := h.refs.Get(ref); ok {
		return dr.writable
	}
	return false
}

func (h *Host) GetDatai(ref host.DataRef) int32 {
	dr, ok := h.get(ref, host.TypeInt)
	switch {
	case !ok:
		return 0
	case dr.acc != nil:
		if dr.acc.GetInt == nil {
			return 0
		}
		return dr.acc.GetInt()
	}
	return dr.i
}

func (h *Host) SetDatai(ref host.DataRef, v int32) {
	dr, ok := h.set(ref, host.TypeInt)
	defer h.notify(dr)
	switch {
	case !ok:
	case dr.acc != nil:
		if dr.acc.SetInt != nil {
			dr.acc.SetInt(v)
		}
	default:
		dr.i = v
	}
}

func (h *Host) GetDataf(ref host.DataRef) float32 {
	dr, ok := h.get(ref, host.TypeFloat)
	switch {
	case !ok:
		return 0
	case dr.acc != nil:
		if dr.acc.GetFloat == nil {
			return 0
		}
		return dr.acc.GetFloat()
	}
	return dr.f
}

func (h *Host) SetDataf(ref host.DataRef, v float32) {
	dr, ok := h.set(ref, host.TypeFloat)
	defer h.notify(dr)
	switch {
	case !ok:
	case dr.acc != nil:
		if dr.acc.SetFloat != nil {
			dr.acc.SetFloat(v)
		}
	default:
		dr.f = v
	}
}

func (h *Host) GetDatad(ref host.DataRef) float64 {
	dr, ok := h.get(ref, host.TypeDouble)
	switch {
	case !ok:
		return 0
	case dr.acc != nil:
		if dr.acc.GetDouble == nil {
			return 0
		}
		return dr.acc.GetDouble()
	}
	return dr.d
}

func (h *Host) SetDatad(ref host.DataRef, v float64) {
	dr, ok := h.set(ref, host.TypeDouble)
	defer h.notify(dr)
	switch {
	case !ok:
	case dr.acc != nil:
		if dr.acc.SetDouble != nil {
			dr.acc.SetDouble(v)
		}
	default:
		dr.d = v
	}
}

func (h *Host) GetDatavi(ref host.DataRef, out []int32, offset int) int {
	dr, ok := h.get(ref, host.TypeIntArray)
	switch {
	case !ok:
		return 0
	case dr.acc != nil:
		if dr.acc.GetIntArray == nil {
			return 0
		}
		return dr.acc.GetIntArray(out, offset)
	}
	return readAt(dr.vi, out, offset)
}

func (h *Host) SetDatavi(ref host.DataRef, in []int32, offset int) {
	dr, ok := h.set(ref, host.TypeIntArray)
	defer h.notify(dr)
	switch {
	case !ok:
	case dr.acc != nil:
		if dr.acc.SetIntArray != nil {
			dr.acc.SetIntArray(in, offset)
		}
	default:
		writeAt(dr.vi, in, offset)
	}
}

func (h *Host) GetDatavf(ref host.DataRef, out []float32, offset int) int {
	dr, ok := h.get(ref, host.TypeFloatArray)
	switch {
	case !ok:
		return 0
	case dr.acc != nil:
		if dr.acc.GetFloatArray == nil {
			return 0
		}
		return dr.acc.GetFloatArray(out, offset)
	}
	return readAt(dr.vf, out, offset)
}

func (h *Host) SetDatavf(ref host.DataRef, in []float32, offset int) {
	dr, ok := h.set(ref, host.TypeFloatArray)
	defer h.notify(dr)
	switch {
	case !ok:
	case dr.acc != nil:
		if dr.acc.SetFloatArray != nil {
			dr.acc.SetFloatArray(in, offset)
		}
	default:
		writeAt(dr.vf, in, offset)
	}
}

func (h *Host) GetDatab(ref host.DataRef, out []byte, offset int) int {
	dr, ok := h.get(ref, host.TypeData)
	switch {
	case !ok:
		return 0
	case dr.acc != nil:
		if dr.acc.GetBytes == nil {
			return 0
		}
		return dr.acc.GetBytes(out, offset)
	}
	return readAt(dr.b, out, offset)
}

func (h *Host) SetDatab(ref host.DataRef, in []byte, offset int) {
	dr, ok := h.set(ref, host.TypeData)
	defer h.notify(dr)
	switch {
	case !ok:
	case dr.acc != nil:
		if dr.acc.SetBytes != nil {
			dr.acc.SetBytes(in, offset)
		}
	default:
		writeAt(dr.b, in, offset)
	}
}

func readAt[E any](src, out []E, offset int) int {
	if out == nil {
		return len(src)
	}
	if offset < 0 || offset >= len(src) {
		return 0
	}
	return copy(out, src[offset:])
}

func writeAt[E any](dst, in []E, offset int) {
	if offset < 0 || offset >= len(dst) {
		return
	}
	copy(dst[offset:], in)
}

func (h *Host) RegisterDataAccessor(name string, typ host.DataType, writable bool, acc host.Accessor) host.DataRef {
	if h.datarefs.Has(name) {
		return 0
	}
	dr := &dataRef{
		ref:      host.DataRef(h.newRef()),
		name:     name,
		types:    typ,
		writable: writable,
		acc:      &acc,
	}
	h.datarefs.Set(name, dr)
	h.refs.Set(dr.ref, dr)
	return dr.ref
}

func (h *Host) UnregisterDataAccessor(ref host.DataRef) {
	dr, ok := h.refs.Pop(ref)
	if !ok {
		return
	}
	h.datarefs.Remove(dr.name)
}
