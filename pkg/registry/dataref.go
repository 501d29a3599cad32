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
	"bytes"
	"strings"

	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

// DataRef is a borrowed handle to a dataref published by the host or another
// plugin.
type DataRef struct {
	handle
	ref      host.DataRef
	types    host.DataType
	writable bool
}

// FindDataRef looks up a dataref by its exact name. An unknown name returns
// ErrNotFound and registers nothing.
func (r *Registry) FindDataRef(s gate.Scope, name string) (*DataRef, error) {
	const op = "find dataref"
	r.require(s, op)
	if err := ValidateName(name); err != nil {
		return nil, opError(op, name, ErrInvalidName)
	}
	ref := r.host.FindDataRef(name)
	if ref == 0 {
		return nil, opError(op, name, ErrNotFound)
	}
	d := &DataRef{
		ref:      ref,
		types:    r.host.DataRefTypes(ref),
		writable: r.host.CanWriteDataRef(ref),
	}
	d.handle = r.add(KindDataRef, name, d, nil)
	return d, nil
}

// Types returns the type bits the dataref exposes.
func (d *DataRef) Types(s gate.Scope) host.DataType {
	d.check(s, "dataref types")
	return d.types
}

// Writable reports whether the host accepts writes.
func (d *DataRef) Writable(s gate.Scope) bool {
	d.check(s, "dataref writable")
	return d.writable
}

// access validates the handle and that the dataref exposes want, and is
// writable when write is set. Nothing reaches the host on failure.
func (d *DataRef) access(s gate.Scope, op string, want host.DataType, write bool) error {
	d.check(s, op)
	if !d.types.Has(want) {
		return opError(op, d.name, ErrTypeMismatch)
	}
	if write && !d.writable {
		return opError(op, d.name, ErrReadOnly)
	}
	return nil
}

func (d *DataRef) GetInt(s gate.Scope) (int32, error) {
	if err := d.access(s, "get int", host.TypeInt, false); err != nil {
		return 0, err
	}
	return d.reg.host.GetDatai(d.ref), nil
}

func (d *DataRef) SetInt(s gate.Scope, v int32) error {
	if err := d.access(s, "set int", host.TypeInt, true); err != nil {
		return err
	}
	d.reg.host.SetDatai(d.ref, v)
	return nil
}

func (d *DataRef) GetFloat(s gate.Scope) (float32, error) {
	if err := d.access(s, "get float", host.TypeFloat, false); err != nil {
		return 0, err
	}
	return d.reg.host.GetDataf(d.ref), nil
}

func (d *DataRef) SetFloat(s gate.Scope, v float32) error {
	if err := d.access(s, "set float", host.TypeFloat, true); err != nil {
		return err
	}
	d.reg.host.SetDataf(d.ref, v)
	return nil
}

func (d *DataRef) GetDouble(s gate.Scope) (float64, error) {
	if err := d.access(s, "get double", host.TypeDouble, false); err != nil {
		return 0, err
	}
	return d.reg.host.GetDatad(d.ref), nil
}

func (d *DataRef) SetDouble(s gate.Scope, v float64) error {
	if err := d.access(s, "set double", host.TypeDouble, true); err != nil {
		return err
	}
	d.reg.host.SetDatad(d.ref, v)
	return nil
}

// GetIntArray copies elements starting at offset into out and returns how many
// were copied.
func (d *DataRef) GetIntArray(s gate.Scope, out []int32, offset int) (int, error) {
	const op = "get int array"
	if err := d.access(s, op, host.TypeIntArray, false); err != nil {
		return 0, err
	}
	if err := d.bounds(op, offset, 0, d.reg.host.GetDatavi(d.ref, nil, 0)); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return d.reg.host.GetDatavi(d.ref, out, offset), nil
}

// SetIntArray writes in starting at offset. The write must fit the array.
func (d *DataRef) SetIntArray(s gate.Scope, in []int32, offset int) error {
	const op = "set int array"
	if err := d.access(s, op, host.TypeIntArray, true); err != nil {
		return err
	}
	if err := d.bounds(op, offset, len(in), d.reg.host.GetDatavi(d.ref, nil, 0)); err != nil {
		return err
	}
	d.reg.host.SetDatavi(d.ref, in, offset)
	return nil
}

// GetFloatArray copies elements starting at offset into out and returns how
// many were copied.
func (d *DataRef) GetFloatArray(s gate.Scope, out []float32, offset int) (int, error) {
	const op = "get float array"
	if err := d.access(s, op, host.TypeFloatArray, false); err != nil {
		return 0, err
	}
	if err := d.bounds(op, offset, 0, d.reg.host.GetDatavf(d.ref, nil, 0)); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return d.reg.host.GetDatavf(d.ref, out, offset), nil
}

// SetFloatArray writes in starting at offset. The write must fit the array.
func (d *DataRef) SetFloatArray(s gate.Scope, in []float32, offset int) error {
	const op = "set float array"
	if err := d.access(s, op, host.TypeFloatArray, true); err != nil {
		return err
	}
	if err := d.bounds(op, offset, len(in), d.reg.host.GetDatavf(d.ref, nil, 0)); err != nil {
		return err
	}
	d.reg.host.SetDatavf(d.ref, in, offset)
	return nil
}

// GetBytes copies bytes starting at offset into out and returns how many were
// copied.
func (d *DataRef) GetBytes(s gate.Scope, out []byte, offset int) (int, error) {
	const op = "get bytes"
	if err := d.access(s, op, host.TypeData, false); err != nil {
		return 0, err
	}
	if err := d.bounds(op, offset, 0, d.reg.host.GetDatab(d.ref, nil, 0)); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return d.reg.host.GetDatab(d.ref, out, offset), nil
}

// SetBytes writes in starting at offset. The write must fit the buffer.
func (d *DataRef) SetBytes(s gate.Scope, in []byte, offset int) error {
	const op = "set bytes"
	if err := d.access(s, op, host.TypeData, true); err != nil {
		return err
	}
	if err := d.bounds(op, offset, len(in), d.reg.host.GetDatab(d.ref, nil, 0)); err != nil {
		return err
	}
	d.reg.host.SetDatab(d.ref, in, offset)
	return nil
}

// Len returns the element count of an array or byte dataref. Int arrays win
// over float arrays, which win over bytes, when several are exposed.
func (d *DataRef) Len(s gate.Scope) (int, error) {
	d.check(s, "dataref len")
	switch {
	case d.types.Has(host.TypeIntArray):
		return d.reg.host.GetDatavi(d.ref, nil, 0), nil
	case d.types.Has(host.TypeFloatArray):
		return d.reg.host.GetDatavf(d.ref, nil, 0), nil
	case d.types.Has(host.TypeData):
		return d.reg.host.GetDatab(d.ref, nil, 0), nil
	}
	return 0, opError("len", d.name, ErrTypeMismatch)
}

// GetString reads a byte dataref as a string, stopping at the first NUL.
func (d *DataRef) GetString(s gate.Scope) (string, error) {
	const op = "get string"
	if err := d.access(s, op, host.TypeData, false); err != nil {
		return "", err
	}
	n := d.reg.host.GetDatab(d.ref, nil, 0)
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	n = d.reg.host.GetDatab(d.ref, buf, 0)
	buf = buf[:n]
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// SetString writes v followed by a NUL terminator. It fails with
// ErrInvalidValue when v contains NUL, and ErrOutOfRange when it does not fit.
func (d *DataRef) SetString(s gate.Scope, v string) error {
	const op = "set string"
	if err := d.access(s, op, host.TypeData, true); err != nil {
		return err
	}
	if strings.IndexByte(v, 0) >= 0 {
		return opError(op, d.name, ErrInvalidValue)
	}
	buf := append([]byte(v), 0)
	if err := d.bounds(op, 0, len(buf), d.reg.host.GetDatab(d.ref, nil, 0)); err != nil {
		return err
	}
	d.reg.host.SetDatab(d.ref, buf, 0)
	return nil
}

func (d *DataRef) bounds(op string, offset, n, length int) error {
	if offset < 0 || offset > length || n > length-offset {
		return opError(op, d.name, ErrOutOfRange)
	}
	return nil
}
