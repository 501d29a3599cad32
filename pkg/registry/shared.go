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
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

// SharedHandler is told, inside a callback window, that some plugin wrote a
// shared dataref. d reads and writes the value.
type SharedHandler func(tok *gate.Token, d *DataRef)

// Shared is this plugin's subscription to a dataref shared between plugins.
// The host stores the value; releasing the subscription leaves it in place
// for the other plugins.
type Shared struct {
	handle
	share host.ShareID
	typ   host.DataType
	ref   *DataRef
}

// Share joins the dataref name shared between plugins, creating it when no
// plugin shared it yet. changed runs whenever any plugin writes the value,
// this one included. A name already shared as another type yields
// ErrTypeMismatch.
func Share[T Value](r *Registry, s gate.Scope, name string, changed SharedHandler) (*Shared, error) {
	const op = "share dataref"
	r.require(s, op)
	if err := ValidateName(name); err != nil {
		return nil, opError(op, name, ErrInvalidName)
	}
	sd := &Shared{typ: typeOf[T]()}
	id, ok := r.host.ShareData(name, sd.typ, func() {
		r.invoke("shared "+name, func(tok *gate.Token) {
			d, err := sd.DataRef(tok)
			if err != nil {
				r.log.Warnf("shared dataref %q changed but cannot be read: %v", name, err)
				return
			}
			if changed != nil {
				changed(tok, d)
			}
		})
	})
	if !ok {
		return nil, opError(op, name, ErrTypeMismatch)
	}
	sd.share = id
	hs := r.host
	sd.handle = r.add(KindSharedData, name, sd, func() {
		hs.UnshareData(sd.share)
		if sd.ref != nil {
			r.remove(sd.ref.id)
		}
	})
	return sd, nil
}

// Type returns the type the data is shared as.
func (sd *Shared) Type(s gate.Scope) host.DataType {
	sd.check(s, "shared data type")
	return sd.typ
}

// DataRef returns the handle used to read and write the shared value. It is
// released together with the subscription.
func (sd *Shared) DataRef(s gate.Scope) (*DataRef, error) {
	sd.check(s, "shared dataref")
	if sd.ref != nil {
		if _, ok := sd.reg.lookup(sd.ref.id); ok {
			return sd.ref, nil
		}
	}
	d, err := sd.reg.FindDataRef(s, sd.name)
	if err != nil {
		return nil, err
	}
	sd.ref = d
	return d, nil
}
