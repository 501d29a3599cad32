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

import "github.com/srediag/plugin-xplm/pkg/host"

type share struct {
	name string
	cb   host.SharedDataCallback
}

// ShareData joins the shared dataref name, creating it writable and zeroed on
// first use. Arrays start empty.
func (h *Host) ShareData(name string, typ host.DataType, cb host.SharedDataCallback) (host.ShareID, bool) {
	if dr, ok := h.datarefs.Get(name); ok {
		if dr.types != typ {
			return 0, false
		}
	} else {
		h.Define(DataRefSpec{Name: name, Types: typ, Writable: true})
	}
	id := host.ShareID(h.nextHdl.Add(1))
	h.shares.Set(id, &share{name: name, cb: cb})
	return id, true
}

// UnshareData drops one subscription. The data itself stays.
func (h *Host) UnshareData(id host.ShareID) {
	h.shares.Remove(id)
}

// Shares returns how many subscriptions name has.
func (h *Host) Shares(name string) int {
	n := 0
	for item := range h.shares.IterBuffered() {
		if item.Val.name == name {
			n++
		}
	}
	return n
}

// notify tells every subscriber of a shared dataref that it was written.
func (h *Host) notify(dr *dataRef) {
	if dr == nil || h.shares.IsEmpty() {
		return
	}
	var cbs []host.SharedDataCallback
	for item := range h.shares.IterBuffered() {
		if item.Val.name == dr.name && item.Val.cb != nil {
			cbs = append(cbs, item.Val.cb)
		}
	}
	for _, cb := range cbs {
		cb()
	}
}
