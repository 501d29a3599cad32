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

// Package host describes the native plugin SDK surface as Go interfaces.
//
// Implementations are thin: pkg/cabi forwards every call to the XPLM C library,
// internal/simhost keeps everything in memory. Nothing in this package checks
// threads or callback windows; that is the job of pkg/gate and its callers.
package host

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Raw identifiers issued by the host. Zero is the null value for all of them
// except PluginID, where zero is the simulator itself.
type (
	DataRef      uintptr
	CommandRef   uintptr
	MenuID       uintptr
	FlightLoopID uintptr
	HandlerID    uint64
	ShareID      uint64
	PluginID     int32
)

const (
	// NoPlugin is returned by lookups that find no plugin. As a message
	// destination it reaches every plugin.
	NoPlugin PluginID = -1
	// XPlane is the simulator's own entry in the plugin table.
	XPlane PluginID = 0
)

// PluginInfo is what the host reports about a loaded plugin.
type PluginInfo struct {
	Name        string
	Path        string
	Signature   string
	Description string
}

// DataType is the host's dataref type bitmask. A dataref may expose several.
type DataType uint32

const (
	TypeUnknown    DataType = 0
	TypeInt        DataType = 1
	TypeFloat      DataType = 2
	TypeDouble     DataType = 4
	TypeFloatArray DataType = 8
	TypeIntArray   DataType = 16
	TypeData       DataType = 32
)

// Has reports whether every bit of want is present in t.
func (t DataType) Has(want DataType) bool {
	return want != 0 && t&want == want
}

var typeNames = []struct {
	bit  DataType
	name string
}{
	{TypeInt, "int"},
	{TypeFloat, "float"},
	{TypeDouble, "double"},
	{TypeFloatArray, "float[]"},
	{TypeIntArray, "int[]"},
	{TypeData, "data"},
}

func (t DataType) String() string {
	if t == TypeUnknown {
		return "unknown"
	}
	s := ""
	for _, n := range typeNames {
		if t&n.bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	return s
}

// ParseDataType accepts the String form ("float|double") or a number.
func ParseDataType(s string) (DataType, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return DataType(n), nil
	}
	var t DataType
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		found := false
		for _, n := range typeNames {
			if strings.EqualFold(part, n.name) {
				t |= n.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("host: unknown data type %q", part)
		}
	}
	return t, nil
}

// UnmarshalText lets YAML and flag values name types.
func (t *DataType) UnmarshalText(b []byte) error {
	v, err := ParseDataType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// CommandPhase is the phase passed to command handlers.
type CommandPhase int32

const (
	CommandBegin    CommandPhase = 0
	CommandContinue CommandPhase = 1
	CommandEnd      CommandPhase = 2
)

func (p CommandPhase) String() string {
	switch p {
	case CommandBegin:
		return "begin"
	case CommandContinue:
		return "continue"
	case CommandEnd:
		return "end"
	}
	return "unknown"
}

// MenuCheck is the check mark state of a menu item.
type MenuCheck int32

const (
	MenuNoCheck   MenuCheck = 0
	MenuUnchecked MenuCheck = 1
	MenuChecked   MenuCheck = 2
)

// FlightLoopPhase selects when a flight loop runs relative to the flight model.
type FlightLoopPhase int32

const (
	BeforeFlightModel FlightLoopPhase = 0
	AfterFlightModel  FlightLoopPhase = 1
)

// MessageID identifies a message delivered to XPluginReceiveMessage.
type MessageID int32

// Callbacks invoked by the host. They always arrive on the host thread.
type (
	// CommandCallback returns true to let other handlers (and the host) see the command.
	CommandCallback func(ref CommandRef, phase CommandPhase) bool
	// MenuCallback receives the item reference passed to AppendMenuItem.
	MenuCallback func(menu MenuID, itemRef uintptr)
	// FlightLoopCallback returns the next interval: >0 seconds, <0 loops, 0 deactivates.
	FlightLoopCallback func(sinceLastCall, sinceLastLoop float32, counter int32) float32
	// ErrorCallback receives SDK usage errors reported by the host.
	ErrorCallback func(msg string)
	// SharedDataCallback is told that some plugin wrote a shared dataref.
	SharedDataCallback func()
)

// Accessor backs a dataref owned by the plugin. Nil fields mean the type or
// direction is not supported. Array getters with a nil out slice return the length.
type Accessor struct {
	GetInt        func() int32
	SetInt        func(int32)
	GetFloat      func() float32
	SetFloat      func(float32)
	GetDouble     func() float64
	SetDouble     func(float64)
	GetIntArray   func(out []int32, offset int) int
	SetIntArray   func(in []int32, offset int)
	GetFloatArray func(out []float32, offset int) int
	SetFloatArray func(in []float32, offset int)
	GetBytes      func(out []byte, offset int) int
	SetBytes      func(in []byte, offset int)
}

// DataAccess is the dataref part of the SDK.
type DataAccess interface {
	FindDataRef(name string) DataRef
	DataRefTypes(ref DataRef) DataType
	CanWriteDataRef(ref DataRef) bool

	GetDatai(ref DataRef) int32
	SetDatai(ref DataRef, v int32)
	GetDataf(ref DataRef) float32
	SetDataf(ref DataRef, v float32)
	GetDatad(ref DataRef) float64
	SetDatad(ref DataRef, v float64)
	// Array getters copy into out starting at offset and return the number copied,
	// or the total length when out is nil.
	GetDatavi(ref DataRef, out []int32, offset int) int
	SetDatavi(ref DataRef, in []int32, offset int)
	GetDatavf(ref DataRef, out []float32, offset int) int
	SetDatavf(ref DataRef, in []float32, offset int)
	GetDatab(ref DataRef, out []byte, offset int) int
	SetDatab(ref DataRef, in []byte, offset int)

	RegisterDataAccessor(name string, typ DataType, writable bool, acc Accessor) DataRef
	UnregisterDataAccessor(ref DataRef)
}

// SharedDataAccess is the shared data part of the SDK. ShareData creates the
// dataref on first use and reports false when name is already shared with a
// different type.
type SharedDataAccess interface {
	ShareData(name string, typ DataType, cb SharedDataCallback) (ShareID, bool)
	UnshareData(id ShareID)
}

// CommandAccess is the command part of the SDK.
type CommandAccess interface {
	FindCommand(name string) CommandRef
	CreateCommand(name, description string) CommandRef
	CommandOnce(ref CommandRef)
	CommandBegin(ref CommandRef)
	CommandEnd(ref CommandRef)
	RegisterCommandHandler(ref CommandRef, before bool, cb CommandCallback) HandlerID
	UnregisterCommandHandler(id HandlerID)
}

// MenuAccess is the menu part of the SDK.
type MenuAccess interface {
	PluginsMenu() MenuID
	CreateMenu(name string, parent MenuID, parentItem int, cb MenuCallback) MenuID
	DestroyMenu(menu MenuID)
	AppendMenuItem(menu MenuID, name string, itemRef uintptr) int
	AppendMenuSeparator(menu MenuID)
	SetMenuItemName(menu MenuID, index int, name string)
	CheckMenuItem(menu MenuID, index int, check MenuCheck)
	CheckMenuItemState(menu MenuID, index int) MenuCheck
	EnableMenuItem(menu MenuID, index int, enabled bool)
	RemoveMenuItem(menu MenuID, index int)
}

// FlightLoopAccess is the processing part of the SDK.
type FlightLoopAccess interface {
	CreateFlightLoop(phase FlightLoopPhase, cb FlightLoopCallback) FlightLoopID
	ScheduleFlightLoop(id FlightLoopID, interval float32, relativeToNow bool)
	DestroyFlightLoop(id FlightLoopID)
}

// PluginAccess is the plugin management part of the SDK. The simulator
// counts itself among the plugins, as XPlane.
type PluginAccess interface {
	CountPlugins() int
	NthPlugin(index int) PluginID
	// PluginInfo reports false for ids the host does not know.
	PluginInfo(id PluginID) (PluginInfo, bool)
	IsPluginEnabled(id PluginID) bool
	EnablePlugin(id PluginID) bool
	DisablePlugin(id PluginID)
}

// System covers logging, versions, time, features and inter-plugin messaging.
type System interface {
	DebugString(s string)
	Versions() (xplane int, xplm int)
	// ElapsedTime is the time since the simulator started, by its own clock.
	ElapsedTime() time.Duration
	MyID() PluginID
	FindPluginBySignature(signature string) PluginID
	SendMessageToPlugin(to PluginID, msg MessageID, param uintptr)
	HasFeature(name string) bool
	IsFeatureEnabled(name string) bool
	EnableFeature(name string, enabled bool)
	EnumerateFeatures() []string
	SetErrorCallback(cb ErrorCallback)
}

// Host is the complete SDK surface the binding relies on.
type Host interface {
	DataAccess
	SharedDataAccess
	CommandAccess
	MenuAccess
	FlightLoopAccess
	PluginAccess
	System
}

// DescriptorSize is the size of each buffer the host hands to plugin start.
const DescriptorSize = 256

// Descriptor mirrors the three NUL-terminated buffers plugin start fills in.
type Descriptor struct {
	Name        [DescriptorSize]byte
	Signature   [DescriptorSize]byte
	Description [DescriptorSize]byte
}

// Set copies the strings into the buffers, truncating each to
// DescriptorSize-1 bytes so a terminating NUL always fits.
func (d *Descriptor) Set(name, signature, description string) {
	fill(&d.Name, name)
	fill(&d.Signature, signature)
	fill(&d.Description, description)
}

// Strings returns the buffers up to their first NUL.
func (d *Descriptor) Strings() (name, signature, description string) {
	return cstr(d.Name[:]), cstr(d.Signature[:]), cstr(d.Description[:])
}

func fill(buf *[DescriptorSize]byte, s string) {
	n := copy(buf[:DescriptorSize-1], s)
	clear(buf[n:])
}

func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
