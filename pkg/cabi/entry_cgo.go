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

//go:build cgo && xplm

package cabi

/*
#include <stdint.h>
#include <XPLMDataAccess.h>
#include <XPLMPlugin.h>
#include <XPLMUtilities.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/pkg/host"
)

func fail(err error) {
	logging.Printf(theHost, "xplm plugin: %v\n", err)
}

func fillBuf(dst *C.char, src []byte) {
	copy(unsafe.Slice((*byte)(unsafe.Pointer(dst)), host.DescriptorSize), src)
}

//export XPluginStart
func XPluginStart(name, signature, description *C.char) C.int {
	sh, err := shimFor(theHost)
	if err != nil {
		fail(err)
		return 0
	}
	var d host.Descriptor
	if !sh.Start(&d) {
		return 0
	}
	fillBuf(name, d.Name[:])
	fillBuf(signature, d.Signature[:])
	fillBuf(description, d.Description[:])
	return 1
}

//export XPluginStop
func XPluginStop() {
	if sh, err := Shim(); err == nil {
		sh.Stop()
	}
}

//export XPluginEnable
func XPluginEnable() C.int {
	sh, err := Shim()
	if err != nil {
		return 0
	}
	return cbool(sh.Enable())
}

//export XPluginDisable
func XPluginDisable() {
	if sh, err := Shim(); err == nil {
		sh.Disable()
	}
}

//export XPluginReceiveMessage
func XPluginReceiveMessage(from C.XPLMPluginID, msg C.int, param unsafe.Pointer) {
	if sh, err := Shim(); err == nil {
		sh.ReceiveMessage(host.PluginID(from), host.MessageID(msg), uintptr(param))
	}
}

func handle(refcon unsafe.Pointer) cgo.Handle {
	return cgo.Handle(uintptr(refcon))
}

//export goFlightLoop
func goFlightLoop(sinceCall, sinceLoop C.float, counter C.int, refcon unsafe.Pointer) C.float {
	cb := handle(refcon).Value().(host.FlightLoopCallback)
	return C.float(cb(float32(sinceCall), float32(sinceLoop), int32(counter)))
}

//export goCommand
func goCommand(cmd C.XPLMCommandRef, phase C.XPLMCommandPhase, refcon unsafe.Pointer) C.int {
	cb := handle(refcon).Value().(host.CommandCallback)
	return cbool(cb(host.CommandRef(unsafe.Pointer(cmd)), host.CommandPhase(phase)))
}

//export goMenu
func goMenu(menuRef, itemRef unsafe.Pointer) {
	st := handle(menuRef).Value().(*menuState)
	st.cb(st.id, uintptr(itemRef))
}

//export goError
func goError(msg *C.char) {
	if cb := theHost.onError.Load(); cb != nil && *cb != nil {
		(*cb)(C.GoString(msg))
	}
}

//export goFeature
func goFeature(name *C.char, refcon unsafe.Pointer) {
	names := handle(refcon).Value().(*[]string)
	*names = append(*names, C.GoString(name))
}

//export goShared
func goShared(refcon unsafe.Pointer) {
	handle(refcon).Value().(host.SharedDataCallback)()
}

func accessor(refcon unsafe.Pointer) *host.Accessor {
	return handle(refcon).Value().(*host.Accessor)
}

//export goReadInt
func goReadInt(refcon unsafe.Pointer) C.int { return C.int(accessor(refcon).GetInt()) }

//export goWriteInt
func goWriteInt(refcon unsafe.Pointer, v C.int) { accessor(refcon).SetInt(int32(v)) }

//export goReadFloat
func goReadFloat(refcon unsafe.Pointer) C.float { return C.float(accessor(refcon).GetFloat()) }

//export goWriteFloat
func goWriteFloat(refcon unsafe.Pointer, v C.float) { accessor(refcon).SetFloat(float32(v)) }

//export goReadDouble
func goReadDouble(refcon unsafe.Pointer) C.double { return C.double(accessor(refcon).GetDouble()) }

//export goWriteDouble
func goWriteDouble(refcon unsafe.Pointer, v C.double) { accessor(refcon).SetDouble(float64(v)) }

//export goReadIntArray
func goReadIntArray(refcon unsafe.Pointer, out *C.int, offset, max C.int) C.int {
	var dst []int32
	if out != nil && max > 0 {
		dst = unsafe.Slice((*int32)(unsafe.Pointer(out)), int(max))
	}
	return C.int(accessor(refcon).GetIntArray(dst, int(offset)))
}

//export goWriteIntArray
func goWriteIntArray(refcon unsafe.Pointer, in *C.int, offset, count C.int) {
	if in == nil || count <= 0 {
		return
	}
	accessor(refcon).SetIntArray(unsafe.Slice((*int32)(unsafe.Pointer(in)), int(count)), int(offset))
}

//export goReadFloatArray
func goReadFloatArray(refcon unsafe.Pointer, out *C.float, offset, max C.int) C.int {
	var dst []float32
	if out != nil && max > 0 {
		dst = unsafe.Slice((*float32)(unsafe.Pointer(out)), int(max))
	}
	return C.int(accessor(refcon).GetFloatArray(dst, int(offset)))
}

//export goWriteFloatArray
func goWriteFloatArray(refcon unsafe.Pointer, in *C.float, offset, count C.int) {
	if in == nil || count <= 0 {
		return
	}
	accessor(refcon).SetFloatArray(unsafe.Slice((*float32)(unsafe.Pointer(in)), int(count)), int(offset))
}

//export goReadData
func goReadData(refcon unsafe.Pointer, out unsafe.Pointer, offset, max C.int) C.int {
	var dst []byte
	if out != nil && max > 0 {
		dst = unsafe.Slice((*byte)(out), int(max))
	}
	return C.int(accessor(refcon).GetBytes(dst, int(offset)))
}

//export goWriteData
func goWriteData(refcon unsafe.Pointer, in unsafe.Pointer, offset, count C.int) {
	if in == nil || count <= 0 {
		return
	}
	accessor(refcon).SetBytes(unsafe.Slice((*byte)(in), int(count)), int(offset))
}
