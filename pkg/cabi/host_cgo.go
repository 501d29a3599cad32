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
#cgo CFLAGS: -DXPLM200=1 -DXPLM210=1 -DXPLM300=1 -DXPLM301=1 -DXPLM303=1
#cgo CFLAGS: -I${SRCDIR}/sdk/CHeaders/XPLM
#cgo linux CFLAGS: -DLIN=1
#cgo darwin CFLAGS: -DAPL=1
#cgo darwin LDFLAGS: -F${SRCDIR}/sdk/Libraries/Mac -framework XPLM
#cgo windows CFLAGS: -DIBM=1
#cgo windows LDFLAGS: -L${SRCDIR}/sdk/Libraries/Win -lXPLM_64

#include <stdint.h>
#include <stdlib.h>
#include <XPLMDataAccess.h>
#include <XPLMPlugin.h>
#include <XPLMProcessing.h>
#include <XPLMMenus.h>
#include <XPLMUtilities.h>

extern float goFlightLoop(float sinceCall, float sinceLoop, int counter, void *refcon);
extern int goCommand(XPLMCommandRef cmd, XPLMCommandPhase phase, void *refcon);
extern void goMenu(void *menuRef, void *itemRef);
extern void goError(char *msg);
extern void goFeature(char *name, void *refcon);
extern void goShared(void *refcon);

extern int goReadInt(void *refcon);
extern void goWriteInt(void *refcon, int v);
extern float goReadFloat(void *refcon);
extern void goWriteFloat(void *refcon, float v);
extern double goReadDouble(void *refcon);
extern void goWriteDouble(void *refcon, double v);
extern int goReadIntArray(void *refcon, int *out, int offset, int max);
extern void goWriteIntArray(void *refcon, int *in, int offset, int count);
extern int goReadFloatArray(void *refcon, float *out, int offset, int max);
extern void goWriteFloatArray(void *refcon, float *in, int offset, int count);
extern int goReadData(void *refcon, void *out, int offset, int max);
extern void goWriteData(void *refcon, void *in, int offset, int count);

static float flightLoopTramp(float a, float b, int c, void *r) { return goFlightLoop(a, b, c, r); }
static int commandTramp(XPLMCommandRef c, XPLMCommandPhase p, void *r) { return goCommand(c, p, r); }
static void menuTramp(void *m, void *i) { goMenu(m, i); }
static void errorTramp(const char *msg) { goError((char *)msg); }
static void featureTramp(const char *name, void *r) { goFeature((char *)name, r); }
static void sharedTramp(void *r) { goShared(r); }

static int readIntTramp(void *r) { return goReadInt(r); }
static void writeIntTramp(void *r, int v) { goWriteInt(r, v); }
static float readFloatTramp(void *r) { return goReadFloat(r); }
static void writeFloatTramp(void *r, float v) { goWriteFloat(r, v); }
static double readDoubleTramp(void *r) { return goReadDouble(r); }
static void writeDoubleTramp(void *r, double v) { goWriteDouble(r, v); }
static int readIntArrayTramp(void *r, int *o, int off, int n) { return goReadIntArray(r, o, off, n); }
static void writeIntArrayTramp(void *r, int *i, int off, int n) { goWriteIntArray(r, i, off, n); }
static int readFloatArrayTramp(void *r, float *o, int off, int n) { return goReadFloatArray(r, o, off, n); }
static void writeFloatArrayTramp(void *r, float *i, int off, int n) { goWriteFloatArray(r, i, off, n); }
static int readDataTramp(void *r, void *o, int off, int n) { return goReadData(r, o, off, n); }
static void writeDataTramp(void *r, void *i, int off, int n) { goWriteData(r, i, off, n); }

enum {
	accGetInt = 1 << 0, accSetInt = 1 << 1,
	accGetFloat = 1 << 2, accSetFloat = 1 << 3,
	accGetDouble = 1 << 4, accSetDouble = 1 << 5,
	accGetIntArray = 1 << 6, accSetIntArray = 1 << 7,
	accGetFloatArray = 1 << 8, accSetFloatArray = 1 << 9,
	accGetData = 1 << 10, accSetData = 1 << 11
};

static XPLMDataRef registerAccessor(const char *name, XPLMDataTypeID t, int writable, int mask, uintptr_t refcon) {
	void *r = (void *)refcon;
	return XPLMRegisterDataAccessor(name, t, writable,
		(mask & accGetInt) ? readIntTramp : NULL, (mask & accSetInt) ? writeIntTramp : NULL,
		(mask & accGetFloat) ? readFloatTramp : NULL, (mask & accSetFloat) ? writeFloatTramp : NULL,
		(mask & accGetDouble) ? readDoubleTramp : NULL, (mask & accSetDouble) ? writeDoubleTramp : NULL,
		(mask & accGetIntArray) ? readIntArrayTramp : NULL, (mask & accSetIntArray) ? writeIntArrayTramp : NULL,
		(mask & accGetFloatArray) ? readFloatArrayTramp : NULL, (mask & accSetFloatArray) ? writeFloatArrayTramp : NULL,
		(mask & accGetData) ? readDataTramp : NULL, (mask & accSetData) ? writeDataTramp : NULL,
		r, r);
}

static int shareData(const char *name, XPLMDataTypeID t, uintptr_t refcon) {
	return XPLMShareData(name, t, sharedTramp, (void *)refcon);
}

static int unshareData(const char *name, XPLMDataTypeID t, uintptr_t refcon) {
	return XPLMUnshareData(name, t, sharedTramp, (void *)refcon);
}

static XPLMFlightLoopID createFlightLoop(int phase, uintptr_t refcon) {
	XPLMCreateFlightLoop_t p;
	p.structSize = sizeof(p);
	p.phase = phase;
	p.callbackFunc = flightLoopTramp;
	p.refcon = (void *)refcon;
	return XPLMCreateFlightLoop(&p);
}

static void registerCommandHandler(XPLMCommandRef cmd, int before, uintptr_t refcon) {
	XPLMRegisterCommandHandler(cmd, commandTramp, before, (void *)refcon);
}

static void unregisterCommandHandler(XPLMCommandRef cmd, int before, uintptr_t refcon) {
	XPLMUnregisterCommandHandler(cmd, commandTramp, before, (void *)refcon);
}

static XPLMMenuID createMenu(const char *name, XPLMMenuID parent, int item, uintptr_t refcon) {
	return XPLMCreateMenu(name, parent, item, menuTramp, (void *)refcon);
}

static int appendMenuItem(XPLMMenuID menu, const char *name, uintptr_t item) {
	return XPLMAppendMenuItem(menu, name, (void *)item, 0);
}

static void sendMessage(XPLMPluginID to, int msg, uintptr_t param) {
	XPLMSendMessageToPlugin(to, msg, (void *)param);
}

static void setErrorCallback(void) {
	XPLMSetErrorCallback(errorTramp);
}

static void enumerateFeatures(uintptr_t refcon) {
	XPLMEnumerateFeatures(featureTramp, (void *)refcon);
}
*/
import "C"

import (
	"runtime/cgo"
	"sync/atomic"
	"time"
	"unsafe"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/plugin-xplm/pkg/host"
)

const available = true

type commandHandler struct {
	cmd    C.XPLMCommandRef
	before C.int
	h      cgo.Handle
}

type sharedState struct {
	name string
	typ  C.XPLMDataTypeID
	h    cgo.Handle
}

type menuState struct {
	id host.MenuID
	cb host.MenuCallback
}

// xplmHost forwards host.Host to the XPLM C library. Callback closures are
// kept alive in cgo handles passed to the host as refcons.
type xplmHost struct {
	loops    cmap.ConcurrentMap[host.FlightLoopID, cgo.Handle]
	handlers cmap.ConcurrentMap[host.HandlerID, commandHandler]
	menus    cmap.ConcurrentMap[host.MenuID, cgo.Handle]
	accs     cmap.ConcurrentMap[host.DataRef, cgo.Handle]
	shares   cmap.ConcurrentMap[host.ShareID, sharedState]
	nextH    atomic.Uint64
	onError  atomic.Pointer[host.ErrorCallback]
}

var _ host.Host = (*xplmHost)(nil)

var theHost = newHost()

func newHost() *xplmHost {
	return &xplmHost{
		loops:    cmap.NewWithCustomShardingFunction[host.FlightLoopID, cgo.Handle](shard[host.FlightLoopID]),
		handlers: cmap.NewWithCustomShardingFunction[host.HandlerID, commandHandler](shard[host.HandlerID]),
		menus:    cmap.NewWithCustomShardingFunction[host.MenuID, cgo.Handle](shard[host.MenuID]),
		accs:     cmap.NewWithCustomShardingFunction[host.DataRef, cgo.Handle](shard[host.DataRef]),
		shares:   cmap.NewWithCustomShardingFunction[host.ShareID, sharedState](shard[host.ShareID]),
	}
}

func shard[K ~uintptr | ~uint64](k K) uint32 {
	return uint32(k) ^ uint32(uint64(k)>>32)
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func withCString(s string, fn func(*C.char)) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	fn(cs)
}

func dataRef(ref host.DataRef) C.XPLMDataRef { return C.XPLMDataRef(unsafe.Pointer(ref)) }

func (h *xplmHost) FindDataRef(name string) (ref host.DataRef) {
	withCString(name, func(cs *C.char) {
		ref = host.DataRef(unsafe.Pointer(C.XPLMFindDataRef(cs)))
	})
	return ref
}

func (h *xplmHost) DataRefTypes(ref host.DataRef) host.DataType {
	return host.DataType(C.XPLMGetDataRefTypes(dataRef(ref)))
}

func (h *xplmHost) CanWriteDataRef(ref host.DataRef) bool {
	return C.XPLMCanWriteDataRef(dataRef(ref)) != 0
}

func (h *xplmHost) GetDatai(ref host.DataRef) int32 { return int32(C.XPLMGetDatai(dataRef(ref))) }
func (h *xplmHost) SetDatai(ref host.DataRef, v int32) {
	C.XPLMSetDatai(dataRef(ref), C.int(v))
}
func (h *xplmHost) GetDataf(ref host.DataRef) float32 { return float32(C.XPLMGetDataf(dataRef(ref))) }
func (h *xplmHost) SetDataf(ref host.DataRef, v float32) {
	C.XPLMSetDataf(dataRef(ref), C.float(v))
}
func (h *xplmHost) GetDatad(ref host.DataRef) float64 { return float64(C.XPLMGetDatad(dataRef(ref))) }
func (h *xplmHost) SetDatad(ref host.DataRef, v float64) {
	C.XPLMSetDatad(dataRef(ref), C.double(v))
}

func (h *xplmHost) GetDatavi(ref host.DataRef, out []int32, offset int) int {
	if len(out) == 0 {
		return int(C.XPLMGetDatavi(dataRef(ref), nil, C.int(offset), 0))
	}
	return int(C.XPLMGetDatavi(dataRef(ref), (*C.int)(unsafe.Pointer(&out[0])), C.int(offset), C.int(len(out))))
}

func (h *xplmHost) SetDatavi(ref host.DataRef, in []int32, offset int) {
	if len(in) == 0 {
		return
	}
	C.XPLMSetDatavi(dataRef(ref), (*C.int)(unsafe.Pointer(&in[0])), C.int(offset), C.int(len(in)))
}

func (h *xplmHost) GetDatavf(ref host.DataRef, out []float32, offset int) int {
	if len(out) == 0 {
		return int(C.XPLMGetDatavf(dataRef(ref), nil, C.int(offset), 0))
	}
	return int(C.XPLMGetDatavf(dataRef(ref), (*C.float)(unsafe.Pointer(&out[0])), C.int(offset), C.int(len(out))))
}

func (h *xplmHost) SetDatavf(ref host.DataRef, in []float32, offset int) {
	if len(in) == 0 {
		return
	}
	C.XPLMSetDatavf(dataRef(ref), (*C.float)(unsafe.Pointer(&in[0])), C.int(offset), C.int(len(in)))
}

func (h *xplmHost) GetDatab(ref host.DataRef, out []byte, offset int) int {
	if len(out) == 0 {
		return int(C.XPLMGetDatab(dataRef(ref), nil, C.int(offset), 0))
	}
	return int(C.XPLMGetDatab(dataRef(ref), unsafe.Pointer(&out[0]), C.int(offset), C.int(len(out))))
}

func (h *xplmHost) SetDatab(ref host.DataRef, in []byte, offset int) {
	if len(in) == 0 {
		return
	}
	C.XPLMSetDatab(dataRef(ref), unsafe.Pointer(&in[0]), C.int(offset), C.int(len(in)))
}

func accessorMask(a *host.Accessor) C.int {
	var m C.int
	set := func(ok bool, bit C.int) {
		if ok {
			m |= bit
		}
	}
	set(a.GetInt != nil, C.accGetInt)
	set(a.SetInt != nil, C.accSetInt)
	set(a.GetFloat != nil, C.accGetFloat)
	set(a.SetFloat != nil, C.accSetFloat)
	set(a.GetDouble != nil, C.accGetDouble)
	set(a.SetDouble != nil, C.accSetDouble)
	set(a.GetIntArray != nil, C.accGetIntArray)
	set(a.SetIntArray != nil, C.accSetIntArray)
	set(a.GetFloatArray != nil, C.accGetFloatArray)
	set(a.SetFloatArray != nil, C.accSetFloatArray)
	set(a.GetBytes != nil, C.accGetData)
	set(a.SetBytes != nil, C.accSetData)
	return m
}

func (h *xplmHost) RegisterDataAccessor(name string, typ host.DataType, writable bool, acc host.Accessor) (ref host.DataRef) {
	hd := cgo.NewHandle(&acc)
	withCString(name, func(cs *C.char) {
		ref = host.DataRef(unsafe.Pointer(C.registerAccessor(cs, C.XPLMDataTypeID(typ), cbool(writable), accessorMask(&acc), C.uintptr_t(hd))))
	})
	if ref == 0 {
		hd.Delete()
		return 0
	}
	h.accs.Set(ref, hd)
	return ref
}

func (h *xplmHost) UnregisterDataAccessor(ref host.DataRef) {
	C.XPLMUnregisterDataAccessor(dataRef(ref))
	if hd, ok := h.accs.Pop(ref); ok {
		hd.Delete()
	}
}

func (h *xplmHost) ShareData(name string, typ host.DataType, cb host.SharedDataCallback) (host.ShareID, bool) {
	st := sharedState{name: name, typ: C.XPLMDataTypeID(typ), h: cgo.NewHandle(cb)}
	var ok bool
	withCString(name, func(cs *C.char) {
		ok = C.shareData(cs, st.typ, C.uintptr_t(st.h)) != 0
	})
	if !ok {
		st.h.Delete()
		return 0, false
	}
	id := host.ShareID(h.nextH.Add(1))
	h.shares.Set(id, st)
	return id, true
}

func (h *xplmHost) UnshareData(id host.ShareID) {
	st, ok := h.shares.Pop(id)
	if !ok {
		return
	}
	withCString(st.name, func(cs *C.char) {
		C.unshareData(cs, st.typ, C.uintptr_t(st.h))
	})
	st.h.Delete()
}

func cmdRef(ref host.CommandRef) C.XPLMCommandRef { return C.XPLMCommandRef(unsafe.Pointer(ref)) }

func (h *xplmHost) FindCommand(name string) (ref host.CommandRef) {
	withCString(name, func(cs *C.char) {
		ref = host.CommandRef(unsafe.Pointer(C.XPLMFindCommand(cs)))
	})
	return ref
}

func (h *xplmHost) CreateCommand(name, description string) (ref host.CommandRef) {
	withCString(name, func(n *C.char) {
		withCString(description, func(d *C.char) {
			ref = host.CommandRef(unsafe.Pointer(C.XPLMCreateCommand(n, d)))
		})
	})
	return ref
}

func (h *xplmHost) CommandOnce(ref host.CommandRef)  { C.XPLMCommandOnce(cmdRef(ref)) }
func (h *xplmHost) CommandBegin(ref host.CommandRef) { C.XPLMCommandBegin(cmdRef(ref)) }
func (h *xplmHost) CommandEnd(ref host.CommandRef)   { C.XPLMCommandEnd(cmdRef(ref)) }

func (h *xplmHost) RegisterCommandHandler(ref host.CommandRef, before bool, cb host.CommandCallback) host.HandlerID {
	id := host.HandlerID(h.nextH.Add(1))
	ch := commandHandler{cmd: cmdRef(ref), before: cbool(before), h: cgo.NewHandle(cb)}
	h.handlers.Set(id, ch)
	C.registerCommandHandler(ch.cmd, ch.before, C.uintptr_t(ch.h))
	return id
}

func (h *xplmHost) UnregisterCommandHandler(id host.HandlerID) {
	ch, ok := h.handlers.Pop(id)
	if !ok {
		return
	}
	C.unregisterCommandHandler(ch.cmd, ch.before, C.uintptr_t(ch.h))
	ch.h.Delete()
}

func menuID(m host.MenuID) C.XPLMMenuID { return C.XPLMMenuID(unsafe.Pointer(m)) }

func (h *xplmHost) PluginsMenu() host.MenuID {
	return host.MenuID(unsafe.Pointer(C.XPLMFindPluginsMenu()))
}

func (h *xplmHost) CreateMenu(name string, parent host.MenuID, parentItem int, cb host.MenuCallback) (id host.MenuID) {
	st := &menuState{cb: cb}
	hd := cgo.NewHandle(st)
	withCString(name, func(cs *C.char) {
		id = host.MenuID(unsafe.Pointer(C.createMenu(cs, menuID(parent), C.int(parentItem), C.uintptr_t(hd))))
	})
	if id == 0 {
		hd.Delete()
		return 0
	}
	st.id = id
	h.menus.Set(id, hd)
	return id
}

func (h *xplmHost) DestroyMenu(menu host.MenuID) {
	C.XPLMDestroyMenu(menuID(menu))
	if hd, ok := h.menus.Pop(menu); ok {
		hd.Delete()
	}
}

func (h *xplmHost) AppendMenuItem(menu host.MenuID, name string, itemRef uintptr) (idx int) {
	withCString(name, func(cs *C.char) {
		idx = int(C.appendMenuItem(menuID(menu), cs, C.uintptr_t(itemRef)))
	})
	return idx
}

func (h *xplmHost) AppendMenuSeparator(menu host.MenuID) {
	C.XPLMAppendMenuSeparator(menuID(menu))
}

func (h *xplmHost) SetMenuItemName(menu host.MenuID, index int, name string) {
	withCString(name, func(cs *C.char) {
		C.XPLMSetMenuItemName(menuID(menu), C.int(index), cs, 0)
	})
}

func (h *xplmHost) CheckMenuItem(menu host.MenuID, index int, check host.MenuCheck) {
	C.XPLMCheckMenuItem(menuID(menu), C.int(index), C.XPLMMenuCheck(check))
}

func (h *xplmHost) CheckMenuItemState(menu host.MenuID, index int) host.MenuCheck {
	var out C.XPLMMenuCheck
	C.XPLMCheckMenuItemState(menuID(menu), C.int(index), &out)
	return host.MenuCheck(out)
}

func (h *xplmHost) EnableMenuItem(menu host.MenuID, index int, enabled bool) {
	C.XPLMEnableMenuItem(menuID(menu), C.int(index), cbool(enabled))
}

func (h *xplmHost) RemoveMenuItem(menu host.MenuID, index int) {
	C.XPLMRemoveMenuItem(menuID(menu), C.int(index))
}

func (h *xplmHost) CreateFlightLoop(phase host.FlightLoopPhase, cb host.FlightLoopCallback) host.FlightLoopID {
	hd := cgo.NewHandle(cb)
	id := host.FlightLoopID(unsafe.Pointer(C.createFlightLoop(C.int(phase), C.uintptr_t(hd))))
	if id == 0 {
		hd.Delete()
		return 0
	}
	h.loops.Set(id, hd)
	return id
}

func (h *xplmHost) ScheduleFlightLoop(id host.FlightLoopID, interval float32, relativeToNow bool) {
	C.XPLMScheduleFlightLoop(C.XPLMFlightLoopID(unsafe.Pointer(id)), C.float(interval), cbool(relativeToNow))
}

func (h *xplmHost) DestroyFlightLoop(id host.FlightLoopID) {
	C.XPLMDestroyFlightLoop(C.XPLMFlightLoopID(unsafe.Pointer(id)))
	if hd, ok := h.loops.Pop(id); ok {
		hd.Delete()
	}
}

func (h *xplmHost) DebugString(s string) {
	withCString(s, func(cs *C.char) { C.XPLMDebugString(cs) })
}

func (h *xplmHost) Versions() (int, int) {
	var xp, sdk C.int
	var hostID C.XPLMHostApplicationID
	C.XPLMGetVersions(&xp, &sdk, &hostID)
	return int(xp), int(sdk)
}

func (h *xplmHost) ElapsedTime() time.Duration {
	return time.Duration(float64(C.XPLMGetElapsedTime()) * float64(time.Second))
}

func (h *xplmHost) MyID() host.PluginID {
	return host.PluginID(C.XPLMGetMyID())
}

func (h *xplmHost) FindPluginBySignature(signature string) (id host.PluginID) {
	withCString(signature, func(cs *C.char) {
		id = host.PluginID(C.XPLMFindPluginBySignature(cs))
	})
	return id
}

func (h *xplmHost) CountPlugins() int {
	return int(C.XPLMCountPlugins())
}

func (h *xplmHost) NthPlugin(index int) host.PluginID {
	return host.PluginID(C.XPLMGetNthPlugin(C.int(index)))
}

func (h *xplmHost) PluginInfo(id host.PluginID) (host.PluginInfo, bool) {
	var name, path, sig, desc [host.DescriptorSize]C.char
	C.XPLMGetPluginInfo(C.XPLMPluginID(id), &name[0], &path[0], &sig[0], &desc[0])
	info := host.PluginInfo{
		Name:        C.GoString(&name[0]),
		Path:        C.GoString(&path[0]),
		Signature:   C.GoString(&sig[0]),
		Description: C.GoString(&desc[0]),
	}
	return info, info.Name != "" || info.Signature != ""
}

func (h *xplmHost) IsPluginEnabled(id host.PluginID) bool {
	return C.XPLMIsPluginEnabled(C.XPLMPluginID(id)) != 0
}

func (h *xplmHost) EnablePlugin(id host.PluginID) bool {
	return C.XPLMEnablePlugin(C.XPLMPluginID(id)) != 0
}

func (h *xplmHost) DisablePlugin(id host.PluginID) {
	C.XPLMDisablePlugin(C.XPLMPluginID(id))
}

func (h *xplmHost) SendMessageToPlugin(to host.PluginID, msg host.MessageID, param uintptr) {
	C.sendMessage(C.XPLMPluginID(to), C.int(msg), C.uintptr_t(param))
}

func (h *xplmHost) HasFeature(name string) (ok bool) {
	withCString(name, func(cs *C.char) { ok = C.XPLMHasFeature(cs) != 0 })
	return ok
}

func (h *xplmHost) IsFeatureEnabled(name string) (ok bool) {
	withCString(name, func(cs *C.char) { ok = C.XPLMIsFeatureEnabled(cs) != 0 })
	return ok
}

func (h *xplmHost) EnableFeature(name string, enabled bool) {
	withCString(name, func(cs *C.char) { C.XPLMEnableFeature(cs, cbool(enabled)) })
}

func (h *xplmHost) EnumerateFeatures() []string {
	var names []string
	hd := cgo.NewHandle(&names)
	defer hd.Delete()
	C.enumerateFeatures(C.uintptr_t(hd))
	return names
}

func (h *xplmHost) SetErrorCallback(cb host.ErrorCallback) {
	h.onError.Store(&cb)
	C.setErrorCallback()
}
