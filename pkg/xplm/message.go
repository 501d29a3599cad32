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

package xplm

import (
	"fmt"

	"github.com/srediag/plugin-xplm/pkg/host"
)

// Message identifies a message delivered to a plugin.
type Message host.MessageID

// Messages sent by the simulator itself. Ids up to MaxReservedMessage are
// reserved for the host.
const (
	MsgPlaneCrashed         Message = 101
	MsgPlaneLoaded          Message = 102
	MsgAirportLoaded        Message = 103
	MsgSceneryLoaded        Message = 104
	MsgAirplaneCountChanged Message = 105
	MsgPlaneUnloaded        Message = 106
	MsgWillWritePrefs       Message = 107
	MsgLiveryLoaded         Message = 108
	MsgEnteredVR            Message = 109
	MsgExitingVR            Message = 110
	MsgReleasePlanes        Message = 111

	MaxReservedMessage Message = 0x00FFFFFF
)

var messageNames = map[Message]string{
	MsgPlaneCrashed:         "plane crashed",
	MsgPlaneLoaded:          "plane loaded",
	MsgAirportLoaded:        "airport loaded",
	MsgSceneryLoaded:        "scenery loaded",
	MsgAirplaneCountChanged: "airplane count changed",
	MsgPlaneUnloaded:        "plane unloaded",
	MsgWillWritePrefs:       "will write prefs",
	MsgLiveryLoaded:         "livery loaded",
	MsgEnteredVR:            "entered VR",
	MsgExitingVR:            "exiting VR",
	MsgReleasePlanes:        "release planes",
}

func (m Message) String() string {
	if name, ok := messageNames[m]; ok {
		return name
	}
	if m <= MaxReservedMessage {
		return fmt.Sprintf("host message %d", int32(m))
	}
	return fmt.Sprintf("plugin message %#x", int32(m))
}

// Reserved reports whether the id belongs to the host's range.
func (m Message) Reserved() bool {
	return m >= 0 && m <= MaxReservedMessage
}

// UserAircraft is the plane index carried by plane messages for the user's
// own aircraft.
const UserAircraft uintptr = 0
