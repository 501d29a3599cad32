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

//go:build xplm400

package xplm

// Target is the SDK revision this build is compiled against.
const Target = XPLM400

// Messages added in XPLM400.
const (
	MsgFMODBankLoaded    Message = 112
	MsgFMODBankUnloading Message = 113
	MsgDataRefsAdded     Message = 114
)

func init() {
	messageNames[MsgFMODBankLoaded] = "fmod bank loaded"
	messageNames[MsgFMODBankUnloading] = "fmod bank unloading"
	messageNames[MsgDataRefsAdded] = "datarefs added"
}
