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

import "fmt"

// Revision is an SDK API revision, as reported in the host's XPLM version
// (e.g. 303 for XPLM303).
type Revision int

const (
	XPLM200 Revision = 200
	XPLM210 Revision = 210
	XPLM300 Revision = 300
	XPLM301 Revision = 301
	XPLM303 Revision = 303
	XPLM400 Revision = 400
)

// MinRevision is the oldest revision the binding runs against. Flight loops
// are created with XPLMCreateFlightLoop, which XPLM210 introduced.
const MinRevision = XPLM210

func (r Revision) String() string {
	return fmt.Sprintf("XPLM%d", int(r))
}

// Supports reports whether a host reporting xplmVersion implements revision r.
func (r Revision) Supports(xplmVersion int) bool {
	return xplmVersion >= int(r)
}
