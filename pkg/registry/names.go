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

import "strings"

// ValidateName checks a dataref or command name against host conventions:
// slash separated, case-sensitive segments such as "sim/cockpit2/gauges/airspeed".
// Lookups never fold case.
func ValidateName(name string) error {
	switch {
	case name == "":
		return opError("validate", name, ErrInvalidName)
	case strings.IndexByte(name, 0) >= 0:
		return opError("validate", name, ErrInvalidName)
	case strings.HasPrefix(name, "/"), strings.HasSuffix(name, "/"):
		return opError("validate", name, ErrInvalidName)
	case strings.Contains(name, "//"):
		return opError("validate", name, ErrInvalidName)
	case strings.TrimSpace(name) != name:
		return opError("validate", name, ErrInvalidName)
	}
	return nil
}

// validLabel checks free-form text shown by the host (menu titles, descriptions).
func validLabel(s string) bool {
	return strings.IndexByte(s, 0) < 0
}
