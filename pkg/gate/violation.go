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

package gate

import "errors"

// ContractViolation is the panic value raised when SDK state is touched outside
// a callback window or through a stale handle. It is not meant to be handled;
// the lifecycle shim recovers it only at the ABI boundary.
type ContractViolation struct {
	Op     string
	Reason string
}

func (v *ContractViolation) Error() string {
	return "xplm: contract violation in " + v.Op + ": " + v.Reason
}

// AsViolation extracts a *ContractViolation from a recovered panic value.
func AsViolation(r any) (*ContractViolation, bool) {
	switch x := r.(type) {
	case *ContractViolation:
		return x, true
	case error:
		var v *ContractViolation
		if errors.As(x, &v) {
			return v, true
		}
	}
	return nil, false
}
