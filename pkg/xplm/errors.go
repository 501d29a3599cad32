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
	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/registry"
)

// Recoverable errors, matched with errors.Is.
var (
	ErrNotFound     = registry.ErrNotFound
	ErrTypeMismatch = registry.ErrTypeMismatch
	ErrReadOnly     = registry.ErrReadOnly
	ErrExists       = registry.ErrExists
	ErrInvalidName  = registry.ErrInvalidName
	ErrInvalidValue = registry.ErrInvalidValue
	ErrOutOfRange   = registry.ErrOutOfRange
	ErrUnsupported  = registry.ErrUnsupported
)

// ContractViolation is the panic value raised on SDK misuse.
type ContractViolation = gate.ContractViolation
