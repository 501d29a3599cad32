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

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/srediag/plugin-xplm/internal/scenario"
)

func TestVersionString(t *testing.T) {
	assert.Contains(t, versionString(), "xplm-sim dev")
	assert.Contains(t, versionString(), "SDK XPLM")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &scenario.Report{
		Steps:    3,
		Frames:   10,
		Failures: []scenario.Failure{{Step: 2, Msg: "state is enabled, want stopped"}},
	})
	assert.Equal(t, "scenario: 3 steps, 10 frames, 0 reloads\n  FAIL step 2: state is enabled, want stopped\n", buf.String())
}
