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

//go:build darwin && cgo

package thread

/*
#include <pthread.h>
#include <stdint.h>

static uint64_t xplm_thread_id(void) {
	uint64_t tid = 0;
	pthread_threadid_np(NULL, &tid);
	return tid;
}
*/
import "C"

// Current returns the id of the calling OS thread. Callers must hold
// runtime.LockOSThread for the value to stay meaningful.
func Current() ID {
	return ID(C.xplm_thread_id())
}
