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

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/plugin-xplm/pkg/gate"
	"github.com/srediag/plugin-xplm/pkg/host"
)

// DefaultLookupBackOff is the retry schedule used when FindDataRefDeferred gets
// a nil policy. It gives up after 30 seconds as measured by clock.
func DefaultLookupBackOff(clock backoff.Clock) backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(100*time.Millisecond),
		backoff.WithMaxInterval(5*time.Second),
		backoff.WithMaxElapsedTime(30*time.Second),
		backoff.WithClockProvider(clock),
	)
}

// hostClock tells time by the simulator's elapsed time, which is what flight
// loop intervals are measured in.
type hostClock struct {
	h host.Host
}

func (c hostClock) Now() time.Time {
	return time.Unix(0, 0).Add(c.h.ElapsedTime())
}

// Clock returns a backoff clock driven by the host's elapsed time. Policies
// passed to FindDataRefDeferred should use it so their give-up times follow
// the simulator rather than the wall clock.
func (r *Registry) Clock() backoff.Clock {
	return hostClock{h: r.host}
}

// FindDataRefDeferred resolves a dataref that another plugin may publish later,
// typically after its own enable. Lookups run from a flight loop, the first one
// on the next frame, and are retried on the policy's schedule. done is called
// once, inside a callback window, with the handle or with ErrNotFound when the
// policy gives up.
//
// The returned loop can be released to cancel the lookup.
func (r *Registry) FindDataRefDeferred(s gate.Scope, name string, policy backoff.BackOff, done func(tok *gate.Token, d *DataRef, err error)) (*FlightLoop, error) {
	const op = "find dataref deferred"
	r.require(s, op)
	if err := ValidateName(name); err != nil {
		return nil, opError(op, name, ErrInvalidName)
	}
	if policy == nil {
		policy = DefaultLookupBackOff(r.Clock())
	}
	policy.Reset()
	attempts := 0
	fl := r.NewFlightLoop(s, "lookup "+name, host.BeforeFlightModel, func(tok *gate.Token, _ LoopState) LoopResult {
		attempts++
		d, err := r.FindDataRef(tok, name)
		if err == nil {
			r.log.Debugf("dataref %q resolved after %d attempts", name, attempts)
			done(tok, d, nil)
			return Deactivate
		}
		if !errors.Is(err, ErrNotFound) {
			done(tok, nil, err)
			return Deactivate
		}
		next := policy.NextBackOff()
		if next == backoff.Stop {
			r.log.Warnf("dataref %q not found after %d attempts", name, attempts)
			done(tok, nil, opError(op, name, ErrNotFound))
			return Deactivate
		}
		return After(next)
	})
	fl.ScheduleImmediate(s)
	return fl, nil
}
