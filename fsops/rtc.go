// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fsops

import "context"

// RTCDriver is the named external contract spec.md §1 calls for: the
// real-time-clock device itself (interrupt rate programming, tick
// waiting) is explicitly out of scope, so Rtc only ever talks to one of
// these rather than touching hardware.
type RTCDriver interface {
	// SetRate configures the clock's interrupt frequency in Hz.
	SetRate(hz int) error
	// WaitForTick blocks until the next RTC interrupt, honoring ctx
	// cancellation.
	WaitForTick(ctx context.Context) error
}

// Rtc implements Ops for spec.md §4.2's RTC file type. Every call
// delegates to an RTCDriver; with none configured, Read and Write report
// ErrNotImplemented rather than silently succeeding, so a caller can
// distinguish "no RTC wired up" from "RTC says nothing happened".
type Rtc struct {
	driver RTCDriver
}

// NewRtc returns an Rtc vtable delegating to driver. driver may be nil,
// in which case Read and Write always fail with ErrNotImplemented.
func NewRtc(driver RTCDriver) *Rtc {
	return &Rtc{driver: driver}
}

type rtcState struct{}

// Open has no name-based resolution. With no driver it always succeeds;
// with one, it sets the default 2Hz rate (as rtc_open does) and fails
// only if the driver's SetRate does.
func (r *Rtc) Open(ctx context.Context, name string) (OpenState, error) {
	if r.driver != nil {
		if err := r.driver.SetRate(2); err != nil {
			return nil, err
		}
	}
	return rtcState{}, nil
}

// Read blocks for one tick at the configured rate and returns 0 bytes,
// matching rtc_read's "always succeeds once a tick occurs" contract.
func (r *Rtc) Read(ctx context.Context, state OpenState, pos *uint32, buf []byte) (int, error) {
	if r.driver == nil {
		return 0, ErrNotImplemented
	}
	if err := r.driver.WaitForTick(ctx); err != nil {
		return 0, err
	}
	return 0, nil
}

// Write interprets buf as a 4-byte little-endian Hz rate and reprograms
// the driver, matching rtc_write's "set the interrupt frequency" role.
func (r *Rtc) Write(ctx context.Context, state OpenState, buf []byte) (int, error) {
	if r.driver == nil {
		return 0, ErrNotImplemented
	}
	if len(buf) != 4 {
		return 0, ErrInvalidArgs
	}
	hz := int(buf[0]) | int(buf[1])<<8 | int(buf[2])<<16 | int(buf[3])<<24
	if err := r.driver.SetRate(hz); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Close is a no-op.
func (r *Rtc) Close(ctx context.Context, state OpenState) error {
	return nil
}

var _ Ops = (*Rtc)(nil)
