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

package signals_test

import (
	"testing"
	"time"

	"github.com/jacobsa/ece391kernel/kernelctx"
	"github.com/jacobsa/ece391kernel/signals"
	. "github.com/jacobsa/ogletest"
	"github.com/jacobsa/timeutil"
)

func TestSignals(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Suite
////////////////////////////////////////////////////////////////////////

type SignalsTest struct {
	table *signals.Table
	proc  kernelctx.ProcessRef
}

func init() { RegisterTestSuite(&SignalsTest{}) }

func (t *SignalsTest) SetUp(ti *TestInfo) {
	t.table = signals.NewTable()
	t.proc = kernelctx.ProcessRef(1)
	t.table.Register(t.proc)
}

// Delivering a second-process signal to a process that was never
// registered is an error, not a silent no-op.
func (t *SignalsTest) SendSignalToUnknownProcessFails() {
	err := t.table.SendSignal(kernelctx.ProcessRef(99), signals.Interrupt)
	ExpectNe(nil, err)
}

// S5: Ctrl+C delivered via SendSignal(Interrupt) surfaces as a kill
// action on the next DoSignal call, with no handler installed.
func (t *SignalsTest) DefaultInterruptKillsTheTask() {
	AssertEq(nil, t.table.SendSignal(t.proc, signals.Interrupt))

	d, err := t.table.DoSignal(t.proc)
	AssertEq(nil, err)
	AssertTrue(d != nil)
	ExpectEq(signals.Interrupt, d.Kind)
	ExpectEq(signals.ActionKill, d.Action)
}

// Alarm and User1 default to being ignored rather than killing the
// process.
func (t *SignalsTest) DefaultAlarmIsIgnored() {
	AssertEq(nil, t.table.SendSignal(t.proc, signals.Alarm))

	d, err := t.table.DoSignal(t.proc)
	AssertEq(nil, err)
	AssertTrue(d != nil)
	ExpectEq(signals.ActionIgnore, d.Action)
}

// With nothing pending, DoSignal reports no delivery.
func (t *SignalsTest) NoSignalPendingReturnsNil() {
	d, err := t.table.DoSignal(t.proc)
	AssertEq(nil, err)
	ExpectTrue(d == nil)
}

// Signals are delivered in Kind order: DivZero (0) before Interrupt (2)
// even though Interrupt was raised first.
func (t *SignalsTest) LowestKindDeliversFirst() {
	AssertEq(nil, t.table.SendSignal(t.proc, signals.Interrupt))
	AssertEq(nil, t.table.SendSignal(t.proc, signals.DivZero))

	d, err := t.table.DoSignal(t.proc)
	AssertEq(nil, err)
	AssertTrue(d != nil)
	ExpectEq(signals.DivZero, d.Kind)
}

// While one signal is being handled, every other kind is masked; once
// ClearMask runs (modeling sigreturn), the remaining pending signal is
// deliverable again.
func (t *SignalsTest) HandlingOneSignalMasksTheRest() {
	AssertEq(nil, t.table.SendSignal(t.proc, signals.DivZero))
	AssertEq(nil, t.table.SendSignal(t.proc, signals.Interrupt))

	d, err := t.table.DoSignal(t.proc)
	AssertEq(nil, err)
	ExpectEq(signals.DivZero, d.Kind)

	d, err = t.table.DoSignal(t.proc)
	AssertEq(nil, err)
	ExpectTrue(d == nil)

	AssertEq(nil, t.table.ClearMask(t.proc))
	d, err = t.table.DoSignal(t.proc)
	AssertEq(nil, err)
	AssertTrue(d != nil)
	ExpectEq(signals.Interrupt, d.Kind)
}

// DoSignal stamps a Delivery with the Table's Clock rather than the real
// wall clock, using a SimulatedClock injected through NewTableWithClock.
func (t *SignalsTest) DeliveryIsStampedFromTheInjectedClock() {
	clock := &timeutil.SimulatedClock{}
	clock.SetTime(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC))
	table := signals.NewTableWithClock(clock)
	table.Register(t.proc)

	AssertEq(nil, table.SendSignal(t.proc, signals.Alarm))
	d, err := table.DoSignal(t.proc)
	AssertEq(nil, err)
	AssertTrue(d != nil)
	ExpectTrue(d.At.Equal(clock.Now()))
}

// A custom handler's FrameBuilder error (e.g. the unsupported stub)
// propagates from DoSignal rather than silently falling back to the
// default action.
func (t *SignalsTest) CustomHandlerErrorPropagates() {
	AssertEq(nil, t.table.SetHandler(t.proc, signals.Interrupt, signals.UnsupportedFrameBuilder()))
	AssertEq(nil, t.table.SendSignal(t.proc, signals.Interrupt))

	_, err := t.table.DoSignal(t.proc)
	ExpectEq(signals.ErrFrameUnsupported, err)
}
