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

// Package signals implements spec.md §4.5's per-process signal
// delivery: five fixed signal kinds, a pending bitset and handler table
// per process, and the do_signal dispatch loop that runs at each
// process's cooperative checkpoint.
package signals

import (
	"fmt"
	"time"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"

	"github.com/jacobsa/ece391kernel/kernelctx"
)

// Kind identifies one of the five fixed signal numbers (signal.h).
type Kind int

const (
	DivZero   Kind = 0
	Segfault  Kind = 1
	Interrupt Kind = 2
	Alarm     Kind = 3
	User1     Kind = 4

	// NumSignals is the fixed signal-number space (signal.h's
	// NUM_SIGNAL); Kind values outside [0, NumSignals) are invalid.
	NumSignals = 5
)

func (k Kind) String() string {
	switch k {
	case DivZero:
		return "div-zero"
	case Segfault:
		return "segfault"
	case Interrupt:
		return "interrupt"
	case Alarm:
		return "alarm"
	case User1:
		return "user1"
	default:
		return "unknown"
	}
}

// Action is what DoSignal does when a given Kind reaches the front of
// the pending queue with no user handler installed (signal.c's
// dft_sig_handler table: the first three kinds kill the task, the last
// two are ignored).
type Action int

const (
	ActionKill Action = iota
	ActionIgnore
)

func defaultAction(k Kind) Action {
	switch k {
	case DivZero, Segfault, Interrupt:
		return ActionKill
	default:
		return ActionIgnore
	}
}

// FrameBuilder constructs the user-mode stack frame a custom signal
// handler needs to resume cleanly on return -- the piece signal.c's
// do_signal leaves as a bare comment ("Set up the signal handler's
// stack frame"). This tree has no user-mode address space to build a
// frame in, so the only implementation is the stub below; a real
// process-execution layer would supply its own.
type FrameBuilder interface {
	BuildFrame(proc kernelctx.ProcessRef, k Kind) error
}

// ErrFrameUnsupported is returned by UnsupportedFrameBuilder, and is
// what DoSignal propagates when a process has installed a custom
// handler for a signal: SPEC_FULL.md's Open Question #5 resolves this
// as an explicit unsupported error rather than a panic or a silent
// fallback to the default action, so callers can decide how to degrade.
var ErrFrameUnsupported = fmt.Errorf("signals: user-mode signal handler stack frames are not supported")

type unsupportedFrameBuilder struct{}

func (unsupportedFrameBuilder) BuildFrame(proc kernelctx.ProcessRef, k Kind) error {
	return ErrFrameUnsupported
}

// UnsupportedFrameBuilder returns a FrameBuilder that always reports
// ErrFrameUnsupported, for kernels (like this one) with no user address
// space to build a return frame in.
func UnsupportedFrameBuilder() FrameBuilder { return unsupportedFrameBuilder{} }

// procState is one process's signal state: pending bits, a handler per
// Kind (nil means use the default action, otherwise a FrameBuilder to
// invoke), and mask bits.
type procState struct {
	mu       syncutil.InvariantMutex
	pending  [NumSignals]bool // GUARDED_BY(mu)
	handlers [NumSignals]FrameBuilder // GUARDED_BY(mu); nil means "default"
	masked   [NumSignals]bool // GUARDED_BY(mu)
}

func newProcState() *procState {
	p := &procState{}
	p.mu = syncutil.NewInvariantMutex(p.checkInvariants)
	return p
}

func (p *procState) checkInvariants() {}

// Table owns every live process's signal state, keyed by
// kernelctx.ProcessRef. It is the registry SendSignal and DoSignal
// operate against; a process is registered at creation and removed at
// exit.
type Table struct {
	mu    syncutil.InvariantMutex
	clock timeutil.Clock
	procs map[kernelctx.ProcessRef]*procState // GUARDED_BY(mu)
}

// NewTable returns an empty signal table that stamps each Delivery with
// the real wall-clock time, for ALARM's (future) timestamping and for
// logging what time a signal actually reached do_signal.
func NewTable() *Table {
	return NewTableWithClock(timeutil.RealClock())
}

// NewTableWithClock is NewTable with an injectable timeutil.Clock, the
// same seam `samples/memfs/inode.go` exposes via its own `clock
// timeutil.Clock` field, so a test can fake time instead of sleeping.
func NewTableWithClock(clock timeutil.Clock) *Table {
	t := &Table{clock: clock, procs: make(map[kernelctx.ProcessRef]*procState)}
	t.mu = syncutil.NewInvariantMutex(t.checkInvariants)
	return t
}

func (t *Table) checkInvariants() {}

// Register adds proc to the table with every signal handler defaulted
// and unmasked. Calling Register twice for the same proc replaces its
// state, matching a fresh process image reusing a PID slot.
func (t *Table) Register(proc kernelctx.ProcessRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs[proc] = newProcState()
}

// Unregister drops proc's signal state, e.g. on process exit.
func (t *Table) Unregister(proc kernelctx.ProcessRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, proc)
}

// SetHandler installs fb as proc's handler for k, or clears it back to
// the default action if fb is nil.
func (t *Table) SetHandler(proc kernelctx.ProcessRef, k Kind, fb FrameBuilder) error {
	p, err := t.lookup(proc)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[k] = fb
	return nil
}

func (t *Table) lookup(proc kernelctx.ProcessRef) (*procState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.procs[proc]
	if !ok {
		return nil, fmt.Errorf("signals: process %d is not registered", proc)
	}
	return p, nil
}

// SendSignal marks k pending for proc. Per signal.c's send_signal,
// Interrupt always targets the process owning the currently *visible*
// (foreground) terminal rather than the currently-scheduled one --
// Ctrl+C kills what the user is looking at, not whatever happens to be
// running -- so callers delivering Interrupt should resolve proc via
// kernelctx.Kernel.ForegroundOwner(kernelctx.Kernel.VisibleTerminal())
// and every other Kind via kernelctx.Kernel.CurrentlyScheduled().
func (t *Table) SendSignal(proc kernelctx.ProcessRef, k Kind) error {
	if k < 0 || k >= NumSignals {
		return fmt.Errorf("signals: invalid signal kind %d", k)
	}
	p, err := t.lookup(proc)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[k] = true
	return nil
}

// Delivery describes one signal DoSignal decided to act on.
type Delivery struct {
	Kind   Kind
	Action Action    // valid only when no custom handler fired
	At     time.Time // when DoSignal observed k pending, from the Table's Clock
}

// DoSignal implements do_signal: it scans proc's pending bitset in
// Kind order, and for the first pending, unmasked signal it finds,
// clears it, masks every signal kind until ClearMask is called (signal.c
// masks all signals while one is being handled), and either reports the
// default action in the Delivery for the caller to carry out or asks the
// installed FrameBuilder to build a user handler frame. It returns
// (nil, nil) when nothing pending is unmasked.
func (t *Table) DoSignal(proc kernelctx.ProcessRef) (*Delivery, error) {
	p, err := t.lookup(proc)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for k := Kind(0); k < NumSignals; k++ {
		if !p.pending[k] || p.masked[k] {
			continue
		}
		p.pending[k] = false
		for i := range p.masked {
			p.masked[i] = true
		}

		now := t.clock.Now()
		if fb := p.handlers[k]; fb != nil {
			if err := fb.BuildFrame(proc, k); err != nil {
				return nil, err
			}
			return &Delivery{Kind: k, At: now}, nil
		}
		return &Delivery{Kind: k, Action: defaultAction(k), At: now}, nil
	}
	return nil, nil
}

// ClearMask unmasks every signal for proc, matching the point in a real
// kernel's signal return path (sigreturn) where the saved mask is
// restored after a handler completes.
func (t *Table) ClearMask(proc kernelctx.ProcessRef) error {
	p, err := t.lookup(proc)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.masked {
		p.masked[i] = false
	}
	return nil
}
