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

// Package kernelctx holds the handful of process-wide selectors that the
// rest of the kernel needs to read but does not own: which process is
// currently scheduled, which terminal owns that process's user-space
// mapping, and which terminal is currently visible on screen.
//
// The original C kernel kept cur_process, sche_term and cur_terminal as
// free-standing globals touched directly from interrupt and process
// context alike. This package gathers them behind one guarded struct so
// that the scheduler, the signal package and the terminal package can all
// observe them without creating an import cycle between the three.
package kernelctx

import "sync"

// ProcessRef identifies a process without exposing scheduler internals to
// callers outside this package's owner. It is opaque on purpose: the
// signals package only ever compares or stores it.
type ProcessRef int

// NoProcess is the sentinel ProcessRef -1, used when a terminal has no process
// stack entry (e.g. before any shell has been spawned on it).
const NoProcess ProcessRef = -1

// Kernel is the single process-wide selector set. The scheduler is
// expected to own one instance and call its setters from its own
// scheduling checkpoints; everyone else only reads it.
type Kernel struct {
	mu sync.RWMutex

	curProcess ProcessRef
	scheTerm   int
	curTerm    int

	// foreground is the top of each terminal's process stack, i.e. the
	// process that would receive an INTERRUPT sent to that terminal.
	// Index is terminal number.
	foreground []ProcessRef
}

// New returns a Kernel with numTerminals foreground slots, all
// unoccupied, terminal 0 both scheduled and visible.
func New(numTerminals int) *Kernel {
	fg := make([]ProcessRef, numTerminals)
	for i := range fg {
		fg[i] = NoProcess
	}
	return &Kernel{
		curProcess: NoProcess,
		scheTerm:   0,
		curTerm:    0,
		foreground: fg,
	}
}

// CurrentlyScheduled returns the process whose kernel stack is live, i.e.
// the process whose syscalls are presently running.
func (k *Kernel) CurrentlyScheduled() ProcessRef {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.curProcess
}

// SetCurrentlyScheduled is called by the scheduler at a scheduling
// checkpoint.
func (k *Kernel) SetCurrentlyScheduled(p ProcessRef) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.curProcess = p
}

// ScheduledTerminal returns sche_term: the terminal whose user-space
// mapping is active for the currently scheduled process. It may differ
// from the visible terminal.
func (k *Kernel) ScheduledTerminal() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.scheTerm
}

// SetScheduledTerminal updates sche_term.
func (k *Kernel) SetScheduledTerminal(term int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.scheTerm = term
}

// VisibleTerminal returns cur_terminal: the terminal currently rendered
// to video memory and receiving keystrokes.
func (k *Kernel) VisibleTerminal() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.curTerm
}

// SetVisibleTerminal updates cur_terminal. Called only by
// termring.Ring.Switch, which must update it last so that an
// in-flight keystroke targets exactly one terminal (spec.md §5 ordering
// guarantee).
func (k *Kernel) SetVisibleTerminal(term int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.curTerm = term
}

// ForegroundOwner returns the process at the top of term's process
// stack -- the target of an INTERRUPT signal sent while term is
// foreground.
func (k *Kernel) ForegroundOwner(term int) ProcessRef {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if term < 0 || term >= len(k.foreground) {
		return NoProcess
	}
	return k.foreground[term]
}

// SetForegroundOwner records which process owns term's process stack top.
// The scheduler calls this whenever it pushes or pops a process on a
// terminal.
func (k *Kernel) SetForegroundOwner(term int, p ProcessRef) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if term < 0 || term >= len(k.foreground) {
		return
	}
	k.foreground[term] = p
}
