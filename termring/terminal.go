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

// Package termring implements the multi-terminal line discipline:
// spec.md §4.3's per-terminal cooperative line buffer, the
// foreground/background video-memory rotation, and cursor state.
//
// The original C kernel busy-waits on enter_flag with interrupts
// enabled so the keyboard handler can still run. This package keeps
// that spirit -- TerminalRead polls rather than blocking on a condition
// variable that the keyboard path would need to know about -- but polls
// against a channel close so a context cancellation can still interrupt
// a test.
package termring

import (
	"context"
	"time"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"

	"github.com/jacobsa/ece391kernel/fsops"
)

// BufferSize is the line buffer capacity (spec.md §3): byte 127 is
// reserved for the implicit trailing '\n' on read completion, so at most
// 127 bytes of real input accumulate.
const BufferSize = 128

// VideoSize is the size in bytes of the single shared video-memory
// region and of each terminal's background save buffer (spec.md §6).
const VideoSize = 4096

// Ring holds NumTerminals Terminal records plus the selectors that
// decide which one is visible. It is the concrete type the rest of the
// kernel constructs; Terminal is the per-terminal state.
type Ring struct {
	clock timeutil.Clock
	terms []*Terminal

	mu         syncutil.InvariantMutex
	curTerm    int // GUARDED_BY(mu); cur_terminal
	echoTarget EchoSink
}

// EchoSink is the single shared 4KiB video-memory region (spec.md §6),
// owned by whatever renders the foreground terminal. In a real boot it
// is backed by a VGA text-mode writer; tests and cmd/ece391shell's
// non-graphical mode use a buffering implementation.
type EchoSink interface {
	PutC(c byte)
	Clear()
	MoveCursor(x, y int)
	Position() (x, y int)
	// Snapshot copies the current framebuffer contents out.
	Snapshot() [VideoSize]byte
	// Restore overwrites the framebuffer with frame's contents.
	Restore(frame [VideoSize]byte)
}

// NewRing constructs a Ring of n terminals (spec.md fixes n at 3, but
// nothing in the line-discipline algorithm depends on that), terminal 0
// initially visible.
func NewRing(n int, clock timeutil.Clock, echo EchoSink) *Ring {
	r := &Ring{
		clock:      clock,
		terms:      make([]*Terminal, n),
		echoTarget: echo,
	}
	for i := range r.terms {
		r.terms[i] = newTerminal()
	}
	r.mu = syncutil.NewInvariantMutex(r.checkInvariants)
	return r
}

func (r *Ring) checkInvariants() {
	if r.curTerm < 0 || r.curTerm >= len(r.terms) {
		panic("termring: cur_terminal out of range")
	}
}

// Terminal returns the i'th terminal's state, or nil if out of range.
func (r *Ring) Terminal(i int) *Terminal {
	if i < 0 || i >= len(r.terms) {
		return nil
	}
	return r.terms[i]
}

// NumTerminals returns how many terminals this ring holds.
func (r *Ring) NumTerminals() int { return len(r.terms) }

// CurTerminal returns cur_terminal: the terminal currently rendered to
// video memory and receiving keystrokes.
func (r *Ring) CurTerminal() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.curTerm
}

// Terminal is one terminal's line buffer, cursor and video save state
// (spec.md §3). All mutable fields are guarded by mu; checkInvariants
// enforces the 0 <= count <= 127 bound.
type Terminal struct {
	mu syncutil.InvariantMutex

	lineBuffer [BufferSize]byte // GUARDED_BY(mu)
	count      int              // GUARDED_BY(mu); 0 <= count <= 127
	readOpen   bool             // GUARDED_BY(mu)
	enterFlag  bool             // GUARDED_BY(mu)
	cursorX    int              // GUARDED_BY(mu)
	cursorY    int              // GUARDED_BY(mu)

	background [VideoSize]byte // GUARDED_BY(mu); this terminal's save buffer
}

func newTerminal() *Terminal {
	t := &Terminal{}
	for i := range t.lineBuffer {
		t.lineBuffer[i] = ' '
	}
	t.mu = syncutil.NewInvariantMutex(t.checkInvariants)
	return t
}

func (t *Terminal) checkInvariants() {
	if t.count < 0 || t.count > BufferSize-1 {
		panic("termring: count out of [0, 127] range")
	}
	// enterFlag and readOpen are legitimately both set at once: a
	// terminal_read sets readOpen and then busy-waits for enterFlag,
	// which the keyboard path sets (with readOpen still true) on '\n' --
	// that overlap is the only way a blocked reader ever wakes up
	// (spec.md §4.3 step 2-3, S3). Both are cleared together only once
	// TerminalRead's wait ends and it drains the buffer.
}

// Cursor returns the terminal's current cursor position.
func (t *Terminal) Cursor() (x, y int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursorX, t.cursorY
}

// SetCursor updates the terminal's cursor position, e.g. after the echo
// path advances it.
func (t *Terminal) SetCursor(x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursorX, t.cursorY = x, y
}

// pollInterval is how often TerminalRead's busy-wait checks enterFlag.
// The real kernel spins at full CPU speed between interrupts; polling
// here trades a little latency for not pegging a goroutine's core.
const pollInterval = 500 * time.Microsecond

// TerminalRead implements spec.md §4.3's terminal_read against t, the
// caller's (scheduled) terminal. It busy-waits for enterFlag with no lock
// held across iterations, so the keyboard path (which runs on a
// different goroutine, standing in for interrupt context) is always
// free to set it. count never includes the line's terminating '\n' --
// FillLineBuffer records it in the buffer without advancing count -- so
// the copy covers exactly the typed characters and the forced buf[n] =
// '\n' write lands one slot past them, matching terminal_read's own
// separate `buf[num_to_be_read] = '\n'` assignment.
func (t *Terminal) TerminalRead(ctx context.Context, buf []byte) (int, error) {
	if buf == nil {
		return 0, fsops.ErrInvalidArgs
	}

	t.mu.Lock()
	t.readOpen = true
	t.mu.Unlock()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		t.mu.RLock()
		ready := t.enterFlag
		t.mu.RUnlock()
		if ready {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.count
	if n > len(buf) {
		n = len(buf)
	}
	copy(buf[:n], t.lineBuffer[:n])
	if n < len(buf) {
		buf[n] = '\n'
	}

	t.count = 0
	t.enterFlag = false
	t.readOpen = false
	for i := range t.lineBuffer {
		t.lineBuffer[i] = ' '
	}

	return n, nil
}

// TerminalWrite implements spec.md §4.3's terminal_write: every byte is
// emitted through putC except NUL, which is silently skipped (the
// corrected, non-inverted guard per SPEC_FULL.md §5, Open Question 4).
func (r *Ring) TerminalWrite(buf []byte) (int, error) {
	if buf == nil {
		return 0, fsops.ErrInvalidArgs
	}
	r.mu.RLock()
	sink := r.echoTarget
	r.mu.RUnlock()

	for _, c := range buf {
		if c != 0 {
			sink.PutC(c)
		}
	}
	return len(buf), nil
}

// ClearForeground blanks the shared framebuffer and homes the cursor,
// implementing Ctrl+L's clear_intr call without exposing the EchoSink
// itself to callers outside this package.
func (r *Ring) ClearForeground() {
	r.mu.RLock()
	sink := r.echoTarget
	r.mu.RUnlock()
	sink.Clear()
}

// EchoResult tells a keyboard-context caller what FillLineBuffer did, so
// it knows whether to also echo the character to the screen.
type EchoResult int

const (
	// Suppressed means the character must not be echoed (e.g. backspace
	// with an empty buffer, or a full buffer).
	Suppressed EchoResult = iota
	// Echo means the character should be rendered to the foreground
	// terminal's framebuffer.
	Echo
)

// HandleKeystroke is the keyboard package's one entry point into the
// line discipline: it feeds c to the foreground terminal's
// FillLineBuffer and, if the result calls for an echo, renders c to the
// shared framebuffer and syncs the terminal's mirrored cursor position
// from the sink's hardware cursor. Per spec.md §4.3/§4.4, the caller
// must resolve the foreground terminal via CurTerminal/Terminal exactly
// once per keystroke before calling this.
func (r *Ring) HandleKeystroke(term *Terminal, c byte) {
	if term.FillLineBuffer(c) != Echo {
		return
	}

	r.mu.RLock()
	sink := r.echoTarget
	r.mu.RUnlock()

	sink.PutC(c)
	x, y := sink.Position()
	term.SetCursor(x, y)
}

// FillLineBuffer implements spec.md §4.3's fill_line_buffer against the
// *foreground* terminal (cur_terminal, not sche_term) -- keystrokes
// always target the visible terminal, which may differ from the
// scheduled one. It must be called with the ring's current terminal,
// obtained via Ring.Terminal(Ring.CurTerminal()), each keystroke re-
// resolving cur_terminal exactly once (spec.md §5 ordering guarantee).
func (t *Terminal) FillLineBuffer(c byte) EchoResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.readOpen {
		return Echo
	}

	switch {
	case c == '\n':
		t.lineBuffer[t.count] = '\n'
		t.enterFlag = true
		return Echo

	case c == '\b':
		if t.count == 0 {
			return Suppressed
		}
		t.count--
		t.lineBuffer[t.count] = ' '
		return Echo

	default:
		if t.count < BufferSize-1 {
			t.lineBuffer[t.count] = c
			t.count++
			return Echo
		}
		return Suppressed
	}
}
