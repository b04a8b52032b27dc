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

package keyboard

import (
	"github.com/jacobsa/syncutil"

	"github.com/jacobsa/ece391kernel/kernelctx"
	"github.com/jacobsa/ece391kernel/signals"
	"github.com/jacobsa/ece391kernel/termring"
)

// modifiers mirrors keyboard.c's static flag_t modifier_flag: four
// sticky bits toggled by press/release scancodes, consulted on every
// subsequent keystroke.
type modifiers struct {
	mu      syncutil.InvariantMutex
	shift   bool // GUARDED_BY(mu)
	ctrl    bool // GUARDED_BY(mu)
	alt     bool // GUARDED_BY(mu)
	capsLk  bool // GUARDED_BY(mu)
}

func newModifiers() *modifiers {
	m := &modifiers{}
	m.mu = syncutil.NewInvariantMutex(m.checkInvariants)
	return m
}

func (m *modifiers) checkInvariants() {}

// applyIfModifier updates m for scancode if it is a known modifier
// press/release and reports whether it was one, matching is_modifier's
// return value (which the caller uses to short-circuit the rest of the
// handler).
func (m *modifiers) applyIfModifier(scancode uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch scancode {
	case scCapsLockPress:
		m.capsLk = !m.capsLk
		return true
	case scLeftCtrlPress:
		m.ctrl = true
		return true
	case scLeftCtrlRelease:
		m.ctrl = false
		return false
	case scLeftAltPress:
		m.alt = true
		return true
	case scLeftAltRelease:
		m.alt = false
		return false
	case scLeftShiftPress, scRightShiftPress:
		m.shift = true
		return true
	case scLeftShiftRelease, scRightShiftRelease:
		m.shift = false
		return false
	default:
		return false
	}
}

func (m *modifiers) snapshot() (shift, ctrl, alt, capsLk bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shift, m.ctrl, m.alt, m.capsLk
}

// translate maps scancode to an ASCII character under the current
// modifier state, or 0 if scancode has no character (out of table
// range, or a table hole like the keypad/function-key positions).
func translate(scancode uint32, shift, ctrl, alt, capsLk bool) byte {
	if scancode >= tableSize {
		return 0
	}
	switch {
	case capsLk && shift:
		return capsShiftedTable[scancode]
	case capsLk:
		return capsTable[scancode]
	case shift:
		return shiftedTable[scancode]
	default:
		return keysTable[scancode]
	}
}

// Decoder is the keyboard package's single stateful object: it owns the
// modifier flags and wires hotkeys into the terminal ring and the
// signal table. One Decoder serves all terminals, matching the original
// kernel's single modifier_flag shared across terminal switches.
type Decoder struct {
	mods   *modifiers
	ring   *termring.Ring
	kernel *kernelctx.Kernel
	paging termring.PagingHook
	sigs   *signals.Table
}

// NewDecoder wires a Decoder to the terminal ring it echoes into, the
// kernel selectors it reads cur_terminal/sche_term from, the paging hook
// Switch notifies, and the signal table Ctrl+C delivers into.
func NewDecoder(ring *termring.Ring, k *kernelctx.Kernel, paging termring.PagingHook, sigs *signals.Table) *Decoder {
	return &Decoder{mods: newModifiers(), ring: ring, kernel: k, paging: paging, sigs: sigs}
}

// HandleScancode implements keyboard_handler's per-byte dispatch in
// priority order: modifier update, Alt+F1/F2/F3 terminal switch, Ctrl+L
// clear, Ctrl+C interrupt, then (if none of those matched) the ordinary
// character path through termring.Ring.HandleKeystroke. It is safe to
// call from whatever goroutine is standing in for the keyboard IRQ.
func (d *Decoder) HandleScancode(scancode uint32) error {
	if d.mods.applyIfModifier(scancode) {
		return nil
	}

	shift, ctrl, alt, capsLk := d.mods.snapshot()

	if alt {
		switch scancode {
		case scF1:
			d.ring.Switch(d.kernel, d.paging, 0)
		case scF2:
			d.ring.Switch(d.kernel, d.paging, 1)
		case scF3:
			d.ring.Switch(d.kernel, d.paging, 2)
		}
		return nil
	}

	// Ctrl+L and Ctrl+C are checked against the plain, unmodified
	// keysTable -- never translate()'s caps/shift-aware result -- so
	// Caps Lock being on (which uppercases 'l'/'c' to 'L'/'C' in
	// capsTable/capsShiftedTable) can't mask them, matching
	// keyboard.c's own keys_table-only comparison.
	rawC := byte(0)
	if scancode < tableSize {
		rawC = keysTable[scancode]
	}

	if ctrl && rawC == 'l' {
		d.ring.ClearForeground()
		return nil
	}

	if ctrl && rawC == 'c' {
		proc := d.kernel.ForegroundOwner(d.kernel.VisibleTerminal())
		if proc == kernelctx.NoProcess {
			return nil
		}
		return d.sigs.SendSignal(proc, signals.Interrupt)
	}

	c := translate(scancode, shift, ctrl, alt, capsLk)
	if c == 0 {
		return nil
	}

	term := d.ring.Terminal(d.ring.CurTerminal())
	d.ring.HandleKeystroke(term, c)
	return nil
}
