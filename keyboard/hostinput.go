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

// This file exports the handful of scancodes and a reverse character
// lookup that cmd/ece391shell needs to synthesize PS/2-shaped stimuli.
// There is no real keyboard controller in this environment (spec.md §1
// scopes the PIC/IRQ controller out entirely), so the one caller that
// reads already-decoded host keystrokes has to go the other direction:
// ASCII back to the scancode that would have produced it. The exported
// names below are a one-to-one relabeling of scancodes.go's unexported
// constants, kept in that file so the two can never drift apart.
const (
	ScancodeLeftShiftPress   = scLeftShiftPress
	ScancodeLeftShiftRelease = scLeftShiftRelease
	ScancodeLeftCtrlPress    = scLeftCtrlPress
	ScancodeLeftCtrlRelease  = scLeftCtrlRelease
	ScancodeLeftAltPress     = scLeftAltPress
	ScancodeLeftAltRelease   = scLeftAltRelease
	ScancodeCapsLockPress    = scCapsLockPress
	ScancodeF1               = scF1
	ScancodeF2               = scF2
	ScancodeF3               = scF3
)

// buildReverse inverts one of the four scancode->char tables, first
// scancode wins on a collision (none of the four tables have one, but a
// deterministic rule is cheap insurance).
func buildReverse(table [tableSize]byte) map[byte]uint32 {
	m := make(map[byte]uint32, tableSize)
	for sc, c := range table {
		if c == 0 {
			continue
		}
		if _, exists := m[c]; !exists {
			m[c] = uint32(sc)
		}
	}
	return m
}

var (
	reversePlain   = buildReverse(keysTable)
	reverseShifted = buildReverse(shiftedTable)
)

// ScancodeForASCII returns the scancode that decodes to c under either no
// modifiers or Shift alone, and reports which. ok is false for bytes
// neither table produces (most control characters besides '\n' and
// '\b'); such bytes have no PS/2 stimulus and the caller should drop
// them rather than guess.
func ScancodeForASCII(c byte) (scancode uint32, shiftNeeded bool, ok bool) {
	if sc, found := reversePlain[c]; found {
		return sc, false, true
	}
	if sc, found := reverseShifted[c]; found {
		return sc, true, true
	}
	return 0, false, false
}
