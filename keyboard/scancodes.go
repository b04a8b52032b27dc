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

// Package keyboard decodes PS/2 Set 1 scancodes (spec.md §4.4) into the
// line-discipline and hotkey events the rest of the kernel reacts to: a
// printable character fed to termring.Ring.HandleKeystroke, a terminal
// switch, a screen clear, or an interrupt signal.
package keyboard

// tableSize is the number of scancodes the four lookup tables cover
// (0x00-0x3A inclusive); everything at or above it -- function keys,
// keypad, released modifiers -- is handled before the table lookup or
// ignored.
const tableSize = 0x3B

// Named scancodes for the keys the decoder treats specially, per
// student-distrib/keyboard.c's is_modifier and the Alt+F# branch (the
// values themselves come from the standard PS/2 Set 1 table; keyboard.h
// itself was not part of the retrieval pack).
const (
	scLeftCtrlPress    = 0x1D
	scLeftCtrlRelease  = 0x9D
	scLeftShiftPress   = 0x2A
	scLeftShiftRelease = 0xAA
	scRightShiftPress  = 0x36
	scRightShiftRelease = 0xB6
	scLeftAltPress     = 0x38
	scLeftAltRelease   = 0xB8
	scCapsLockPress    = 0x3A

	scF1 = 0x3B
	scF2 = 0x3C
	scF3 = 0x3D
)

// keysTable is the unmodified lower-case/number-row mapping.
var keysTable = [tableSize]byte{
	0x0, 0x0, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0',
	'-', '=', '\b', 0x0, 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i',
	'o', 'p', '[', ']', '\n', 0x0, 'a', 's', 'd', 'f', 'g', 'h',
	'j', 'k', 'l', ';', '\'', '`', 0x0, '\\',
	'z', 'x', 'c', 'v', 'b', 'n', 'm',
	',', '.', '/', 0x0, 0x0, 0x0, ' ', 0x0,
}

// shiftedTable is keysTable with Shift held.
var shiftedTable = [tableSize]byte{
	0x0, 0x0, '!', '@', '#', '$', '%', '^', '&', '*', '(', ')',
	'_', '+', '\b', 0x0, 'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I',
	'O', 'P', '{', '}', '\n', 0x0, 'A', 'S', 'D', 'F', 'G', 'H',
	'J', 'K', 'L', ':', '"', '~', 0x0, '|',
	'Z', 'X', 'C', 'V', 'B', 'N', 'M',
	'<', '>', '?', 0x0, 0x0, 0x0, ' ', 0x0,
}

// capsTable is keysTable with Caps Lock on: letters shift, but the
// number row and punctuation do not (matching a real keyboard's Caps
// Lock, which only affects letters).
var capsTable = [tableSize]byte{
	0x0, 0x0, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0',
	'-', '=', '\b', 0x0, 'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I',
	'O', 'P', '[', ']', '\n', 0x0, 'A', 'S', 'D', 'F', 'G', 'H',
	'J', 'K', 'L', ';', '\'', '`', 0x0, '\\',
	'Z', 'X', 'C', 'V', 'B', 'N', 'M',
	',', '.', '/', 0x0, 0x0, 0x0, ' ', 0x0,
}

// capsShiftedTable is keysTable with both Caps Lock and Shift held:
// Caps Lock's effect on letters cancels Shift's, so letters fall back to
// lower-case while the number row and punctuation still shift.
var capsShiftedTable = [tableSize]byte{
	0x0, 0x0, '!', '@', '#', '$', '%', '^', '&', '*', '(', ')',
	'_', '+', '\b', 0x0, 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i',
	'o', 'p', '{', '}', '\n', 0x0, 'a', 's', 'd', 'f', 'g', 'h',
	'j', 'k', 'l', ':', '"', '~', 0x0, '|',
	'z', 'x', 'c', 'v', 'b', 'n', 'm',
	'<', '>', '?', 0x0, 0x0, 0x0, ' ', 0x0,
}
