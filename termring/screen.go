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

package termring

import "sync"

// screenCols and screenRows describe the 80x25 text-mode geometry
// spec.md §6 assumes for VideoSize; each cell is two bytes (character,
// attribute), for 4000 live bytes inside the 4096-byte page.
const (
	screenCols = 80
	screenRows = 25
)

// MemScreen is an in-process stand-in for the VGA text-mode framebuffer:
// it implements EchoSink by keeping the 4KiB cell array in RAM and
// tracking a cursor, without touching any real hardware. cmd/ece391shell
// uses it directly in its non-graphical mode; tests use it exclusively.
type MemScreen struct {
	mu    sync.Mutex
	cells [VideoSize]byte
	x, y  int
}

// NewMemScreen returns a cleared screen with the cursor at the origin.
func NewMemScreen() *MemScreen {
	s := &MemScreen{}
	s.clearLocked()
	return s
}

func (s *MemScreen) clearLocked() {
	for i := 0; i < VideoSize; i += 2 {
		s.cells[i] = ' '
		s.cells[i+1] = 0x07 // light grey on black, the conventional default attribute
	}
	s.x, s.y = 0, 0
}

func (s *MemScreen) cellOffset(x, y int) int { return (y*screenCols + x) * 2 }

// scrollLocked shifts every row up by one and blanks the last row, the
// same behavior a real putc falls back to when y runs off the bottom.
func (s *MemScreen) scrollLocked() {
	rowBytes := screenCols * 2
	copy(s.cells[:], s.cells[rowBytes:])
	for i := VideoSize - rowBytes; i < VideoSize; i += 2 {
		s.cells[i] = ' '
		s.cells[i+1] = 0x07
	}
	s.y = screenRows - 1
}

// PutC renders one character and advances the cursor, wrapping at the
// right edge and scrolling at the bottom; '\n' moves to the start of the
// next line and '\b' erases the previous cell in place.
func (s *MemScreen) PutC(c byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c {
	case '\n':
		s.x = 0
		s.y++
	case '\b':
		if s.x == 0 && s.y == 0 {
			break
		}
		if s.x == 0 {
			s.x = screenCols - 1
			s.y--
		} else {
			s.x--
		}
		off := s.cellOffset(s.x, s.y)
		s.cells[off] = ' '
	default:
		off := s.cellOffset(s.x, s.y)
		s.cells[off] = c
		s.cells[off+1] = 0x07
		s.x++
		if s.x >= screenCols {
			s.x = 0
			s.y++
		}
	}
	if s.y >= screenRows {
		s.scrollLocked()
	}
}

// Clear blanks the screen and homes the cursor.
func (s *MemScreen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// MoveCursor places the cursor at (x, y) without touching cell contents.
func (s *MemScreen) MoveCursor(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y = x, y
}

// Position returns the cursor's current (x, y).
func (s *MemScreen) Position() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

// Snapshot copies out the full 4KiB cell array.
func (s *MemScreen) Snapshot() [VideoSize]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells
}

// Restore overwrites the cell array with frame's contents. The cursor is
// left alone; callers reposition it separately (Ring.Switch does, via
// the restored terminal's saved Cursor()).
func (s *MemScreen) Restore(frame [VideoSize]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = frame
}

var _ EchoSink = (*MemScreen)(nil)
