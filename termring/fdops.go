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

import (
	"context"

	"github.com/jacobsa/ece391kernel/fsops"
)

// FDOps adapts a single Terminal, plus the Ring it belongs to (for
// writes, which always target the shared framebuffer rather than a
// particular terminal's line buffer), to fsops.Ops. Every process gets
// its own FDOps bound to its controlling terminal, matching spec.md
// §4.2's terminal file type; Open ignores the name argument entirely,
// per terminal_open's C counterpart.
type FDOps struct {
	ring *Ring
	term *Terminal
}

// NewFDOps returns an Ops implementation over term, writing through
// ring's shared framebuffer.
func NewFDOps(ring *Ring, term *Terminal) *FDOps {
	return &FDOps{ring: ring, term: term}
}

// terminalState is FDOps's OpenState; it carries nothing because a
// terminal descriptor has no per-open state beyond the Terminal itself,
// but a named type keeps the Ops contract explicit about what Read/Write
// expect to receive back.
type terminalState struct{}

// Open always succeeds; name is ignored (spec.md §4.2: terminal_open
// takes a filename argument purely for vtable-signature uniformity).
func (o *FDOps) Open(ctx context.Context, name string) (fsops.OpenState, error) {
	return terminalState{}, nil
}

// Read blocks until Enter is pressed on o.term's line buffer, per
// TerminalRead. pos is accepted for Ops-interface uniformity but is not
// advanced: terminal reads are not seekable, matching the original
// kernel leaving the fd's file_position untouched for stdin.
func (o *FDOps) Read(ctx context.Context, state fsops.OpenState, pos *uint32, buf []byte) (int, error) {
	return o.term.TerminalRead(ctx, buf)
}

// Write echoes buf to the shared framebuffer via the owning Ring.
func (o *FDOps) Write(ctx context.Context, state fsops.OpenState, buf []byte) (int, error) {
	return o.ring.TerminalWrite(buf)
}

// Close is a no-op: terminal_close in the original kernel does nothing,
// and FileTable refuses to close slots 0/1 anyway.
func (o *FDOps) Close(ctx context.Context, state fsops.OpenState) error {
	return nil
}

var _ fsops.Ops = (*FDOps)(nil)
