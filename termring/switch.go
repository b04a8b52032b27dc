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

import "github.com/jacobsa/ece391kernel/kernelctx"

// PagingHook is the out-of-scope paging subsystem's contract (spec.md
// §1): remapping a process's view of video memory to either the live
// framebuffer or a background save buffer. A real boot wires this to
// the page-table updater; tests use a no-op stub.
type PagingHook interface {
	// RemapVideoMemory is called once with the terminal whose mapping
	// should now be considered "the visible one" for page-table
	// purposes.
	RemapVideoMemory(term int)
}

type noopPaging struct{}

func (noopPaging) RemapVideoMemory(int) {}

// NoopPagingHook is a PagingHook that does nothing, for use where no
// paging subsystem is wired up (unit tests, non-graphical CLI mode).
func NoopPagingHook() PagingHook { return noopPaging{} }

// Switch implements spec.md §4.3's terminal_switch. It is a no-op if
// newTerm equals the current terminal or is out of range. Otherwise it
// rotates the visible framebuffer into newTerm's place, restores
// newTerm's saved cursor, and updates kernelctx's selectors -- setting
// the visible terminal last, so that an in-flight keystroke sees exactly
// one value of cur_terminal for its whole handler invocation (spec.md
// §5's atomicity guarantee).
func (r *Ring) Switch(k *kernelctx.Kernel, paging PagingHook, newTerm int) {
	if newTerm < 0 || newTerm >= len(r.terms) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if newTerm == r.curTerm {
		return
	}

	paging.RemapVideoMemory(r.curTerm)

	oldTerm := r.terms[r.curTerm]
	newTermState := r.terms[newTerm]

	oldTerm.background = r.echoTarget.Snapshot()
	r.echoTarget.Restore(newTermState.background)

	x, y := newTermState.Cursor()
	r.echoTarget.MoveCursor(x, y)

	r.curTerm = newTerm
	k.SetVisibleTerminal(newTerm)

	paging.RemapVideoMemory(k.ScheduledTerminal())
}
