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

package fsops

import (
	"context"
	"fmt"

	"github.com/jacobsa/syncutil"

	"github.com/jacobsa/ece391kernel/internal/trace"
)

// MaxFiles is the fixed number of descriptor slots a process owns
// (spec.md §3).
const MaxFiles = 8

// FileDescriptor is one process's open-file handle: an operations
// vtable, the per-type state Open produced, a monotonically
// non-decreasing position for regular files, and a set of open flags.
type FileDescriptor struct {
	kind     Kind
	ops      Ops
	state    OpenState
	position uint32
	flags    uint32
	inUse    bool
}

// Kind reports which vtable this descriptor was opened against.
func (fd *FileDescriptor) Kind() Kind { return fd.kind }

// Position returns the descriptor's current file position.
func (fd *FileDescriptor) Position() uint32 { return fd.position }

// FileTable is a single process's array of MaxFiles descriptor slots.
// Slots 0 and 1 are pre-bound to the terminal read/write vtable at
// process creation, matching spec.md §4.2.
type FileTable struct {
	mu   syncutil.InvariantMutex
	fds  [MaxFiles]FileDescriptor
	term Ops // the vtable bound into slots 0 and 1
}

// NewFileTable returns a FileTable with slots 0 and 1 opened against
// termOps (the owning process's controlling terminal).
func NewFileTable(ctx context.Context, termOps Ops) (*FileTable, error) {
	t := &FileTable{term: termOps}
	t.mu = syncutil.NewInvariantMutex(t.checkInvariants)

	for i := 0; i < 2; i++ {
		state, err := termOps.Open(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("fsops: binding stdio slot %d: %w", i, err)
		}
		t.fds[i] = FileDescriptor{kind: KindTerminal, ops: termOps, state: state, inUse: true}
	}
	return t, nil
}

func (t *FileTable) checkInvariants() {
	for i := 0; i < 2; i++ {
		if !t.fds[i].inUse || t.fds[i].kind != KindTerminal {
			panic(fmt.Sprintf("fsops: slot %d must stay bound to the terminal vtable", i))
		}
	}
}

// Open finds a free slot (2..MaxFiles-1), calls ops.Open(name) and binds
// the slot to the result. It returns ErrNoFreeFD if every slot is in
// use.
func (t *FileTable) Open(ctx context.Context, kind Kind, ops Ops, name string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := -1
	for i := 2; i < MaxFiles; i++ {
		if !t.fds[i].inUse {
			slot = i
			break
		}
	}
	if slot < 0 {
		return 0, ErrNoFreeFD
	}

	state, err := ops.Open(ctx, name)
	if err != nil {
		return 0, err
	}

	t.fds[slot] = FileDescriptor{kind: kind, ops: ops, state: state, inUse: true}
	return slot, nil
}

// Read reads from fd at its current position and lets the vtable advance
// it: a regular file by the number of bytes returned (spec.md §3's
// "file_position is monotonically non-decreasing" invariant), a
// directory by one dentry per call; terminal reads leave it unchanged.
func (t *FileTable) Read(ctx context.Context, fd int, buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, err := t.slot(fd)
	if err != nil {
		return 0, err
	}

	_, report := trace.Span(ctx, fmt.Sprintf("fsops.FileTable.Read(fd=%d)", fd))
	n, err := d.ops.Read(ctx, d.state, &d.position, buf)
	report(err)
	return n, err
}

// Write writes buf to fd via its vtable. Regular-file writes always fail
// with ErrReadOnly; directory writes implement the append path
// (spec.md §4.2.1); terminal writes echo to the screen.
func (t *FileTable) Write(ctx context.Context, fd int, buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, err := t.slot(fd)
	if err != nil {
		return 0, err
	}

	_, report := trace.Span(ctx, fmt.Sprintf("fsops.FileTable.Write(fd=%d)", fd))
	n, err := d.ops.Write(ctx, d.state, buf)
	report(err)
	return n, err
}

// Close releases fd back to the free pool. Slots 0 and 1 cannot be
// closed, matching the kernel's assumption that every process always has
// a controlling terminal.
func (t *FileTable) Close(ctx context.Context, fd int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fd < 2 {
		return ErrInvalidArgs
	}
	d, err := t.slot(fd)
	if err != nil {
		return err
	}
	if err := d.ops.Close(ctx, d.state); err != nil {
		return err
	}
	t.fds[fd] = FileDescriptor{}
	return nil
}

// slot returns a pointer to fd's descriptor, or ErrBadFD if out of range
// or not open.
func (t *FileTable) slot(fd int) (*FileDescriptor, error) {
	if fd < 0 || fd >= MaxFiles || !t.fds[fd].inUse {
		return nil, ErrBadFD
	}
	return &t.fds[fd], nil
}
