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

// Package fsops implements the per-process file descriptor table and the
// four file-type operation vtables described in spec.md §4.2: Regular,
// Directory, Terminal and RTC. Rather than the original C kernel's
// function-pointer struct (dynamic inheritance over a single
// file_operations_t), each descriptor carries a Kind tag plus an Ops
// implementation -- the tagged-variant redesign spec.md §9 calls for.
package fsops

import "golang.org/x/net/context"

// Kind identifies which of the four vtables a descriptor was opened
// against.
type Kind int

const (
	KindRegular Kind = iota
	KindDirectory
	KindTerminal
	KindRTC
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindDirectory:
		return "directory"
	case KindTerminal:
		return "terminal"
	case KindRTC:
		return "rtc"
	default:
		return "unknown"
	}
}

// Ops is the shared operation set every file type implements. Open
// receives the name the caller asked to open (ignored by Terminal and
// RTC) and returns the state a descriptor should
// carry forward as OpenState; Read/Write/Close are later called with
// that same state.
type Ops interface {
	Open(ctx context.Context, name string) (OpenState, error)
	Read(ctx context.Context, state OpenState, pos *uint32, buf []byte) (int, error)
	Write(ctx context.Context, state OpenState, buf []byte) (int, error)
	Close(ctx context.Context, state OpenState) error
}

// OpenState is per-descriptor state produced by Ops.Open and threaded
// back through Read/Write/Close -- e.g. a Regular descriptor's resolved
// inode number. A Directory descriptor's state is empty; its dentry
// index is the descriptor's position. It is opaque
// to FileTable; only the owning Ops implementation type-asserts it.
type OpenState interface{}
