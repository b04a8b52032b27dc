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
	"errors"

	"golang.org/x/sys/unix"
)

// Sentinel errors surfaced by the per-type vtables, per spec.md §7's
// error taxonomy. Callers translate these to -1 at the syscall boundary;
// they are never thrown across layers.
var (
	ErrNotFound       = errors.New("fsops: no such file")
	ErrInvalidArgs    = errors.New("fsops: invalid arguments")
	ErrReadOnly       = errors.New("fsops: file system is read-only")
	ErrNoFreeInode    = errors.New("fsops: no free inode for directory append")
	ErrNoFreeFD       = errors.New("fsops: no free file descriptor")
	ErrBadFD          = errors.New("fsops: file descriptor not open")
	ErrNotImplemented = errors.New("fsops: operation not implemented for this file type")
)

// Errno maps a sentinel above to its nearest POSIX errno, the way a real
// syscall return value would encode it. This mirrors the teacher's own
// comparisons against unix.ESRCH/unix.EPERM in fuseops/common_op.go;
// callers that log or report an fsops error (cmd/ece391shell) report this
// alongside it rather than inventing their own numbering.
func Errno(err error) unix.Errno {
	switch {
	case errors.Is(err, ErrNotFound):
		return unix.ENOENT
	case errors.Is(err, ErrInvalidArgs):
		return unix.EINVAL
	case errors.Is(err, ErrReadOnly):
		return unix.EROFS
	case errors.Is(err, ErrNoFreeInode):
		return unix.ENOSPC
	case errors.Is(err, ErrNoFreeFD):
		return unix.EMFILE
	case errors.Is(err, ErrBadFD):
		return unix.EBADF
	case errors.Is(err, ErrNotImplemented):
		return unix.ENOSYS
	default:
		return unix.EIO
	}
}
