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

	"github.com/jacobsa/ece391kernel/internal/diskimage"
	"github.com/jacobsa/ece391kernel/internal/trace"
)

// Regular implements Ops for spec.md §4.2's regular-file type: Open
// resolves a name to an inode number via the backing image's dentry
// table, Read streams bytes out of that inode, and Write always fails
// (file_write's unconditional -1, the image is read-only).
type Regular struct {
	img *diskimage.DiskImage
}

// NewRegular returns a Regular vtable backed by img.
func NewRegular(img *diskimage.DiskImage) *Regular {
	return &Regular{img: img}
}

// regularState is Regular's OpenState: the resolved inode number.
type regularState struct {
	inode uint32
}

// Open resolves name to its dentry and records the backing inode,
// matching file_open's read_dentry_by_name call. It fails with
// ErrNotFound if name does not exist, regardless of the dentry's Type --
// spec.md leaves it to the caller to only route KindRegular opens
// through this vtable.
func (r *Regular) Open(ctx context.Context, name string) (OpenState, error) {
	dentry, err := r.img.ReadDentryByName(name)
	if err != nil {
		return nil, ErrNotFound
	}
	return regularState{inode: dentry.Inode}, nil
}

// Read streams up to len(buf) bytes from *pos onward, advancing *pos by
// however many bytes were actually copied (file_read's
// file_position += bytes_copied).
func (r *Regular) Read(ctx context.Context, state OpenState, pos *uint32, buf []byte) (int, error) {
	s, ok := state.(regularState)
	if !ok {
		return 0, ErrInvalidArgs
	}

	_, report := trace.Span(ctx, "diskimage.ReadData")
	n, err := r.img.ReadData(s.inode, *pos, buf)
	report(err)
	if err != nil {
		return 0, err
	}
	*pos += uint32(n)
	return n, nil
}

// Write always fails: the backing image has no facility for modifying a
// regular file's data blocks (file_write's unconditional -1).
func (r *Regular) Write(ctx context.Context, state OpenState, buf []byte) (int, error) {
	return 0, ErrReadOnly
}

// Close is a no-op (file_close always returns 0).
func (r *Regular) Close(ctx context.Context, state OpenState) error {
	return nil
}

var _ Ops = (*Regular)(nil)
