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

	"github.com/jacobsa/ece391kernel/fsops/fileutil"
	"github.com/jacobsa/ece391kernel/internal/diskimage"
)

// Directory implements Ops for spec.md §4.2's directory type. Read
// enumerates dentries one per call, advancing *pos as a dentry index;
// Write appends a new regular-file dentry (§4.2.1), the one mutating
// path this read-only-feeling filesystem exposes.
type Directory struct {
	img *diskimage.DiskImage
}

// NewDirectory returns a Directory vtable backed by img.
func NewDirectory(img *diskimage.DiskImage) *Directory {
	return &Directory{img: img}
}

type directoryState struct{}

// Open succeeds only if name resolves to a dentry in the image (normally
// "."), returning ErrNotFound otherwise -- dir_open's read-and-discard
// dentry lookup. The dentry's type is not checked.
func (d *Directory) Open(ctx context.Context, name string) (OpenState, error) {
	if _, err := d.img.ReadDentryByName(name); err != nil {
		return nil, ErrNotFound
	}
	return directoryState{}, nil
}

// Read copies the name of the dentry at index *pos into buf (truncated
// to diskimage.MaxFilenameLen, no trailing NUL) and advances *pos by
// one. Once *pos reaches either NumDentries() or MaxFiles, every
// subsequent call returns 0 with no error -- spec.md §4.2 preserves this
// verbatim, quirky MaxFiles cap included.
func (d *Directory) Read(ctx context.Context, state OpenState, pos *uint32, buf []byte) (int, error) {
	if *pos == d.img.NumDentries() || *pos == MaxFiles {
		return 0, nil
	}

	dentry, err := d.img.ReadDentryByIndex(*pos)
	if err != nil {
		return 0, err
	}
	*pos++
	return fileutil.WriteDirentName(buf, dentry.Name), nil
}

// Write appends a new regular-file dentry named buf's contents
// (dir_write's strcpy-from-buf convention), returning ErrNoFreeInode
// without mutating anything if the inode table is full.
func (d *Directory) Write(ctx context.Context, state OpenState, buf []byte) (int, error) {
	name := string(buf)
	if len(name) > diskimage.MaxFilenameLen {
		name = name[:diskimage.MaxFilenameLen]
	}
	if _, err := d.img.AppendDentry(name, diskimage.RegularFile); err != nil {
		return 0, ErrNoFreeInode
	}
	return len(buf), nil
}

// Close is a no-op (dir_close always returns 0).
func (d *Directory) Close(ctx context.Context, state OpenState) error {
	return nil
}

// RemoveDentry removes name from the backing image, per the `rm`
// built-in's needs (SPEC_FULL.md §4's ece391rm supplement). It reports
// ErrNotFound for a name that does not exist or that only exists as an
// original on-disk dentry -- see diskimage.DiskImage.RemoveDentry.
func (d *Directory) RemoveDentry(name string) error {
	if err := d.img.RemoveDentry(name); err != nil {
		return ErrNotFound
	}
	return nil
}

var _ Ops = (*Directory)(nil)
