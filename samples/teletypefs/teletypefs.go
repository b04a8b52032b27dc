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

// Package teletypefs wires internal/diskimage and fsops together into
// the one filesystem every process in this tree shares: a single
// read-mostly image, opened by name through whichever vtable matches
// the dentry's type. It plays the role samples/roloopbackfs plays for
// jacobsa/fuse -- a small, complete reference filesystem built from the
// package's own public pieces, used by both tests and cmd/ece391shell.
package teletypefs

import (
	"context"
	"fmt"

	"github.com/jacobsa/ece391kernel/fsops"
	"github.com/jacobsa/ece391kernel/internal/diskimage"
)

// FS bundles a loaded disk image with the vtables that read it, so
// callers don't need to separately construct a Regular/Directory/Rtc for
// every open.
type FS struct {
	img       *diskimage.DiskImage
	regular   *fsops.Regular
	directory *fsops.Directory
	rtc       *fsops.Rtc
}

// New loads raw as a disk image and returns an FS ready to serve Open
// calls. rtcDriver may be nil; see fsops.NewRtc.
func New(raw []byte, rtcDriver fsops.RTCDriver) (*FS, error) {
	img, err := diskimage.New(raw)
	if err != nil {
		return nil, fmt.Errorf("teletypefs: %w", err)
	}
	return &FS{
		img:       img,
		regular:   fsops.NewRegular(img),
		directory: fsops.NewDirectory(img),
		rtc:       fsops.NewRtc(rtcDriver),
	}, nil
}

// Image returns the underlying DiskImage.
func (fs *FS) Image() *diskimage.DiskImage { return fs.img }

// Resolve looks up name's dentry and returns the Kind and Ops a caller
// should pass to fsops.FileTable.Open to open it -- the one decision
// FileTable itself does not make, since it has no notion of "what kind
// of thing does this name refer to".
func (fs *FS) Resolve(ctx context.Context, name string) (fsops.Kind, fsops.Ops, error) {
	dentry, err := fs.img.ReadDentryByName(name)
	if err != nil {
		return 0, nil, fsops.ErrNotFound
	}
	switch dentry.Type {
	case diskimage.RegularFile:
		return fsops.KindRegular, fs.regular, nil
	case diskimage.DirFile:
		return fsops.KindDirectory, fs.directory, nil
	case diskimage.RTCFile:
		return fsops.KindRTC, fs.rtc, nil
	default:
		return 0, nil, fmt.Errorf("teletypefs: dentry %q has unknown type %v", name, dentry.Type)
	}
}

// Open resolves name and opens it against the right vtable in one step,
// the convenience path cmd/ece391shell's open syscall handler uses.
func (fs *FS) Open(ctx context.Context, table *fsops.FileTable, name string) (int, error) {
	kind, ops, err := fs.Resolve(ctx, name)
	if err != nil {
		return 0, err
	}
	return table.Open(ctx, kind, ops, name)
}

// Remove deletes name, the path cmd/ece391shell's `rm` built-in uses --
// see fsops.Directory.RemoveDentry for what this can and cannot remove.
func (fs *FS) Remove(name string) error {
	return fs.directory.RemoveDentry(name)
}
