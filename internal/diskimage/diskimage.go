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

// Package diskimage parses the read-only on-disk filesystem image: a boot
// block, an inode table and a data-block region laid out contiguously in
// a byte slice. See spec.md §3 and §6 for the exact layout.
package diskimage

import (
	"encoding/binary"
	"fmt"

	"github.com/jacobsa/syncutil"
)

// BlockSize is the fixed size in bytes of the boot block, of one inode's
// on-disk record, and of one data block.
const BlockSize = 4096

// MaxFilenameLen is the hard cap on a dentry's filename, matching the
// fixed-width on-disk record (spec.md §3, §6).
const MaxFilenameLen = 32

// MaxDentries bounds how many directory entries may be inlined in the
// boot block. The boot block header reserves room for exactly this many
// 64-byte records within its 4096-byte page.
const MaxDentries = (BlockSize - bootHeaderSize) / dentrySize

// maxDataBlocksPerInode is the number of uint32 block indices that fit in
// one inode record after its 4-byte length field, i.e. (4096-4)/4.
const maxDataBlocksPerInode = 1023

const (
	bootHeaderSize = 64
	dentrySize     = 64
)

// FileType identifies what a directory entry names.
type FileType int

const (
	// RTCFile names the real-time-clock device. It has no backing data
	// and is handled by an out-of-scope external collaborator; see
	// fsops's Rtc vtable.
	RTCFile FileType = 0
	// DirFile names a directory.
	DirFile FileType = 1
	// RegularFile names a regular file with byte contents in the data
	// block region.
	RegularFile FileType = 2
)

func (t FileType) String() string {
	switch t {
	case RTCFile:
		return "rtc"
	case DirFile:
		return "dir"
	case RegularFile:
		return "file"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Dentry is a directory entry: a filename (never more than
// MaxFilenameLen bytes, not NUL-terminated when exactly that long), the
// type of file it names, and the index of its backing inode.
type Dentry struct {
	Name  string
	Type  FileType
	Inode uint32
}

// Inode is a file's metadata: its length in bytes and the list of
// data-block indices that back it.
type Inode struct {
	Length uint32
	Blocks []uint32
}

// DiskImage is a read-only view over a fixed, immutable byte slice laid
// out per spec.md §6. All methods are safe for concurrent use: the
// underlying bytes never change after New, and the only mutable state
// (the inode busy map and the in-RAM appended dentries) is guarded by an
// InvariantMutex.
type DiskImage struct {
	raw []byte

	rawNumDentries uint32 // D as recorded on disk; immutable after New
	numInodes      uint32
	numDataBlocks  uint32
	dataBlockStart int // byte offset of data block 0 within raw

	// mu guards busy and appended, the only mutable metadata. Both are
	// written only by AppendDentry (spec.md §4.2.1) and RemoveDentry;
	// ordinary reads never take the write lock.
	mu       syncutil.InvariantMutex
	busy     []bool   // GUARDED_BY(mu); busy[i] iff inode i is referenced by a dentry
	appended []Dentry // GUARDED_BY(mu); dentries appended past rawNumDentries
}

// New parses raw as a disk image per spec.md §6. raw must remain valid
// and unmodified for the lifetime of the returned DiskImage.
func New(raw []byte) (*DiskImage, error) {
	if len(raw) < BlockSize {
		return nil, fmt.Errorf("diskimage: image too small: %d bytes", len(raw))
	}

	d := &DiskImage{raw: raw}
	d.rawNumDentries = binary.LittleEndian.Uint32(raw[0:4])
	d.numInodes = binary.LittleEndian.Uint32(raw[4:8])
	d.numDataBlocks = binary.LittleEndian.Uint32(raw[8:12])
	d.dataBlockStart = BlockSize * (1 + int(d.numInodes))

	if d.rawNumDentries > MaxDentries {
		return nil, fmt.Errorf("diskimage: %d dentries exceeds cap %d", d.rawNumDentries, MaxDentries)
	}
	need := d.dataBlockStart + int(d.numDataBlocks)*BlockSize
	if len(raw) < need {
		return nil, fmt.Errorf("diskimage: image truncated: have %d bytes, need %d", len(raw), need)
	}

	d.busy = make([]bool, d.numInodes)
	for i := uint32(0); i < d.rawNumDentries; i++ {
		dentry := d.rawDentryAt(i)
		if dentry.Inode < uint32(len(d.busy)) {
			d.busy[dentry.Inode] = true
		}
	}

	d.mu = syncutil.NewInvariantMutex(d.checkInvariants)
	return d, nil
}

func (d *DiskImage) checkInvariants() {
	if len(d.busy) != int(d.numInodes) {
		panic(fmt.Sprintf("diskimage: busy map length %d does not match numInodes %d", len(d.busy), d.numInodes))
	}
}

// NumDentries returns D, the number of directory entries currently known
// to the image (mutable only via AppendDentry and RemoveDentry).
func (d *DiskImage) NumDentries() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rawNumDentries + uint32(len(d.appended))
}

// NumInodes returns N, the fixed number of inodes in the image.
func (d *DiskImage) NumInodes() uint32 {
	return d.numInodes
}

// dentryAt returns the i'th dentry, consulting the in-RAM appended
// overlay for indices past the original on-disk count. Caller must hold
// d.mu for reading (or rely on the fact that rawDentryAt alone needs no
// lock).
func (d *DiskImage) dentryAt(i uint32) Dentry {
	if i >= d.rawNumDentries {
		return d.appended[i-d.rawNumDentries]
	}
	return d.rawDentryAt(i)
}

func (d *DiskImage) rawDentryAt(i uint32) Dentry {
	off := bootHeaderSize + int(i)*dentrySize
	rec := d.raw[off : off+dentrySize]

	nameBytes := rec[0:MaxFilenameLen]
	n := MaxFilenameLen
	for j, b := range nameBytes {
		if b == 0 {
			n = j
			break
		}
	}

	return Dentry{
		Name:  string(nameBytes[:n]),
		Type:  FileType(binary.LittleEndian.Uint32(rec[32:36])),
		Inode: binary.LittleEndian.Uint32(rec[36:40]),
	}
}

// ReadDentryByName looks up a directory entry by filename, comparing with
// limit = min(len(name), MaxFilenameLen) as spec.md §4.1 requires. It
// returns ErrNotFound if name is empty, longer than MaxFilenameLen, or
// matches nothing.
func (d *DiskImage) ReadDentryByName(name string) (Dentry, error) {
	if len(name) == 0 || len(name) > MaxFilenameLen {
		return Dentry{}, ErrNotFound
	}

	limit := len(name)
	if limit > MaxFilenameLen {
		limit = MaxFilenameLen
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	n := d.rawNumDentries + uint32(len(d.appended))
	for i := uint32(0); i < n; i++ {
		cand := d.dentryAt(i)
		candLimit := len(cand.Name)
		if candLimit > MaxFilenameLen {
			candLimit = MaxFilenameLen
		}
		if candLimit == limit && cand.Name[:candLimit] == name[:limit] {
			return cand, nil
		}
	}
	return Dentry{}, ErrNotFound
}

// ReadDentryByIndex returns a copy of the i'th directory entry, or
// ErrOutOfRange if i >= NumDentries().
func (d *DiskImage) ReadDentryByIndex(i uint32) (Dentry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i >= d.rawNumDentries+uint32(len(d.appended)) {
		return Dentry{}, ErrOutOfRange
	}
	return d.dentryAt(i), nil
}

// ReadInode returns a copy of inode i's metadata, or ErrInvalidInode if
// i >= NumInodes().
func (d *DiskImage) ReadInode(i uint32) (Inode, error) {
	if i >= d.numInodes {
		return Inode{}, ErrInvalidInode
	}

	off := BlockSize * (1 + int(i))
	rec := d.raw[off : off+BlockSize]

	length := binary.LittleEndian.Uint32(rec[0:4])
	numBlocks := (int(length) + BlockSize - 1) / BlockSize
	if numBlocks > maxDataBlocksPerInode {
		numBlocks = maxDataBlocksPerInode
	}

	blocks := make([]uint32, numBlocks)
	for j := 0; j < numBlocks; j++ {
		o := 4 + j*4
		blocks[j] = binary.LittleEndian.Uint32(rec[o : o+4])
	}

	return Inode{Length: length, Blocks: blocks}, nil
}

// ReadData reads up to len(buf) bytes of inode i's contents starting at
// offset into buf. It implements the exact clamping rules of spec.md
// §4.1: 0 is a valid result (offset at or past EOF, or an empty buf),
// never an error, once
// the inode itself is valid.
func (d *DiskImage) ReadData(i uint32, offset uint32, buf []byte) (int, error) {
	inode, err := d.ReadInode(i)
	if err != nil {
		return 0, err
	}

	if offset >= inode.Length || len(buf) == 0 {
		return 0, nil
	}

	length := uint32(len(buf))
	if remaining := inode.Length - offset; length > remaining {
		length = remaining
	}
	if length == 0 {
		return 0, nil
	}

	startBlockIdx := int(offset / BlockSize)
	startBlockOff := int(offset % BlockSize)

	copied := 0
	remaining := int(length)
	blockIdx := startBlockIdx
	blockOff := startBlockOff
	for remaining > 0 {
		if blockIdx >= len(inode.Blocks) {
			break
		}
		block := int(inode.Blocks[blockIdx])
		base := d.dataBlockStart + block*BlockSize
		n := BlockSize - blockOff
		if n > remaining {
			n = remaining
		}
		copy(buf[copied:copied+n], d.raw[base+blockOff:base+blockOff+n])

		copied += n
		remaining -= n
		blockIdx++
		blockOff = 0
	}

	return copied, nil
}

// RemoveDentry frees the inode backing the named dentry and drops it
// from the in-RAM overlay, the mirror image of AppendDentry. Because the
// backing image's on-disk dentry records have no tombstone or
// compaction mechanism, this only removes dentries that were themselves
// appended in-RAM during this boot -- an original on-disk dentry cannot
// be un-appended, and RemoveDentry reports ErrNotFound for one rather
// than silently leaving a stale entry behind. This mirrors §4.2.1's own
// "specified but explicitly fragile" framing: the feature exists for a
// create-then-remove session, not general deletion.
func (d *DiskImage) RemoveDentry(name string) error {
	if len(name) == 0 || len(name) > MaxFilenameLen {
		return ErrNotFound
	}
	limit := len(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	for i := len(d.appended) - 1; i >= 0; i-- {
		cand := d.appended[i]
		candLimit := len(cand.Name)
		if candLimit > MaxFilenameLen {
			candLimit = MaxFilenameLen
		}
		if candLimit == limit && cand.Name[:candLimit] == name[:limit] {
			d.busy[cand.Inode] = false
			d.appended = append(d.appended[:i], d.appended[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// AppendDentry implements the directory-append path of spec.md §4.2.1: it
// searches the inode busy map for the first free inode, and if one
// exists, appends a new dentry of the given name and type bound to that
// inode, bumping D. It mutates only in-RAM metadata -- never the backing
// image.
//
// Per the Open Question resolution in SPEC_FULL.md §5, when no free
// inode exists this returns ErrNoFreeInode having performed no mutation
// at all: neither the busy map nor D change on the failure path, unlike
// the original C source's ordering.
func (d *DiskImage) AppendDentry(name string, typ FileType) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	inode := -1
	for i, b := range d.busy {
		if !b {
			inode = i
			break
		}
	}
	if inode < 0 {
		return 0, ErrNoFreeInode
	}

	d.busy[inode] = true
	d.appended = append(d.appended, Dentry{Name: name, Type: typ, Inode: uint32(inode)})
	return uint32(inode), nil
}
