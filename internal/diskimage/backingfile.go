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

package diskimage

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/detailyang/go-fallocate"
)

// BuildFile describes one entry to bake into a synthetic disk image:
// cmd/mkimage and the package's own tests use this instead of hand
// assembling the byte layout from spec.md §6.
type BuildFile struct {
	Name string
	Type FileType
	Data []byte // encoded for every type; RTC and directory entries normally leave it empty
}

// BuildSpec is the full contents of a synthetic disk image, in dentry
// order.
type BuildSpec struct {
	Files []BuildFile
}

// Encode serializes spec into a byte-exact image per spec.md §6: a
// padded boot block, one 4096-byte inode record per file (regardless of
// type, to keep inode indices equal to dentry indices -- the original
// kernel's images are built the same way), followed by the concatenated
// data blocks.
func Encode(spec BuildSpec) ([]byte, error) {
	if len(spec.Files) > MaxDentries {
		return nil, fmt.Errorf("diskimage: %d files exceeds dentry cap %d", len(spec.Files), MaxDentries)
	}
	for _, f := range spec.Files {
		if len(f.Name) > MaxFilenameLen {
			return nil, fmt.Errorf("diskimage: filename %q exceeds %d bytes", f.Name, MaxFilenameLen)
		}
	}

	numInodes := len(spec.Files)

	// Count data blocks up front so we know the image's total size.
	totalDataBlocks := 0
	blocksPerFile := make([]int, numInodes)
	for i, f := range spec.Files {
		n := (len(f.Data) + BlockSize - 1) / BlockSize
		blocksPerFile[i] = n
		totalDataBlocks += n
	}

	size := BlockSize*(1+numInodes) + totalDataBlocks*BlockSize
	buf := make([]byte, size)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(spec.Files)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(numInodes))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(totalDataBlocks))

	nextBlock := 0
	for i, f := range spec.Files {
		// Dentry.
		off := bootHeaderSize + i*dentrySize
		copy(buf[off:off+MaxFilenameLen], f.Name)
		binary.LittleEndian.PutUint32(buf[off+32:off+36], uint32(f.Type))
		binary.LittleEndian.PutUint32(buf[off+36:off+40], uint32(i))

		// Inode.
		inodeOff := BlockSize * (1 + i)
		binary.LittleEndian.PutUint32(buf[inodeOff:inodeOff+4], uint32(len(f.Data)))
		for b := 0; b < blocksPerFile[i]; b++ {
			binary.LittleEndian.PutUint32(buf[inodeOff+4+b*4:inodeOff+8+b*4], uint32(nextBlock+b))
		}

		// Data blocks.
		dataBlockStart := BlockSize * (1 + numInodes)
		for b := 0; b < blocksPerFile[i]; b++ {
			dst := buf[dataBlockStart+(nextBlock+b)*BlockSize:]
			lo := b * BlockSize
			hi := lo + BlockSize
			if hi > len(f.Data) {
				hi = len(f.Data)
			}
			copy(dst, f.Data[lo:hi])
		}
		nextBlock += blocksPerFile[i]
	}

	return buf, nil
}

// WriteFile encodes spec and writes it to path, preallocating the
// backing file to its final byte-exact size first so that partial
// writes never leave behind a sparse file that would misreport its
// length to a later reader.
func WriteFile(path string, spec BuildSpec) error {
	encoded, err := Encode(spec)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fallocate.Fallocate(f, 0, int64(len(encoded))); err != nil {
		return fmt.Errorf("diskimage: fallocate %s: %w", path, err)
	}
	if _, err := f.WriteAt(encoded, 0); err != nil {
		return fmt.Errorf("diskimage: writing %s: %w", path, err)
	}
	return f.Sync()
}
