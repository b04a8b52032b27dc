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

package diskimage_test

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/jacobsa/ece391kernel/internal/diskimage"
	"github.com/kylelemons/godebug/pretty"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestDiskImage(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Suite
////////////////////////////////////////////////////////////////////////

type DiskImageTest struct {
	img *diskimage.DiskImage
}

func init() { RegisterTestSuite(&DiskImageTest{}) }

func (t *DiskImageTest) SetUp(ti *TestInfo) {
	frame0 := []byte("HELLO\n" + strings.Repeat("x", 6174))
	AssertEq(6180, len(frame0))

	raw, err := diskimage.Encode(diskimage.BuildSpec{
		Files: []diskimage.BuildFile{
			{Name: "frame0.txt", Type: diskimage.RegularFile, Data: frame0},
			{Name: "a", Type: diskimage.RegularFile, Data: []byte("A")},
			{Name: "bb", Type: diskimage.RegularFile, Data: []byte("BB")},
			{Name: "ccc", Type: diskimage.RegularFile, Data: []byte("CCC")},
		},
	})
	AssertEq(nil, err)

	t.img, err = diskimage.New(raw)
	AssertEq(nil, err)
}

// S1: read a known file.
func (t *DiskImageTest) ReadsKnownFile() {
	dentry, err := t.img.ReadDentryByName("frame0.txt")
	AssertEq(nil, err)
	ExpectEq(diskimage.RegularFile, dentry.Type)

	buf := make([]byte, 6)
	n, err := t.img.ReadData(dentry.Inode, 0, buf)
	AssertEq(nil, err)
	ExpectEq(6, n)
	ExpectTrue(bytes.Equal([]byte("HELLO\n"), buf))

	buf = make([]byte, 10000)
	n, err = t.img.ReadData(dentry.Inode, 6, buf)
	AssertEq(nil, err)
	ExpectEq(6180-6, n)
}

// S2: directory enumeration order and lengths.
func (t *DiskImageTest) EnumeratesDentriesInOrder() {
	lens := []int{}
	for i := uint32(1); i < t.img.NumDentries(); i++ {
		d, err := t.img.ReadDentryByIndex(i)
		AssertEq(nil, err)
		lens = append(lens, len(d.Name))
	}
	ExpectThat(lens, ElementsAre(1, 2, 3))
}

// ReadDentryByName and ReadDentryByIndex must agree on every field for a
// given entry; pretty.Compare catches a divergence in any one of them
// instead of needing a separate ExpectEq per field, the way
// fs/loopback_test.go diffs whole structs rather than field by field.
func (t *DiskImageTest) ByNameAndByIndexAgree() {
	byIndex, err := t.img.ReadDentryByIndex(1)
	AssertEq(nil, err)

	byName, err := t.img.ReadDentryByName(byIndex.Name)
	AssertEq(nil, err)

	ExpectEq("", pretty.Compare(byIndex, byName))
}

func (t *DiskImageTest) UnknownNameIsNotFound() {
	_, err := t.img.ReadDentryByName("nope")
	ExpectEq(diskimage.ErrNotFound, err)
}

func (t *DiskImageTest) EmptyOrOversizeNameIsNotFound() {
	_, err := t.img.ReadDentryByName("")
	ExpectEq(diskimage.ErrNotFound, err)

	_, err = t.img.ReadDentryByName(strings.Repeat("q", 33))
	ExpectEq(diskimage.ErrNotFound, err)
}

func (t *DiskImageTest) IndexOutOfRange() {
	_, err := t.img.ReadDentryByIndex(t.img.NumDentries())
	ExpectEq(diskimage.ErrOutOfRange, err)
}

func (t *DiskImageTest) InvalidInode() {
	_, err := t.img.ReadData(t.img.NumInodes(), 0, make([]byte, 1))
	ExpectEq(diskimage.ErrInvalidInode, err)
}

// S6: read past EOF in three successive calls.
func (t *DiskImageTest) ReadPastEOF() {
	raw, err := diskimage.Encode(diskimage.BuildSpec{
		Files: []diskimage.BuildFile{
			{Name: "f", Type: diskimage.RegularFile, Data: bytes.Repeat([]byte{'z'}, 100)},
		},
	})
	AssertEq(nil, err)
	img, err := diskimage.New(raw)
	AssertEq(nil, err)

	buf := make([]byte, 40)
	n, err := img.ReadData(0, 0, buf)
	AssertEq(nil, err)
	ExpectEq(40, n)

	buf = make([]byte, 80)
	n, err = img.ReadData(0, 40, buf)
	AssertEq(nil, err)
	ExpectEq(60, n)

	buf = make([]byte, 1)
	n, err = img.ReadData(0, 100, buf)
	AssertEq(nil, err)
	ExpectEq(0, n)
}

func (t *DiskImageTest) RemoveDentryFreesTheInodeForReuse() {
	// A hand-built image with D=0, N=1: one spare inode and no dentries,
	// since diskimage.Encode always ties every inode to a dentry one to
	// one and so can never produce a fixture with a free inode on its
	// own.
	raw := make([]byte, diskimage.BlockSize*2)
	binary.LittleEndian.PutUint32(raw[0:4], 0) // D
	binary.LittleEndian.PutUint32(raw[4:8], 1) // N
	img, err := diskimage.New(raw)
	AssertEq(nil, err)

	inode, err := img.AppendDentry("transient", diskimage.RegularFile)
	AssertEq(nil, err)
	ExpectEq(uint32(1), img.NumDentries())

	AssertEq(nil, img.RemoveDentry("transient"))
	ExpectEq(uint32(0), img.NumDentries())

	_, err = img.ReadDentryByName("transient")
	ExpectEq(diskimage.ErrNotFound, err)

	// The freed inode is immediately reusable.
	again, err := img.AppendDentry("transient2", diskimage.RegularFile)
	AssertEq(nil, err)
	ExpectEq(inode, again)
}

func (t *DiskImageTest) RemoveDentryCannotRemoveAnOriginalOnDiskEntry() {
	err := t.img.RemoveDentry("frame0.txt")
	ExpectEq(diskimage.ErrNotFound, err)
}

func (t *DiskImageTest) AppendDentryRejectsBeforeMutatingWhenFull() {
	// Every inode in the fixture is already busy (one file == one
	// dentry == one inode), so the first allocation attempt must fail
	// without bumping D.
	before := t.img.NumDentries()
	_, err := t.img.AppendDentry("new", diskimage.RegularFile)
	ExpectEq(diskimage.ErrNoFreeInode, err)
	ExpectEq(before, t.img.NumDentries())
}

////////////////////////////////////////////////////////////////////////
// Table-driven, stdlib-testing style (mirrors internal/buffer's texture
// in the teacher repo)
////////////////////////////////////////////////////////////////////////

func TestReadDataClampsAcrossBlockBoundary(t *testing.T) {
	data := make([]byte, diskimage.BlockSize+10)
	for i := range data {
		data[i] = byte(i)
	}

	raw, err := diskimage.Encode(diskimage.BuildSpec{
		Files: []diskimage.BuildFile{{Name: "big", Type: diskimage.RegularFile, Data: data}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	img, err := diskimage.New(raw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := []struct {
		offset uint32
		length int
	}{
		{0, diskimage.BlockSize},
		{diskimage.BlockSize - 5, 15},
		{diskimage.BlockSize, 10},
		{diskimage.BlockSize + 5, 10}, // clamped to 5
	}

	for _, c := range cases {
		buf := make([]byte, c.length)
		n, err := img.ReadData(0, c.offset, buf)
		if err != nil {
			t.Fatalf("ReadData(offset=%d): %v", c.offset, err)
		}
		want := c.length
		if int(c.offset)+want > len(data) {
			want = len(data) - int(c.offset)
		}
		if n != want {
			t.Fatalf("ReadData(offset=%d): got %d bytes, want %d", c.offset, n, want)
		}
		if !bytes.Equal(buf[:n], data[c.offset:int(c.offset)+n]) {
			t.Fatalf("ReadData(offset=%d): content mismatch", c.offset)
		}
	}
}
