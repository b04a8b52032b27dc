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

package fsops_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/jacobsa/ece391kernel/fsops"
	"github.com/jacobsa/ece391kernel/internal/diskimage"
	. "github.com/jacobsa/ogletest"
)

func TestFsops(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Suite
////////////////////////////////////////////////////////////////////////

type FsopsTest struct {
	img *diskimage.DiskImage
}

func init() { RegisterTestSuite(&FsopsTest{}) }

func (t *FsopsTest) SetUp(ti *TestInfo) {
	raw, err := diskimage.Encode(diskimage.BuildSpec{
		Files: []diskimage.BuildFile{
			{Name: ".", Type: diskimage.DirFile},
			{Name: "greeting.txt", Type: diskimage.RegularFile, Data: []byte("hello world")},
		},
	})
	AssertEq(nil, err)
	t.img, err = diskimage.New(raw)
	AssertEq(nil, err)
}

func (t *FsopsTest) RegularOpenReadRoundTrips() {
	ctx := context.Background()
	ops := fsops.NewRegular(t.img)

	state, err := ops.Open(ctx, "greeting.txt")
	AssertEq(nil, err)

	var pos uint32
	buf := make([]byte, 5)
	n, err := ops.Read(ctx, state, &pos, buf)
	AssertEq(nil, err)
	ExpectEq(5, n)
	ExpectEq("hello", string(buf[:n]))
	ExpectEq(5, pos)

	n, err = ops.Read(ctx, state, &pos, buf)
	AssertEq(nil, err)
	ExpectEq(5, n)
	ExpectEq(" worl", string(buf[:n]))
}

func (t *FsopsTest) RegularOpenUnknownNameFails() {
	_, err := fsops.NewRegular(t.img).Open(context.Background(), "nope.txt")
	ExpectEq(fsops.ErrNotFound, err)
}

func (t *FsopsTest) RegularWriteAlwaysFails() {
	ops := fsops.NewRegular(t.img)
	ctx := context.Background()
	state, err := ops.Open(ctx, "greeting.txt")
	AssertEq(nil, err)

	_, err = ops.Write(ctx, state, []byte("nope"))
	ExpectEq(fsops.ErrReadOnly, err)
}

func (t *FsopsTest) DirectoryEnumeratesThenReturnsZero() {
	ops := fsops.NewDirectory(t.img)
	ctx := context.Background()
	state, err := ops.Open(ctx, ".")
	AssertEq(nil, err)

	var pos uint32
	buf := make([]byte, 32)

	n, err := ops.Read(ctx, state, &pos, buf)
	AssertEq(nil, err)
	ExpectEq(".", string(buf[:n]))

	n, err = ops.Read(ctx, state, &pos, buf)
	AssertEq(nil, err)
	ExpectEq("greeting.txt", string(buf[:n]))

	n, err = ops.Read(ctx, state, &pos, buf)
	AssertEq(nil, err)
	ExpectEq(0, n)
}

func (t *FsopsTest) DirectoryWriteAppendsNewEntry() {
	// diskimage.Encode ties every inode to a dentry, so the suite fixture
	// has no free inode. Encode two entries and then drop D back to 1,
	// which leaves inode 1 unreferenced and free for the append.
	raw, err := diskimage.Encode(diskimage.BuildSpec{
		Files: []diskimage.BuildFile{
			{Name: ".", Type: diskimage.DirFile},
			{Name: "spare", Type: diskimage.RegularFile},
		},
	})
	AssertEq(nil, err)
	binary.LittleEndian.PutUint32(raw[0:4], 1) // D
	img, err := diskimage.New(raw)
	AssertEq(nil, err)

	ops := fsops.NewDirectory(img)
	ctx := context.Background()
	state, err := ops.Open(ctx, ".")
	AssertEq(nil, err)

	before := img.NumDentries()
	n, err := ops.Write(ctx, state, []byte("new.txt"))
	AssertEq(nil, err)
	ExpectEq(len("new.txt"), n)
	ExpectEq(before+1, img.NumDentries())

	dentry, err := img.ReadDentryByName("new.txt")
	AssertEq(nil, err)
	ExpectEq(diskimage.RegularFile, dentry.Type)
}

func (t *FsopsTest) RtcWithNoDriverReportsNotImplemented() {
	ops := fsops.NewRtc(nil)
	ctx := context.Background()
	state, err := ops.Open(ctx, "")
	AssertEq(nil, err)

	var pos uint32
	_, err = ops.Read(ctx, state, &pos, make([]byte, 0))
	ExpectEq(fsops.ErrNotImplemented, err)
}

func (t *FsopsTest) FileTableBindsStdioAndOpensRegularFile() {
	ctx := context.Background()
	termOps := fakeTermOps{}
	table, err := fsops.NewFileTable(ctx, termOps)
	AssertEq(nil, err)

	fd, err := table.Open(ctx, fsops.KindRegular, fsops.NewRegular(t.img), "greeting.txt")
	AssertEq(nil, err)
	ExpectEq(2, fd)

	buf := make([]byte, 32)
	n, err := table.Read(ctx, fd, buf)
	AssertEq(nil, err)
	ExpectEq("hello world", string(buf[:n]))

	AssertEq(nil, table.Close(ctx, fd))
	_, err = table.Read(ctx, fd, buf)
	ExpectEq(fsops.ErrBadFD, err)
}

func (t *FsopsTest) FileTableRefusesToCloseStdio() {
	ctx := context.Background()
	table, err := fsops.NewFileTable(ctx, fakeTermOps{})
	AssertEq(nil, err)

	err = table.Close(ctx, 0)
	ExpectEq(fsops.ErrInvalidArgs, err)
}

func (t *FsopsTest) FileTableExhaustionReturnsErrNoFreeFD() {
	ctx := context.Background()
	table, err := fsops.NewFileTable(ctx, fakeTermOps{})
	AssertEq(nil, err)

	for i := 0; i < fsops.MaxFiles-2; i++ {
		_, err := table.Open(ctx, fsops.KindRegular, fsops.NewRegular(t.img), "greeting.txt")
		AssertEq(nil, err)
	}

	_, err = table.Open(ctx, fsops.KindRegular, fsops.NewRegular(t.img), "greeting.txt")
	ExpectEq(fsops.ErrNoFreeFD, err)
}

////////////////////////////////////////////////////////////////////////
// fakeTermOps
////////////////////////////////////////////////////////////////////////

// fakeTermOps is a trivial fsops.Ops stand-in for the controlling
// terminal, so FileTable tests don't need to pull in termring.
type fakeTermOps struct{}

func (fakeTermOps) Open(ctx context.Context, name string) (fsops.OpenState, error) {
	return nil, nil
}

func (fakeTermOps) Read(ctx context.Context, state fsops.OpenState, pos *uint32, buf []byte) (int, error) {
	return 0, nil
}

func (fakeTermOps) Write(ctx context.Context, state fsops.OpenState, buf []byte) (int, error) {
	return len(buf), nil
}

func (fakeTermOps) Close(ctx context.Context, state fsops.OpenState) error {
	return nil
}
