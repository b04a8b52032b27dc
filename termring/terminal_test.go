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

package termring_test

import (
	"context"
	"testing"
	"time"

	"github.com/jacobsa/ece391kernel/kernelctx"
	"github.com/jacobsa/ece391kernel/termring"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
	"github.com/jacobsa/timeutil"
)

func TestTermring(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Suite
////////////////////////////////////////////////////////////////////////

type TermringTest struct {
	screen *termring.MemScreen
	ring   *termring.Ring
}

func init() { RegisterTestSuite(&TermringTest{}) }

func (t *TermringTest) SetUp(ti *TestInfo) {
	t.screen = termring.NewMemScreen()
	t.ring = termring.NewRing(3, timeutil.RealClock(), t.screen)
}

// S3: a line typed while read_open is set lands in TerminalRead's buffer
// exactly once Enter is struck, and is echoed to the screen as it goes.
func (t *TermringTest) LineDisciplineDelvisersOnEnter() {
	term := t.ring.Terminal(t.ring.CurTerminal())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	var n int
	var err error
	buf := make([]byte, 16)

	go func() {
		n, err = term.TerminalRead(ctx, buf)
		close(done)
	}()

	// Give TerminalRead a moment to flip readOpen before we type.
	time.Sleep(5 * time.Millisecond)

	for _, c := range []byte("hi\n") {
		t.ring.HandleKeystroke(term, c)
	}

	<-done
	AssertEq(nil, err)
	ExpectEq(2, n)
	ExpectThat(buf[:n], ElementsAre(byte('h'), byte('i')))
	ExpectEq(byte('\n'), buf[n])
}

// Backspace against an empty buffer is suppressed (no underflow, no
// echo), matching fill_line_buffer's count==0 guard.
func (t *TermringTest) BackspaceOnEmptyBufferIsSuppressed() {
	term := t.ring.Terminal(t.ring.CurTerminal())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	go term.TerminalRead(ctx, make([]byte, 4))
	time.Sleep(5 * time.Millisecond)

	result := term.FillLineBuffer('\b')
	ExpectEq(termring.Suppressed, result)
}

// S4: switching terminals rotates the shared framebuffer through each
// terminal's own background save slot and back again, leaving the
// contents as they were before the round trip.
func (t *TermringTest) SwitchPreservesPerTerminalFramebuffers() {
	k := kernelctx.New(3)
	paging := termring.NoopPagingHook()

	t.screen.PutC('A')
	beforeZero := t.screen.Snapshot()

	t.ring.Switch(k, paging, 1)
	ExpectEq(1, t.ring.CurTerminal())

	t.screen.PutC('B')

	t.ring.Switch(k, paging, 0)
	ExpectEq(0, t.ring.CurTerminal())

	restored := t.screen.Snapshot()
	ExpectTrue(restored == beforeZero)

	t.ring.Switch(k, paging, 1)
	withB := t.screen.Snapshot()
	ExpectEq(byte('B'), withB[0])
}

// Switching to the already-current terminal, or to an out-of-range
// index, is a no-op.
func (t *TermringTest) SwitchIsNoOpWhenUnnecessary() {
	k := kernelctx.New(3)
	paging := termring.NoopPagingHook()

	t.ring.Switch(k, paging, 0)
	ExpectEq(0, t.ring.CurTerminal())

	t.ring.Switch(k, paging, 7)
	ExpectEq(0, t.ring.CurTerminal())

	t.ring.Switch(k, paging, -1)
	ExpectEq(0, t.ring.CurTerminal())
}
