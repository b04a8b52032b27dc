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

package keyboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/jacobsa/ece391kernel/kernelctx"
	"github.com/jacobsa/ece391kernel/keyboard"
	"github.com/jacobsa/ece391kernel/signals"
	"github.com/jacobsa/ece391kernel/termring"
	"github.com/jacobsa/timeutil"
)

// TestScancodeForASCIIRoundTrips drives a sample of lowercase and
// uppercase letters, digits, space and punctuation through ScancodeForASCII and the
// same HandleScancode path decoder_test.go exercises directly, checking
// that a host front-end replaying ASCII through the reverse lookup lands
// the original character back in the line buffer.
func TestScancodeForASCIIRoundTrips(t *testing.T) {
	chars := "abcxyz0189-=, .ABCXYZ!@"

	screen := termring.NewMemScreen()
	ring := termring.NewRing(1, timeutil.RealClock(), screen)
	kernel := kernelctx.New(1)
	sigs := signals.NewTable()
	dec := keyboard.NewDecoder(ring, kernel, termring.NoopPagingHook(), sigs)
	term := ring.Terminal(0)

	for _, want := range []byte(chars) {
		sc, shiftNeeded, ok := keyboard.ScancodeForASCII(want)
		if !ok {
			t.Fatalf("ScancodeForASCII(%q): no scancode found", want)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		buf := make([]byte, 4)
		done := make(chan struct{})
		var n int
		go func() {
			n, _ = term.TerminalRead(ctx, buf)
			close(done)
		}()
		time.Sleep(2 * time.Millisecond)

		if shiftNeeded {
			if err := dec.HandleScancode(keyboard.ScancodeLeftShiftPress); err != nil {
				t.Fatal(err)
			}
		}
		if err := dec.HandleScancode(sc); err != nil {
			t.Fatal(err)
		}
		if shiftNeeded {
			if err := dec.HandleScancode(keyboard.ScancodeLeftShiftRelease); err != nil {
				t.Fatal(err)
			}
		}
		if err := dec.HandleScancode(0x1C); err != nil { // Enter
			t.Fatal(err)
		}

		<-done
		cancel()
		if n != 1 || buf[0] != want {
			t.Fatalf("round trip for %q: got n=%d buf[0]=%q", want, n, buf[0])
		}
	}
}

// TestScancodeForASCIIRejectsUnmappableControlCharacters checks that a
// byte absent from both tables is reported as not found rather than
// silently mapped to scancode 0 (which would alias the "no scancode
// pressed" filler byte).
func TestScancodeForASCIIRejectsUnmappableControlCharacters(t *testing.T) {
	if _, _, ok := keyboard.ScancodeForASCII(0x01); ok {
		t.Fatalf("expected 0x01 to have no scancode")
	}
}
