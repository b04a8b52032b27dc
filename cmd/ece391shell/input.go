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

package main

import (
	"bufio"
	"context"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/jacobsa/ece391kernel/keyboard"
)

// runHostInputLoop stands in for the PS/2 controller and IRQ dispatch
// this kernel treats as an out-of-scope external collaborator (spec.md
// §1): it turns lines read from r (ordinarily os.Stdin) into the
// scancode stream keyboard.Decoder.HandleScancode expects. Real PS/2
// hardware delivers one scancode per keystroke as it happens; a host
// terminal instead hands us a whole cooked line at once, so this loop
// replays that line scancode-by-scancode, in order, so the line
// discipline and hotkey paths both see exactly the stimuli a real
// keyboard would have produced.
//
// A line beginning with "!" is a host-only directive rather than
// terminal input: a real Ctrl+C or Alt+F2 never reaches this process as
// bytes (the host terminal driver or shell intercepts them first), so
// there is no ASCII stand-in to replay for them.
//
//	!switch N   Alt+F(N+1): make terminal N visible
//	!intr       Ctrl+C: interrupt the foreground terminal's process
//	!clear      Ctrl+L: clear the foreground terminal's screen
//	!quit       stop the kernel
func runHostInputLoop(ctx context.Context, r io.Reader, dec *keyboard.Decoder, cancel context.CancelFunc, logger *log.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if strings.HasPrefix(line, "!") {
			if !handleDirective(line[1:], dec, cancel, logger) {
				return
			}
			continue
		}

		for _, c := range []byte(line) {
			sendASCII(dec, c, logger)
		}
		sendASCII(dec, '\n', logger)
	}
	if err := scanner.Err(); err != nil {
		logger.Printf("host input: %v", err)
	}
	cancel()
}

// sendASCII resynthesizes the scancode(s) that would have produced c,
// bracketing with a Shift press/release when c is only reachable with
// Shift held (keyboard.ScancodeForASCII reports which).
func sendASCII(dec *keyboard.Decoder, c byte, logger *log.Logger) {
	sc, shiftNeeded, ok := keyboard.ScancodeForASCII(c)
	if !ok {
		logger.Printf("host input: %q has no scancode, dropped", c)
		return
	}
	if shiftNeeded {
		logIfErr(dec.HandleScancode(keyboard.ScancodeLeftShiftPress), logger)
	}
	logIfErr(dec.HandleScancode(sc), logger)
	if shiftNeeded {
		logIfErr(dec.HandleScancode(keyboard.ScancodeLeftShiftRelease), logger)
	}
}

func logIfErr(err error, logger *log.Logger) {
	if err != nil {
		logger.Printf("host input: HandleScancode: %v", err)
	}
}

// handleDirective executes one "!"-prefixed host directive, returning
// false if the kernel should shut down.
func handleDirective(cmd string, dec *keyboard.Decoder, cancel context.CancelFunc, logger *log.Logger) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "switch":
		if len(fields) < 2 {
			logger.Printf("host input: usage: !switch N")
			return true
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			logger.Printf("host input: !switch: %v", err)
			return true
		}
		altF := []uint32{keyboard.ScancodeF1, keyboard.ScancodeF2, keyboard.ScancodeF3}
		if n < 0 || n >= len(altF) {
			logger.Printf("host input: !switch: terminal %d out of range", n)
			return true
		}
		logIfErr(dec.HandleScancode(keyboard.ScancodeLeftAltPress), logger)
		logIfErr(dec.HandleScancode(altF[n]), logger)
		logIfErr(dec.HandleScancode(keyboard.ScancodeLeftAltRelease), logger)
	case "intr":
		sendHotkey(dec, keyboard.ScancodeLeftCtrlPress, keyboard.ScancodeLeftCtrlRelease, 'c', logger)
	case "clear":
		sendHotkey(dec, keyboard.ScancodeLeftCtrlPress, keyboard.ScancodeLeftCtrlRelease, 'l', logger)
	case "quit":
		cancel()
		return false
	default:
		logger.Printf("host input: unknown directive %q", fields[0])
	}
	return true
}

// sendHotkey brackets the scancode for c between modPress and modRelease,
// e.g. Ctrl press, 'c', Ctrl release for Ctrl+C.
func sendHotkey(dec *keyboard.Decoder, modPress, modRelease uint32, c byte, logger *log.Logger) {
	sc, _, ok := keyboard.ScancodeForASCII(c)
	if !ok {
		logger.Printf("host input: no scancode for hotkey character %q", c)
		return
	}
	logIfErr(dec.HandleScancode(modPress), logger)
	logIfErr(dec.HandleScancode(sc), logger)
	logIfErr(dec.HandleScancode(modRelease), logger)
}
