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

// ece391shell is the integration glue spec.md §2 calls for: it loads a
// disk image, boots three terminals, wires the keyboard decoder into
// the terminal ring and the signal table, and runs one cooperative
// "process" goroutine per terminal against the fsops syscall surface.
// It is this kernel's analogue of samples/mount_hello: a thin flag-
// parsed main binding library packages together, not where any
// interesting logic lives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/jacobsa/timeutil"

	"github.com/jacobsa/ece391kernel/internal/imagehash"
	"github.com/jacobsa/ece391kernel/kernelctx"
	"github.com/jacobsa/ece391kernel/keyboard"
	"github.com/jacobsa/ece391kernel/samples/teletypefs"
	"github.com/jacobsa/ece391kernel/signals"
	"github.com/jacobsa/ece391kernel/termring"
)

var fImage = flag.String(
	"image",
	"",
	"Path to a disk image built by cmd/mkimage. If empty, a small built-in demo image is used.")

var fNumTerminals = flag.Int(
	"terminals",
	3,
	"Number of terminals to boot (spec.md fixes this at 3; other values are for experimentation).")

var fVerify = flag.Bool(
	"verify",
	false,
	"Log a blake2b-256 digest of the loaded image before booting (spec.md §9's filesys_init zeroing concern).")

func main() {
	flag.Parse()
	logger := getLogger()

	raw, err := loadImage(*fImage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ece391shell: loadImage: %v\n", err)
		os.Exit(1)
	}

	if *fVerify {
		logger.Printf("boot image digest (blake2b-256): %s", imagehash.Sum(raw))
	}

	fs, err := teletypefs.New(raw, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ece391shell: teletypefs.New: %v\n", err)
		os.Exit(1)
	}

	kernel := kernelctx.New(*fNumTerminals)
	screen := termring.NewMemScreen()
	ring := termring.NewRing(*fNumTerminals, timeutil.RealClock(), screen)
	sigs := signals.NewTable()
	dec := keyboard.NewDecoder(ring, kernel, termring.NoopPagingHook(), sigs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for term := 0; term < *fNumTerminals; term++ {
		ref := kernelctx.ProcessRef(term)
		proc, err := newShellProcess(ctx, ref, term, ring, fs, kernel, sigs, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ece391shell: %v\n", err)
			os.Exit(1)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			proc.run(ctx)
		}()
	}

	logger.Printf("booted %d terminals; terminal 0 is foreground", *fNumTerminals)
	fmt.Fprintln(os.Stderr, "ece391shell: reading commands from stdin; lines starting with ! are host directives (!switch N, !intr, !clear, !quit)")

	runHostInputLoop(ctx, os.Stdin, dec, cancel, logger)

	cancel()
	wg.Wait()
}

// loadImage reads path as a disk image, or falls back to the built-in
// demo image when path is empty.
func loadImage(path string) ([]byte, error) {
	if path == "" {
		return buildDemoImage()
	}
	return os.ReadFile(path)
}
