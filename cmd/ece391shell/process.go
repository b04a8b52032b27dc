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
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jacobsa/ece391kernel/fsops"
	"github.com/jacobsa/ece391kernel/kernelctx"
	"github.com/jacobsa/ece391kernel/samples/teletypefs"
	"github.com/jacobsa/ece391kernel/signals"
	"github.com/jacobsa/ece391kernel/termring"
)

// timeLogFormat is how a Delivery.At timestamp is rendered in the log,
// chosen for the same seconds-since-midnight readability debug.go's
// log.Lmicroseconds flag gives every other message.
const timeLogFormat = "15:04:05.000000"

// shellProcess is one terminal's cooperative "user program": a small
// line-oriented shell built directly on the fsops syscall surface, in
// place of the scheduler's process control blocks that spec.md §3 says
// this core only ever consumes (file_array, signal_array, sig_handler,
// sig_mask). One instance runs per terminal, each its own goroutine.
type shellProcess struct {
	ref    kernelctx.ProcessRef
	term   int
	table  *fsops.FileTable
	fs     *teletypefs.FS
	kernel *kernelctx.Kernel
	sigs   *signals.Table
	ring   *termring.Ring
	log    *log.Logger
}

// newShellProcess binds a fresh file table's stdio slots to term,
// registers ref with the signal table, and records ref as term's
// foreground owner (the target of a Ctrl+C sent while term is visible).
func newShellProcess(ctx context.Context, ref kernelctx.ProcessRef, term int, ring *termring.Ring, fs *teletypefs.FS, kernel *kernelctx.Kernel, sigs *signals.Table, logger *log.Logger) (*shellProcess, error) {
	ops := termring.NewFDOps(ring, ring.Terminal(term))
	table, err := fsops.NewFileTable(ctx, ops)
	if err != nil {
		return nil, fmt.Errorf("terminal %d: %w", term, err)
	}

	sigs.Register(ref)
	kernel.SetForegroundOwner(term, ref)

	return &shellProcess{
		ref:    ref,
		term:   term,
		table:  table,
		fs:     fs,
		kernel: kernel,
		sigs:   sigs,
		ring:   ring,
		log:    logger,
	}, nil
}

// run is the process's entire lifetime: print a banner, then loop
// prompting, blocking in terminal_read for a line and executing it,
// checking for a pending signal at the top of each iteration -- the
// "well-defined checkpoint" spec.md §4.5 calls do_signal from. It
// returns once halted by a signal or ctx is canceled.
func (p *shellProcess) run(ctx context.Context) {
	p.writeString(fmt.Sprintf("ece391 terminal %d ready. Type `help`.\n", p.term))

	for {
		if p.checkpoint() {
			return
		}

		p.kernel.SetCurrentlyScheduled(p.ref)
		p.kernel.SetScheduledTerminal(p.term)

		p.writeString(fmt.Sprintf("391-t%d$ ", p.term))

		line, err := p.readLine(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Printf("terminal %d: readLine: %v", p.term, err)
			}
			return
		}

		if p.checkpoint() {
			return
		}

		p.execute(line)
	}
}

// checkpoint is the do_signal call site: it asks the signal table for
// this process's next pending, unmasked signal and, if the default
// action for it is to kill the process, tears it down. An ignored
// signal or no pending signal lets the caller's loop continue; a
// DoSignal error, such as a custom handler's unsupported frame, stops
// it.
func (p *shellProcess) checkpoint() bool {
	delivery, err := p.sigs.DoSignal(p.ref)
	if err != nil {
		p.log.Printf("terminal %d: DoSignal: %v", p.term, err)
		return true
	}
	if delivery == nil {
		return false
	}

	p.log.Printf("terminal %d: delivering %v at %s", p.term, delivery.Kind, delivery.At.Format(timeLogFormat))

	if delivery.Action == signals.ActionKill {
		p.halt()
		return true
	}
	return false
}

// halt implements the default DIV_ZERO/SEGFAULT/INTERRUPT handler:
// clear the screen and terminate (spec.md §4.5), then drop the process's
// registrations so a later Ctrl+C on this terminal is a no-op instead of
// targeting a stale ProcessRef.
func (p *shellProcess) halt() {
	p.ring.ClearForeground()
	p.sigs.Unregister(p.ref)
	p.kernel.SetForegroundOwner(p.term, kernelctx.NoProcess)
	p.log.Printf("terminal %d: process %d halted", p.term, p.ref)
}

func (p *shellProcess) writeString(s string) {
	if _, err := p.table.Write(context.Background(), 1, []byte(s)); err != nil {
		p.log.Printf("terminal %d: write: %v", p.term, err)
	}
}

// readLine blocks in fsops.FileTable.Read against fd 0 (terminal_read)
// until Enter is struck, per spec.md §4.3.
func (p *shellProcess) readLine(ctx context.Context) (string, error) {
	buf := make([]byte, termring.BufferSize)
	n, err := p.table.Read(ctx, 0, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// execute parses and runs one of the small set of built-in commands a
// process in this tree can issue against the filesystem: ls, cat, rm,
// echo, help and exit.
func (p *shellProcess) execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "help":
		p.writeString("commands: ls, cat NAME, rm NAME, echo TEXT, exit\n")
	case "ls":
		p.cmdLS()
	case "cat":
		if len(fields) < 2 {
			p.writeString("usage: cat NAME\n")
			return
		}
		p.cmdCat(fields[1])
	case "rm":
		if len(fields) < 2 {
			p.writeString("usage: rm NAME\n")
			return
		}
		p.cmdRm(fields[1])
	case "echo":
		p.writeString(strings.Join(fields[1:], " ") + "\n")
	case "exit":
		p.halt()
	default:
		p.writeString(fmt.Sprintf("%s: command not found\n", fields[0]))
	}
}

// cmdLS drives the directory vtable's per-call enumeration contract
// (spec.md §4.2) to completion: one dentry name per Read, a 0-length
// Read signaling the end.
func (p *shellProcess) cmdLS() {
	ctx := context.Background()
	fd, err := p.fs.Open(ctx, p.table, ".")
	if err != nil {
		p.writeString(fmt.Sprintf("ls: %v (errno %d)\n", err, fsops.Errno(err)))
		return
	}
	defer p.table.Close(ctx, fd)

	buf := make([]byte, 33)
	for {
		n, err := p.table.Read(ctx, fd, buf)
		if err != nil {
			p.writeString(fmt.Sprintf("ls: %v (errno %d)\n", err, fsops.Errno(err)))
			return
		}
		if n == 0 {
			return
		}
		p.writeString(string(buf[:n]) + "\n")
	}
}

func (p *shellProcess) cmdCat(name string) {
	ctx := context.Background()
	fd, err := p.fs.Open(ctx, p.table, name)
	if err != nil {
		p.writeString(fmt.Sprintf("cat: %s: %v (errno %d)\n", name, err, fsops.Errno(err)))
		return
	}
	defer p.table.Close(ctx, fd)

	buf := make([]byte, 256)
	for {
		n, err := p.table.Read(ctx, fd, buf)
		if err != nil {
			p.writeString(fmt.Sprintf("cat: %s: %v (errno %d)\n", name, err, fsops.Errno(err)))
			return
		}
		if n == 0 {
			return
		}
		p.writeString(string(buf[:n]))
	}
}

// cmdRm is the ece391rm built-in, supplemented in from original_source/
// (SPEC_FULL.md §4): it only removes dentries appended in RAM this boot,
// reporting ErrNotFound for anything else.
func (p *shellProcess) cmdRm(name string) {
	if err := p.fs.Remove(name); err != nil {
		p.writeString(fmt.Sprintf("rm: %s: %v (errno %d)\n", name, err, fsops.Errno(err)))
		return
	}
	p.writeString(fmt.Sprintf("removed %s\n", name))
}
