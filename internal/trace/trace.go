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

// Package trace wraps github.com/jacobsa/reqtrace spans around the two
// places in this kernel a single call can plausibly stall long enough to
// be worth tracing: a disk image read and a file-table syscall. It
// exists so reqtrace -- a no-op until a real trace.Enabled() policy is
// wired up -- is exercised by this tree rather than sitting unused, the
// same way fuseops/common_op.go wraps every op in a span.
package trace

import (
	"context"

	"github.com/jacobsa/reqtrace"
)

// Span starts a reqtrace span named desc and returns a function the
// caller must invoke with the operation's final error (nil on success)
// when it completes, mirroring fuseops/common_op.go's
// reqtrace.StartSpan/report.Op pair. When reqtrace is disabled this is a
// cheap no-op, so callers can wrap every DiskImage.ReadData and
// FileTable syscall unconditionally.
func Span(ctx context.Context, desc string) (context.Context, func(error)) {
	return reqtrace.StartSpan(ctx, desc)
}
