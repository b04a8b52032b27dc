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

import "errors"

// Sentinel errors corresponding to spec.md §7's error taxonomy. Unlike
// the original C kernel, which returned bare -1, each failure mode here
// has a distinct value so callers in fsops can tell them apart without
// re-deriving the reason.
var (
	ErrNotFound     = errors.New("diskimage: no matching directory entry")
	ErrOutOfRange   = errors.New("diskimage: dentry index out of range")
	ErrInvalidInode = errors.New("diskimage: invalid inode number")
	ErrNoFreeInode  = errors.New("diskimage: no free inode for directory append")
)
