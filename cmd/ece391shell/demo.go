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

import "github.com/jacobsa/ece391kernel/internal/diskimage"

// buildDemoImage returns a small byte-exact disk image (spec.md §6),
// baked in rather than read from --image, so a fresh checkout can boot
// the shell without first running cmd/mkimage against some directory.
func buildDemoImage() ([]byte, error) {
	spec := diskimage.BuildSpec{
		Files: []diskimage.BuildFile{
			{Name: ".", Type: diskimage.DirFile},
			{
				Name: "motd.txt",
				Type: diskimage.RegularFile,
				Data: []byte("Welcome to ece391shell.\nType `help` for the command list.\n"),
			},
			{
				Name: "hello.txt",
				Type: diskimage.RegularFile,
				Data: []byte("Hello, world!\n"),
			},
			{
				Name: "rtc",
				Type: diskimage.RTCFile,
			},
		},
	}
	return diskimage.Encode(spec)
}
