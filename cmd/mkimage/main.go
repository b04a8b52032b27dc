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

// mkimage bakes a directory of regular files on the host filesystem into
// a single byte-exact disk image of the format internal/diskimage reads
// (spec.md §6). It is a development tool, not something cmd/ece391shell
// itself runs.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/jacobsa/ece391kernel/internal/diskimage"
	"github.com/jacobsa/ece391kernel/internal/imagehash"
)

var fSrcDir = flag.String("src", "", "Directory of files to bake into the image.")
var fOut = flag.String("out", "", "Path to write the resulting image to.")
var fDirName = flag.String("dirname", ".", "Name of the single directory dentry every other file lives under.")

func main() {
	flag.Parse()

	errorLogger := log.New(os.Stderr, "mkimage: ", 0)

	if *fSrcDir == "" {
		errorLogger.Fatalf("You must set --src.")
	}
	if *fOut == "" {
		errorLogger.Fatalf("You must set --out.")
	}

	spec, err := buildSpec(*fSrcDir, *fDirName)
	if err != nil {
		errorLogger.Fatalf("buildSpec: %v", err)
	}

	if err := diskimage.WriteFile(*fOut, spec); err != nil {
		errorLogger.Fatalf("WriteFile: %v", err)
	}

	raw, err := diskimage.Encode(spec)
	if err != nil {
		errorLogger.Fatalf("Encode (for hashing): %v", err)
	}
	log.Printf("wrote %s (%d files, blake2b-256 %s)", *fOut, len(spec.Files), imagehash.Sum(raw))
}

// buildSpec reads every regular file directly inside dir (no recursion;
// this kernel's filesystem has exactly one directory level) and returns
// a BuildSpec with dirName prepended as the directory dentry itself.
func buildSpec(dir, dirName string) (diskimage.BuildSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return diskimage.BuildSpec{}, err
	}

	spec := diskimage.BuildSpec{
		Files: []diskimage.BuildFile{
			{Name: dirName, Type: diskimage.DirFile},
		},
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return diskimage.BuildSpec{}, err
		}
		spec.Files = append(spec.Files, diskimage.BuildFile{
			Name: e.Name(),
			Type: diskimage.RegularFile,
			Data: data,
		})
	}

	return spec, nil
}
