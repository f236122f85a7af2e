// Copyright 2026 The gVisor Authors.
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

package fs

import (
	"fmt"
)

// Kind enumerates the concrete file kinds a FileClass may hold.
type Kind int

const (
	// KindOSInode is a file on a host filesystem.
	KindOSInode Kind = iota

	// KindAbstract is any other implementation of File.
	KindAbstract
)

// String implements fmt.Stringer.String.
func (k Kind) String() string {
	switch k {
	case KindOSInode:
		return "OSInode"
	case KindAbstract:
		return "Abstract"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// FileClass is what a file descriptor refers to: either an OSInode or some
// other File. The zero value holds nothing.
type FileClass struct {
	kind  Kind
	inode *OSInode
	file  File
}

// OSInodeClass returns a FileClass holding i.
func OSInodeClass(i *OSInode) FileClass {
	if i == nil {
		panic("fs: nil OSInode")
	}
	return FileClass{kind: KindOSInode, inode: i, file: i}
}

// AbstractClass returns a FileClass holding f. An *OSInode passed here is
// still classified as KindOSInode.
func AbstractClass(f File) FileClass {
	if f == nil {
		panic("fs: nil File")
	}
	if i, ok := f.(*OSInode); ok {
		return OSInodeClass(i)
	}
	return FileClass{kind: KindAbstract, file: f}
}

// Kind returns the kind of c.
//
// Preconditions: c is not the zero value.
func (c FileClass) Kind() Kind {
	return c.kind
}

// Valid returns true if c holds a file.
func (c FileClass) Valid() bool {
	return c.file != nil
}

// OSInode returns the OSInode held by c, if any.
func (c FileClass) OSInode() (*OSInode, bool) {
	return c.inode, c.kind == KindOSInode && c.inode != nil
}

// File returns c's byte-stream capability, whatever its kind.
func (c FileClass) File() File {
	return c.file
}

// String implements fmt.Stringer.String.
func (c FileClass) String() string {
	if !c.Valid() {
		return "FileClass(none)"
	}
	if c.kind == KindOSInode {
		return fmt.Sprintf("FileClass(%v %s)", c.kind, c.inode.Name())
	}
	return fmt.Sprintf("FileClass(%v %T)", c.kind, c.file)
}
