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

package kernel

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/fs"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/syserror"
)

// DefaultMaxFDs is the default size limit of an FDTable.
const DefaultMaxFDs = 1024

// FDTable maps file descriptors to files.
type FDTable struct {
	// mu protects files.
	mu sync.Mutex

	// files is indexed by descriptor. Unused slots hold the zero FileClass.
	files []fs.FileClass

	// max is the number of descriptors the table may hold.
	max int
}

// NewFDTable returns an empty table holding at most max descriptors.
func NewFDTable(max int) *FDTable {
	return &FDTable{max: max}
}

// NewFD installs fc at the lowest free descriptor and returns it.
func (f *FDTable) NewFD(fc fs.FileClass) (int, error) {
	if !fc.Valid() {
		panic("kernel: installing an empty FileClass")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for fd := range f.files {
		if !f.files[fd].Valid() {
			f.files[fd] = fc
			return fd, nil
		}
	}
	if len(f.files) >= f.max {
		return -1, syserror.EMFILE
	}
	f.files = append(f.files, fc)
	return len(f.files) - 1, nil
}

// Get returns the file at fd.
func (f *FDTable) Get(fd int) (fs.FileClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fd < 0 || fd >= len(f.files) || !f.files[fd].Valid() {
		return fs.FileClass{}, syserror.EBADF
	}
	return f.files[fd], nil
}

// Remove removes fd from the table and closes its file.
func (f *FDTable) Remove(fd int) error {
	f.mu.Lock()
	if fd < 0 || fd >= len(f.files) || !f.files[fd].Valid() {
		f.mu.Unlock()
		return syserror.EBADF
	}
	fc := f.files[fd]
	f.files[fd] = fs.FileClass{}
	f.mu.Unlock()
	closeFile(fc)
	return nil
}

// Size returns the number of open descriptors.
func (f *FDTable) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, fc := range f.files {
		if fc.Valid() {
			n++
		}
	}
	return n
}

// RemoveAll closes every descriptor.
func (f *FDTable) RemoveAll() {
	f.mu.Lock()
	files := f.files
	f.files = nil
	f.mu.Unlock()
	for _, fc := range files {
		if fc.Valid() {
			closeFile(fc)
		}
	}
}

// String implements fmt.Stringer.String.
func (f *FDTable) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b strings.Builder
	for fd, fc := range f.files {
		if fc.Valid() {
			fmt.Fprintf(&b, "\tfd:%d => %v\n", fd, fc)
		}
	}
	return b.String()
}

// closeFile closes the file held by fc if it can be closed.
func closeFile(fc fs.FileClass) {
	switch c := fc.File().(type) {
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			log.Warningf("Closing %v: %v", fc, err)
		}
	case interface{ Close() }:
		c.Close()
	}
}
