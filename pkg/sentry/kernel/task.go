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

// Package kernel provides tasks: an address space plus open files, and the
// file-related system calls that move data between them.
package kernel

import (
	"fmt"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/ring0/pagetables"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/syserror"
)

// Task is a user task.
//
// A Task is used by one goroutine at a time.
type Task struct {
	name string

	// mf backs the task's page tables and user pages.
	mf *pgalloc.MemoryFile

	// frames feeds pt. It hands out frames set aside by MapAnon first.
	frames *frameSource

	// pt is the task's address space.
	pt *pagetables.PageTables

	// pages are the user frames mapped by MapAnon.
	pages []*pgalloc.Frame

	// fdTable holds the task's open files.
	fdTable *FDTable

	released bool
}

// frameSource is the pagetables.Allocator of a task.
type frameSource struct {
	mf *pgalloc.MemoryFile

	// reserved are frames already taken from mf, handed out before mf is
	// asked for more.
	reserved []*pgalloc.Frame
}

// PageBytes implements pagetables.Memory.PageBytes.
func (s *frameSource) PageBytes(ppn hostarch.PPN) []byte {
	return s.mf.PageBytes(ppn)
}

// Allocate implements pagetables.Allocator.Allocate.
func (s *frameSource) Allocate() (*pgalloc.Frame, error) {
	if n := len(s.reserved); n > 0 {
		f := s.reserved[n-1]
		s.reserved = s.reserved[:n-1]
		return f, nil
	}
	return s.mf.Allocate()
}

// releaseReserved returns unused reserved frames to mf.
func (s *frameSource) releaseReserved() {
	for _, f := range s.reserved {
		f.Release()
	}
	s.reserved = nil
}

// NewTask returns a task with an empty address space and no open files. It
// returns ErrExhausted if no frame is left for the root table.
func NewTask(name string, mf *pgalloc.MemoryFile) (*Task, error) {
	root, err := mf.Allocate()
	if err != nil {
		return nil, fmt.Errorf("creating task %q: %w", name, err)
	}
	src := &frameSource{mf: mf, reserved: []*pgalloc.Frame{root}}
	t := &Task{
		name:    name,
		mf:      mf,
		frames:  src,
		pt:      pagetables.New(src),
		fdTable: NewFDTable(DefaultMaxFDs),
	}
	log.Debugf("Task %q created with %v", name, t.pt)
	return t, nil
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.name
}

// MemoryFile returns the physical memory used by t.
func (t *Task) MemoryFile() *pgalloc.MemoryFile {
	return t.mf
}

// PageTables returns t's page tables.
func (t *Task) PageTables() *pagetables.PageTables {
	return t.pt
}

// FDTable returns t's file table.
func (t *Task) FDTable() *FDTable {
	return t.fdTable
}

// UserToken returns the token of t's address space.
func (t *Task) UserToken() uint64 {
	return t.pt.Token()
}

// MapAnon maps n fresh zeroed pages at va with the given flags. The pages and
// any page tables they need are allocated up front: if physical memory cannot
// cover all of them, MapAnon returns ErrExhausted and maps nothing.
//
// Preconditions: va is page aligned. No page in the range is mapped.
func (t *Task) MapAnon(va hostarch.Addr, n int, flags pagetables.PTEFlags) error {
	if !va.IsPageAligned() {
		panic(fmt.Sprintf("kernel: MapAnon at unaligned %v", va))
	}
	vpn := va.Floor()
	tables := t.pt.TablesNeeded(vpn, n)
	frames, err := t.mf.AllocateN(n + tables)
	if err != nil {
		return fmt.Errorf("mapping %d pages and %d tables at %v: %w", n, tables, va, err)
	}
	t.frames.reserved = frames[n:]
	defer t.frames.releaseReserved()
	for i, f := range frames[:n] {
		t.pt.Map(vpn+hostarch.VPN(i), f.PPN(), flags)
		t.pages = append(t.pages, f)
	}
	return nil
}

// CheckRange returns EFAULT unless every page of [addr, addr+length) is
// mapped with at least the permissions in at.
func (t *Task) CheckRange(addr hostarch.Addr, length uint64, at hostarch.AccessType) error {
	if length == 0 {
		return nil
	}
	ar, ok := addr.ToRange(length)
	if !ok {
		return syserror.EFAULT
	}
	for va := ar.Start.RoundDown(); va < ar.End; va += hostarch.PageSize {
		if _, ok := t.pt.TranslateAccess(va, at); !ok {
			return syserror.EFAULT
		}
		if va+hostarch.PageSize < va {
			break
		}
	}
	return nil
}

// Release closes every file and frees the address space. It is idempotent.
func (t *Task) Release() {
	if t.released {
		return
	}
	t.released = true
	t.fdTable.RemoveAll()
	t.pt.Release()
	for _, f := range t.pages {
		f.Release()
	}
	t.pages = nil
	log.Debugf("Task %q released", t.name)
}

// String implements fmt.Stringer.String.
func (t *Task) String() string {
	return fmt.Sprintf("task %q (token %#x)", t.name, t.UserToken())
}
