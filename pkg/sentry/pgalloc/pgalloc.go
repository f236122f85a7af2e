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

// Package pgalloc contains the physical frame pool: a fixed arena of
// page-sized frames starting at a base physical page number, from which
// exclusively owned frames are allocated and to which they are returned.
package pgalloc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/btree"
	"golang.org/x/sys/unix"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
)

// ErrExhausted is returned by Allocate when every frame is in use.
var ErrExhausted = errors.New("physical memory exhausted")

// DefaultBasePPN is the first frame of RAM on the QEMU virt machine
// (physical address 0x80000000).
const DefaultBasePPN = hostarch.PPN(0x80000)

// btreeDegree is the degree of the free frame set.
const btreeDegree = 32

// Opts is passed to NewMemoryFile.
type Opts struct {
	// BasePPN is the page number of the first frame. If zero,
	// DefaultBasePPN is used.
	BasePPN hostarch.PPN

	// Frames is the number of frames in the arena.
	Frames int
}

// MemoryFile is a physical memory arena.
//
// The arena is an anonymous private mapping; the page contents are only ever
// reached through PageBytes and Bytes, which bound every access to a single
// frame inside the arena.
type MemoryFile struct {
	opts Opts

	// mapping is the arena. It is immutable after NewMemoryFile returns, and
	// nil after Destroy.
	mapping []byte

	// mu protects the fields below.
	mu sync.Mutex

	// free is the set of unallocated frames. Allocation takes the lowest
	// frame first.
	free *btree.BTreeG[hostarch.PPN]

	// allocated is the number of frames handed out and not yet released.
	allocated int
}

// NewMemoryFile creates a MemoryFile with opts.Frames frames.
func NewMemoryFile(opts Opts) (*MemoryFile, error) {
	if opts.Frames <= 0 {
		return nil, fmt.Errorf("invalid frame count %d", opts.Frames)
	}
	if opts.BasePPN == 0 {
		opts.BasePPN = DefaultBasePPN
	}
	if uint64(opts.BasePPN)+uint64(opts.Frames) > hostarch.PPNMask+1 {
		return nil, fmt.Errorf("frames [%v, +%d) do not fit in %d-bit page numbers", opts.BasePPN, opts.Frames, hostarch.PPNBits)
	}
	m, err := unix.Mmap(-1, 0, opts.Frames*hostarch.PageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("failed to map %d frames: %w", opts.Frames, err)
	}
	f := &MemoryFile{
		opts:    opts,
		mapping: m,
		free:    btree.NewOrderedG[hostarch.PPN](btreeDegree),
	}
	for i := 0; i < opts.Frames; i++ {
		f.free.ReplaceOrInsert(opts.BasePPN + hostarch.PPN(i))
	}
	log.Debugf("Physical memory: %d frames at %v", opts.Frames, opts.BasePPN.Addr())
	return f, nil
}

// BasePPN returns the page number of the first frame.
func (f *MemoryFile) BasePPN() hostarch.PPN {
	return f.opts.BasePPN
}

// Frames returns the total number of frames in the arena.
func (f *MemoryFile) Frames() int {
	return f.opts.Frames
}

// Contains returns true if ppn is a frame of this arena.
func (f *MemoryFile) Contains(ppn hostarch.PPN) bool {
	return ppn >= f.opts.BasePPN && uint64(ppn-f.opts.BasePPN) < uint64(f.opts.Frames)
}

// Allocate returns a zeroed frame owned by the caller. The frame must be
// returned with Frame.Release.
func (f *MemoryFile) Allocate() (*Frame, error) {
	frames, err := f.AllocateN(1)
	if err != nil {
		return nil, err
	}
	return frames[0], nil
}

// AllocateN returns n zeroed frames owned by the caller, or ErrExhausted and
// no frames if fewer than n are free.
func (f *MemoryFile) AllocateN(n int) ([]*Frame, error) {
	f.mu.Lock()
	if n > f.free.Len() {
		free := f.free.Len()
		f.mu.Unlock()
		log.Warningf("Frame allocation failed: %d frames wanted, %d of %d free", n, free, f.opts.Frames)
		return nil, ErrExhausted
	}
	frames := make([]*Frame, n)
	for i := range frames {
		ppn, _ := f.free.DeleteMin()
		frames[i] = &Frame{mf: f, ppn: ppn}
	}
	f.allocated += n
	f.mu.Unlock()

	for _, fr := range frames {
		clear(fr.Bytes())
	}
	return frames, nil
}

// release returns ppn to the free set.
func (f *MemoryFile) release(ppn hostarch.PPN) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.free.ReplaceOrInsert(ppn); dup {
		panic(fmt.Sprintf("pgalloc: %v released twice", ppn))
	}
	f.allocated--
}

// Allocated returns the number of frames currently allocated.
func (f *MemoryFile) Allocated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allocated
}

// Free returns the number of frames currently available.
func (f *MemoryFile) Free() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.free.Len()
}

// PageBytes returns the contents of frame ppn.
//
// Precondition: ppn is a frame of f.
func (f *MemoryFile) PageBytes(ppn hostarch.PPN) []byte {
	if !f.Contains(ppn) {
		panic(fmt.Sprintf("pgalloc: %v outside physical memory [%v, +%d)", ppn, f.opts.BasePPN, f.opts.Frames))
	}
	off := uint64(ppn-f.opts.BasePPN) << hostarch.PageShift
	end := off + hostarch.PageSize
	return f.mapping[off:end:end]
}

// Bytes returns the n bytes at pa.
//
// Precondition: [pa, pa+n) lies within a single frame of f.
func (f *MemoryFile) Bytes(pa hostarch.PhysAddr, n int) []byte {
	off := pa.PageOffset()
	if n < 0 || off+uint64(n) > hostarch.PageSize {
		panic(fmt.Sprintf("pgalloc: [%v, +%d) crosses a frame boundary", pa, n))
	}
	return f.PageBytes(pa.Floor())[off : off+uint64(n)]
}

// Destroy unmaps the arena. Frames still allocated are reported as leaked.
//
// Precondition: no frame or byte view of f is used after Destroy.
func (f *MemoryFile) Destroy() {
	if n := f.Allocated(); n != 0 {
		log.Warningf("Physical memory destroyed with %d frames still allocated", n)
	}
	if f.mapping == nil {
		return
	}
	if err := unix.Munmap(f.mapping); err != nil {
		panic(fmt.Sprintf("failed to unmap physical memory: %v", err))
	}
	f.mapping = nil
}
