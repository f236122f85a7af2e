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

// Package pagetables provides an implementation of Sv39 page tables.
//
// Tables live in physical memory frames obtained from an Allocator. A
// PageTables created with New owns its root and every intermediate table it
// allocates; one created with FromToken is a view over tables owned elsewhere
// and may only be used for lookups.
package pagetables

import (
	"errors"
	"fmt"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
)

// ErrNotMapped is returned when a walk reaches an invalid intermediate entry.
var ErrNotMapped = errors.New("page not mapped")

const (
	// SATPModeSv39 is the translation mode tag of an Sv39 token.
	SATPModeSv39 uint64 = 8 << satpModeShift

	// satpModeShift is the position of the mode field in a token.
	satpModeShift = 60
)

// Memory gives access to the contents of physical frames.
type Memory interface {
	// PageBytes returns the contents of frame ppn. It panics if ppn is not
	// backed by memory.
	PageBytes(ppn hostarch.PPN) []byte
}

// Allocator provides frames for page tables.
type Allocator interface {
	Memory

	// Allocate returns a zeroed frame owned by the caller.
	Allocate() (*pgalloc.Frame, error)
}

// PageTables is a set of Sv39 page tables.
//
// PageTables is not synchronized; callers serialize access to a given address
// space.
type PageTables struct {
	// mem holds the tables.
	mem Memory

	// alloc is the frame source for new tables. It is nil for views.
	alloc Allocator

	// root is the page number of the root table.
	root hostarch.PPN

	// frames are all frames owned by these tables, root first, in
	// allocation order. Views own nothing.
	frames []*pgalloc.Frame

	// released is set by Release.
	released bool
}

// New returns new PageTables with a fresh, empty root table.
//
// Frame exhaustion is fatal.
func New(a Allocator) *PageTables {
	root, err := a.Allocate()
	if err != nil {
		panic(fmt.Sprintf("pagetables: allocating root table: %v", err))
	}
	return &PageTables{
		mem:    a,
		alloc:  a,
		root:   root.PPN(),
		frames: []*pgalloc.Frame{root},
	}
}

// FromToken returns a read-only view of the tables identified by token. The
// view owns no frames: Release is a no-op and any attempt to change a
// mapping through it is fatal.
func FromToken(mem Memory, token uint64) *PageTables {
	return &PageTables{
		mem:  mem,
		root: RootPPN(token),
	}
}

// RootPPN returns the root table page number encoded in token.
func RootPPN(token uint64) hostarch.PPN {
	return hostarch.PPN(token & hostarch.PPNMask)
}

// Token returns the satp value selecting these tables in Sv39 mode.
func (p *PageTables) Token() uint64 {
	return SATPModeSv39 | uint64(p.root)
}

// Root returns the page number of the root table.
func (p *PageTables) Root() hostarch.PPN {
	return p.root
}

// IsView returns true if p was created by FromToken.
func (p *PageTables) IsView() bool {
	return p.alloc == nil
}

// OwnedFrames returns the number of frames owned by p.
func (p *PageTables) OwnedFrames() int {
	return len(p.frames)
}

// checkMutable panics if p may not be used to change mappings.
func (p *PageTables) checkMutable(op string) {
	if p.alloc == nil {
		panic(fmt.Sprintf("pagetables: %s through a view of %v", op, p.root))
	}
	if p.released {
		panic(fmt.Sprintf("pagetables: %s after Release of %v", op, p.root))
	}
}

// Map installs a mapping of vpn to ppn. Valid is always added to flags.
//
// Precondition: vpn is not mapped. Remapping is fatal.
func (p *PageTables) Map(vpn hostarch.VPN, ppn hostarch.PPN, flags PTEFlags) {
	p.checkMutable("map")
	pte := p.findPTECreate(vpn)
	if pte.Valid() {
		panic(fmt.Sprintf("pagetables: %v is mapped before mapping (%v)", vpn, *pte))
	}
	*pte = NewPTE(ppn, flags|Valid)
}

// Unmap removes the mapping of vpn.
//
// Precondition: vpn is mapped. Unmapping an invalid entry is fatal.
func (p *PageTables) Unmap(vpn hostarch.VPN) {
	p.checkMutable("unmap")
	pte := p.findPTE(vpn)
	if pte == nil || !pte.Valid() {
		panic(fmt.Sprintf("pagetables: %v is invalid before unmapping", vpn))
	}
	pte.Clear()
}

// SetPTEFlags replaces the R, W and X bits of the leaf entry for vpn. It
// returns ErrNotMapped if an intermediate table is missing; the leaf itself
// is updated whether or not it is valid.
func (p *PageTables) SetPTEFlags(vpn hostarch.VPN, flags PTEFlags) error {
	p.checkMutable("set flags")
	pte := p.findPTE(vpn)
	if pte == nil {
		return ErrNotMapped
	}
	pte.SetFlags(flags)
	return nil
}

// Translate returns a copy of the leaf entry for vpn. ok is false if vpn is
// not mapped.
func (p *PageTables) Translate(vpn hostarch.VPN) (pte PTE, ok bool) {
	e := p.findPTE(vpn)
	if e == nil || !e.Valid() {
		return EmptyPTE(), false
	}
	return *e, true
}

// TranslateVA returns the physical address backing va. ok is false if the
// page containing va is not mapped.
func (p *PageTables) TranslateVA(va hostarch.Addr) (pa hostarch.PhysAddr, ok bool) {
	pte, ok := p.Translate(va.Floor())
	if !ok {
		return 0, false
	}
	return pte.PPN().Addr() + hostarch.PhysAddr(va.PageOffset()), true
}

// TranslateAccess is like TranslateVA, but also requires the leaf entry to
// permit every access in at.
func (p *PageTables) TranslateAccess(va hostarch.Addr, at hostarch.AccessType) (pa hostarch.PhysAddr, ok bool) {
	pte, ok := p.Translate(va.Floor())
	if !ok || !pte.Flags().AccessType().SupersetOf(at) {
		return 0, false
	}
	return pte.PPN().Addr() + hostarch.PhysAddr(va.PageOffset()), true
}

// Release releases every frame owned by p, each exactly once. It is a no-op
// for views and on subsequent calls.
func (p *PageTables) Release() {
	if p.alloc == nil || p.released {
		return
	}
	for _, f := range p.frames {
		f.Release()
	}
	p.frames = nil
	p.released = true
}

// String implements fmt.Stringer.String.
func (p *PageTables) String() string {
	if p.IsView() {
		return fmt.Sprintf("pagetables(view %v)", p.root)
	}
	return fmt.Sprintf("pagetables(%v, %d frames)", p.root, len(p.frames))
}

// TablesNeeded returns the number of intermediate tables Map would allocate
// to map the n pages starting at vpn.
func (p *PageTables) TablesNeeded(vpn hostarch.VPN, n int) int {
	// A missing table is identified by its level and the VPN bits above it.
	type table struct {
		level  int
		prefix hostarch.VPN
	}
	missing := make(map[table]struct{})
	for i := 0; i < n; i++ {
		v := vpn + hostarch.VPN(i)
		idx := v.Indexes()
		ppn := p.root
		for level := 0; level < hostarch.PageLevels-1; level++ {
			pte := p.ptes(ppn)[idx[level]]
			if !pte.Valid() {
				for l := level + 1; l < hostarch.PageLevels; l++ {
					shift := (hostarch.PageLevels - l) * hostarch.PTEIndexBits
					missing[table{l, v >> shift}] = struct{}{}
				}
				break
			}
			ppn = pte.PPN()
		}
	}
	return len(missing)
}

// findPTECreate returns the leaf entry for vpn, allocating any missing
// intermediate tables. New tables are linked with only Valid set.
func (p *PageTables) findPTECreate(vpn hostarch.VPN) *PTE {
	idx := vpn.Indexes()
	ppn := p.root
	for level := 0; ; level++ {
		pte := &p.ptes(ppn)[idx[level]]
		if level == hostarch.PageLevels-1 {
			return pte
		}
		if !pte.Valid() {
			f, err := p.alloc.Allocate()
			if err != nil {
				panic(fmt.Sprintf("pagetables: allocating level %d table for %v: %v", level+1, vpn, err))
			}
			*pte = NewPTE(f.PPN(), Valid)
			p.frames = append(p.frames, f)
			if log.IsLogging(log.Debug) {
				log.Debugf("pagetables: %v grew a level %d table at %v", p.root, level+1, f.PPN())
			}
		}
		ppn = pte.PPN()
	}
}

// findPTE returns the leaf entry for vpn without allocating, or nil if an
// intermediate entry is invalid.
func (p *PageTables) findPTE(vpn hostarch.VPN) *PTE {
	idx := vpn.Indexes()
	ppn := p.root
	for level := 0; ; level++ {
		pte := &p.ptes(ppn)[idx[level]]
		if level == hostarch.PageLevels-1 {
			return pte
		}
		if !pte.Valid() {
			return nil
		}
		ppn = pte.PPN()
	}
}
