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

package pagetables

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
)

type mapping struct {
	VPN   hostarch.VPN
	PPN   hostarch.PPN
	Flags PTEFlags
}

func newTestMemoryFile(t *testing.T, frames int) *pgalloc.MemoryFile {
	t.Helper()
	mf, err := pgalloc.NewMemoryFile(pgalloc.Opts{Frames: frames})
	if err != nil {
		t.Fatalf("NewMemoryFile failed: %v", err)
	}
	t.Cleanup(func() {
		if n := mf.Allocated(); n != 0 {
			t.Errorf("%d frames leaked", n)
		}
		mf.Destroy()
	})
	return mf
}

func mustPanic(t *testing.T, substr string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", substr)
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, substr) {
			t.Fatalf("panic %v does not contain %q", r, substr)
		}
	}()
	fn()
}

func checkMappings(t *testing.T, pt *PageTables, want []mapping) {
	t.Helper()
	var got []mapping
	pt.VisitMappings(func(vpn hostarch.VPN, pte PTE) bool {
		got = append(got, mapping{VPN: vpn, PPN: pte.PPN(), Flags: pte.Flags()})
		return true
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mappings differ (-want +got):\n%s", diff)
	}
}

func TestNewIsEmpty(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	checkMappings(t, pt, nil)
	if got := pt.OwnedFrames(); got != 1 {
		t.Errorf("OwnedFrames() = %d, wanted 1", got)
	}
	if _, ok := pt.Translate(0x10); ok {
		t.Errorf("Translate on empty tables succeeded")
	}
}

func TestMapTranslate(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	pt.Map(0x10, 0x80005, Read|Write|User)
	pte, ok := pt.Translate(0x10)
	if !ok {
		t.Fatalf("Translate(0x10) failed")
	}
	if got, want := pte.PPN(), hostarch.PPN(0x80005); got != want {
		t.Errorf("PPN() = %v, wanted %v", got, want)
	}
	if got, want := pte.Flags(), Valid|Read|Write|User; got != want {
		t.Errorf("Flags() = %v, wanted %v", got, want)
	}
	// Root plus one table per lower level.
	if got := pt.OwnedFrames(); got != hostarch.PageLevels {
		t.Errorf("OwnedFrames() = %d, wanted %d", got, hostarch.PageLevels)
	}

	// A neighbour shares every intermediate table.
	pt.Map(0x11, 0x80006, Read)
	if got := pt.OwnedFrames(); got != hostarch.PageLevels {
		t.Errorf("OwnedFrames() after neighbour = %d, wanted %d", got, hostarch.PageLevels)
	}
	checkMappings(t, pt, []mapping{
		{0x10, 0x80005, Valid | Read | Write | User},
		{0x11, 0x80006, Valid | Read},
	})
}

func TestMappingsInTableOrder(t *testing.T) {
	mf := newTestMemoryFile(t, 16)
	pt := New(mf)
	defer pt.Release()

	high := hostarch.VPN(^uint64(0) >> hostarch.PageShift) // Last page of the address space.
	pt.Map(high, 0x3, Read)
	pt.Map(0x40000, 0x2, Read)
	pt.Map(0x1, 0x1, Read)
	checkMappings(t, pt, []mapping{
		{0x1, 0x1, Valid | Read},
		{0x40000, 0x2, Valid | Read},
		{high, 0x3, Valid | Read},
	})
	if got, want := high.Addr(), hostarch.Addr(0xfffffffffffff000); got != want {
		t.Errorf("high.Addr() = %v, wanted %v", got, want)
	}
}

func TestVisitMappingsStops(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	for i := 0; i < 4; i++ {
		pt.Map(hostarch.VPN(i), hostarch.PPN(i), Read)
	}
	n := 0
	pt.VisitMappings(func(hostarch.VPN, PTE) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Errorf("visited %d mappings, wanted 2", n)
	}
}

func TestUnmap(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	pt.Map(0x400, 0x80042, Read|Write)
	pt.Unmap(0x400)
	if _, ok := pt.Translate(0x400); ok {
		t.Errorf("Translate after Unmap succeeded")
	}
	if _, ok := pt.TranslateVA(0x400123); ok {
		t.Errorf("TranslateVA after Unmap succeeded")
	}
	checkMappings(t, pt, nil)

	// The page may be mapped again.
	pt.Map(0x400, 0x80043, Read)
	checkMappings(t, pt, []mapping{{0x400, 0x80043, Valid | Read}})
}

func TestMapTwicePanics(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	pt.Map(0x20, 0x1, Read)
	mustPanic(t, "is mapped before mapping", func() {
		pt.Map(0x20, 0x2, Read)
	})
}

func TestUnmapUnmappedPanics(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	// No intermediate tables.
	mustPanic(t, "is invalid before unmapping", func() {
		pt.Unmap(0x30)
	})
	// Intermediate tables present, leaf invalid.
	pt.Map(0x31, 0x1, Read)
	mustPanic(t, "is invalid before unmapping", func() {
		pt.Unmap(0x30)
	})
	if got := pt.OwnedFrames(); got != hostarch.PageLevels {
		t.Errorf("OwnedFrames() = %d, wanted %d", got, hostarch.PageLevels)
	}
}

func TestSetPTEFlags(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	pt.Map(0x50, 0x80001, Read|Write|User)
	if err := pt.SetPTEFlags(0x50, Read|Execute|Dirty); err != nil {
		t.Fatalf("SetPTEFlags failed: %v", err)
	}
	pte, ok := pt.Translate(0x50)
	if !ok {
		t.Fatalf("Translate failed")
	}
	// Dirty is outside the permission bits and is ignored.
	if got, want := pte.Flags(), Valid|Read|Execute|User; got != want {
		t.Errorf("Flags() = %v, wanted %v", got, want)
	}
	if got, want := pte.PPN(), hostarch.PPN(0x80001); got != want {
		t.Errorf("PPN() = %v, wanted %v", got, want)
	}

	if err := pt.SetPTEFlags(0x7fffff, Read); err != ErrNotMapped {
		t.Errorf("SetPTEFlags on missing table = %v, wanted %v", err, ErrNotMapped)
	}

	// An invalid leaf under existing tables is updated but stays unmapped.
	if err := pt.SetPTEFlags(0x51, Read|Write); err != nil {
		t.Errorf("SetPTEFlags on invalid leaf failed: %v", err)
	}
	if _, ok := pt.Translate(0x51); ok {
		t.Errorf("invalid leaf became mapped")
	}
}

func TestTranslateVA(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	pt.Map(0x12345, 0x80042, Read)
	for _, tc := range []struct {
		va   hostarch.Addr
		want hostarch.PhysAddr
		ok   bool
	}{
		{0x12345000, 0x80042000, true},
		{0x12345abc, 0x80042abc, true},
		{0x12345fff, 0x80042fff, true},
		{0x12346000, 0, false},
		{0x12344fff, 0, false},
	} {
		got, ok := pt.TranslateVA(tc.va)
		if ok != tc.ok || got != tc.want {
			t.Errorf("TranslateVA(%v) = %v, %v, wanted %v, %v", tc.va, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTranslateAccess(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	pt.Map(0x1, 0x80001, Read|User)
	if pa, ok := pt.TranslateAccess(0x1008, hostarch.Read); !ok || pa != 0x80001008 {
		t.Errorf("TranslateAccess(read) = %v, %v, wanted 0x80001008, true", pa, ok)
	}
	if _, ok := pt.TranslateAccess(0x1008, hostarch.ReadWrite); ok {
		t.Errorf("TranslateAccess(write) on read-only page succeeded")
	}
}

func TestToken(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	tok := pt.Token()
	if got, want := tok>>satpModeShift, uint64(8); got != want {
		t.Errorf("token mode = %d, wanted %d", got, want)
	}
	if got, want := RootPPN(tok), pt.Root(); got != want {
		t.Errorf("RootPPN(token) = %v, wanted %v", got, want)
	}
	if got, want := tok&hostarch.PPNMask, uint64(pgalloc.DefaultBasePPN); got != want {
		t.Errorf("token PPN = %#x, wanted %#x", got, want)
	}

	pt.Map(0x1, 0x2, Read)
	pt.Unmap(0x1)
	if got := pt.Token(); got != tok {
		t.Errorf("token changed from %#x to %#x", tok, got)
	}
}

func TestFromToken(t *testing.T) {
	mf := newTestMemoryFile(t, 8)
	pt := New(mf)
	defer pt.Release()

	pt.Map(0x77, 0x80077, Read|Write|User)
	view := FromToken(mf, pt.Token())
	if !view.IsView() {
		t.Errorf("IsView() = false")
	}
	if got := view.Token(); got != pt.Token() {
		t.Errorf("view token = %#x, wanted %#x", got, pt.Token())
	}
	pa, ok := view.TranslateVA(0x77010)
	if !ok || pa != 0x80077010 {
		t.Errorf("view.TranslateVA = %v, %v, wanted 0x80077010, true", pa, ok)
	}
	checkMappings(t, view, []mapping{{0x77, 0x80077, Valid | Read | Write | User}})

	mustPanic(t, "through a view", func() {
		view.Map(0x78, 0x1, Read)
	})
	mustPanic(t, "through a view", func() {
		view.Unmap(0x77)
	})
	mustPanic(t, "through a view", func() {
		view.SetPTEFlags(0x77, Read)
	})

	// Releasing a view frees nothing.
	before := mf.Allocated()
	view.Release()
	if got := mf.Allocated(); got != before {
		t.Errorf("Allocated() after view.Release = %d, wanted %d", got, before)
	}
}

func TestReleaseFreesAllFrames(t *testing.T) {
	mf := newTestMemoryFile(t, 32)
	pt := New(mf)
	for _, vpn := range []hostarch.VPN{0x0, 0x200, 0x40000, 0x7ffffff} {
		pt.Map(vpn, 0x1, Read)
	}
	if got, want := mf.Allocated(), pt.OwnedFrames(); got != want {
		t.Errorf("Allocated() = %d, wanted %d", got, want)
	}
	pt.Release()
	if got := mf.Allocated(); got != 0 {
		t.Errorf("Allocated() after Release = %d, wanted 0", got)
	}
	// Release is idempotent.
	pt.Release()
	mustPanic(t, "after Release", func() {
		pt.Map(0x1, 0x1, Read)
	})
}

func TestExhaustionPanics(t *testing.T) {
	mf := newTestMemoryFile(t, 2)
	pt := New(mf)
	defer pt.Release()

	// Needs two intermediate tables but only one frame is left.
	mustPanic(t, "allocating level", func() {
		pt.Map(0x1, 0x1, Read)
	})
}

func TestNewExhaustionPanics(t *testing.T) {
	mf := newTestMemoryFile(t, 1)
	pt := New(mf)
	defer pt.Release()
	mustPanic(t, "allocating root table", func() {
		New(mf)
	})
}

func TestTablesNeeded(t *testing.T) {
	mf := newTestMemoryFile(t, 16)
	pt := New(mf)
	defer pt.Release()

	for _, tc := range []struct {
		vpn  hostarch.VPN
		n    int
		want int
	}{
		{0x10, 0, 0},
		{0x10, 1, 2},
		{0x10, 3, 2},
		// Crosses into the next level 2 table.
		{0x1ff, 2, 3},
		// Crosses into the next level 1 table.
		{0x3ffff, 2, 4},
	} {
		if got := pt.TablesNeeded(tc.vpn, tc.n); got != tc.want {
			t.Errorf("TablesNeeded(%v, %d) = %d, wanted %d", tc.vpn, tc.n, got, tc.want)
		}
	}

	pt.Map(0x10, 0x1, Read)
	before := pt.OwnedFrames()
	if got := pt.TablesNeeded(0x11, 1); got != 0 {
		t.Errorf("TablesNeeded next to a mapping = %d, wanted 0", got)
	}
	if got := pt.TablesNeeded(0x200, 1); got != 1 {
		t.Errorf("TablesNeeded under a shared level 1 table = %d, wanted 1", got)
	}
	if got := pt.OwnedFrames(); got != before {
		t.Errorf("TablesNeeded allocated: %d frames owned, wanted %d", got, before)
	}
}
