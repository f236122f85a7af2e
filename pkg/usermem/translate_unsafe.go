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

package usermem

import (
	"fmt"
	"unsafe"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/ring0/pagetables"
)

// TranslatedRef returns a reference to the T at addr in the address space
// identified by token.
//
// T must not contain Go pointers.
//
// Preconditions: addr is mapped. The T at addr does not straddle a page
// boundary.
func TranslatedRef[T any](mem pagetables.Memory, token uint64, addr hostarch.Addr) *T {
	var v T
	return (*T)(translatedPtr(mem, pagetables.FromToken(mem, token), addr, unsafe.Sizeof(v), false))
}

// TranslatedRefMut is like TranslatedRef, but the caller intends to write
// through the result, so the page must also be mapped writable.
func TranslatedRefMut[T any](mem pagetables.Memory, token uint64, addr hostarch.Addr) *T {
	var v T
	return (*T)(translatedPtr(mem, pagetables.FromToken(mem, token), addr, unsafe.Sizeof(v), true))
}

// TranslatedRefArray returns references to n consecutive Ts starting at addr.
// Each element is translated on its own.
//
// Preconditions: As for TranslatedRef, for every element.
func TranslatedRefArray[T any](mem pagetables.Memory, token uint64, addr hostarch.Addr, n int) []*T {
	return translatedRefArray[T](mem, token, addr, n, false)
}

// TranslatedRefArrayMut is like TranslatedRefArray, but every element must
// also be mapped writable.
func TranslatedRefArrayMut[T any](mem pagetables.Memory, token uint64, addr hostarch.Addr, n int) []*T {
	return translatedRefArray[T](mem, token, addr, n, true)
}

func translatedRefArray[T any](mem pagetables.Memory, token uint64, addr hostarch.Addr, n int, write bool) []*T {
	var v T
	size := unsafe.Sizeof(v)
	pt := pagetables.FromToken(mem, token)
	refs := make([]*T, n)
	for i := range refs {
		refs[i] = (*T)(translatedPtr(mem, pt, addr+hostarch.Addr(uintptr(i)*size), size, write))
	}
	return refs
}

// TranslatedArrayCopy returns a copy of n consecutive Ts starting at addr.
// Elements may straddle page boundaries.
//
// Preconditions: Every byte of the array is mapped.
func TranslatedArrayCopy[T any](mem pagetables.Memory, token uint64, addr hostarch.Addr, n int) []T {
	out := make([]T, n)
	if n == 0 {
		return out
	}
	size := unsafe.Sizeof(out[0])
	pt := pagetables.FromToken(mem, token)
	for i := range out {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(&out[i])), size)
		buf := NewUserBuffer(translatedBlocks(mem, pt, addr+hostarch.Addr(uintptr(i)*size), uint64(size)))
		buf.Read(dst)
	}
	return out
}

func translatedPtr(mem pagetables.Memory, pt *pagetables.PageTables, addr hostarch.Addr, size uintptr, write bool) unsafe.Pointer {
	pte, ok := pt.Translate(addr.Floor())
	if !ok {
		panic(fmt.Sprintf("usermem: %v is not mapped in %v", addr, pt))
	}
	if write && !pte.Writable() {
		panic(fmt.Sprintf("usermem: %v is not writable (%v)", addr, pte))
	}
	off := addr.PageOffset()
	if off+uint64(size) > hostarch.PageSize {
		panic(fmt.Sprintf("usermem: %d-byte value at %v straddles a page boundary", size, addr))
	}
	return unsafe.Pointer(&mem.PageBytes(pte.PPN())[off])
}
