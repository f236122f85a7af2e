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
	"fmt"
	"strings"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/bits"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
)

// PTEFlags are the low eight bits of a page table entry.
type PTEFlags uint8

// Sv39 PTE flags, in hardware bit order.
const (
	Valid PTEFlags = 1 << iota
	Read
	Write
	Execute
	User
	Global
	Accessed
	Dirty
)

const (
	// flagBits is the width of the flags field.
	flagBits = 8

	// ppnShift is the position of the PPN field.
	ppnShift = 10

	// permMask selects the bits SetFlags may change: R, W and X.
	permMask = uint64(Read | Write | Execute)
)

// flagLetters names each flag bit, lowest bit first.
const flagLetters = "vrwxugad"

// String renders f in bit order, with '-' for clear bits, e.g. "vrw-u---".
func (f PTEFlags) String() string {
	var b [flagBits]byte
	for i := range b {
		if bits.IsOn64(uint64(f), bits.MaskOf64(i)) {
			b[i] = flagLetters[i]
		} else {
			b[i] = '-'
		}
	}
	return string(b[:])
}

// ParsePTEFlags parses the letters produced by PTEFlags.String. Letters may
// appear in any order and case; '-' is ignored.
func ParsePTEFlags(s string) (PTEFlags, error) {
	var f PTEFlags
	for _, c := range strings.ToLower(s) {
		if c == '-' {
			continue
		}
		i := strings.IndexRune(flagLetters, c)
		if i < 0 {
			return 0, fmt.Errorf("unknown PTE flag %q in %q", c, s)
		}
		f |= PTEFlags(bits.MaskOf64(i))
	}
	return f, nil
}

// AccessType returns the permissions granted by f.
func (f PTEFlags) AccessType() hostarch.AccessType {
	return hostarch.AccessType{
		Read:    f&Read != 0,
		Write:   f&Write != 0,
		Execute: f&Execute != 0,
	}
}

// PTE is a page table entry in the Sv39 format: flags in bits [0,8), the
// physical page number in bits [10,54).
type PTE uint64

// PTEs is a collection of entries: one page table.
type PTEs [hostarch.EntriesPerPage]PTE

// NewPTE returns an entry pointing at ppn with the given flags.
func NewPTE(ppn hostarch.PPN, flags PTEFlags) PTE {
	return PTE((uint64(ppn)&hostarch.PPNMask)<<ppnShift | uint64(flags))
}

// EmptyPTE returns an invalid entry with every bit clear.
func EmptyPTE() PTE {
	return 0
}

// PPN returns the physical page number of the entry.
func (p PTE) PPN() hostarch.PPN {
	return hostarch.PPN(bits.Field64(uint64(p), ppnShift, hostarch.PPNBits))
}

// Flags returns the flag bits of the entry.
func (p PTE) Flags() PTEFlags {
	return PTEFlags(bits.Field64(uint64(p), 0, flagBits))
}

func (p PTE) has(f PTEFlags) bool {
	return bits.IsAnyOn64(uint64(p), uint64(f))
}

// Valid returns true iff V is set.
func (p PTE) Valid() bool { return p.has(Valid) }

// Readable returns true iff R is set.
func (p PTE) Readable() bool { return p.has(Read) }

// Writable returns true iff W is set.
func (p PTE) Writable() bool { return p.has(Write) }

// Executable returns true iff X is set.
func (p PTE) Executable() bool { return p.has(Execute) }

// User returns true iff U is set.
func (p PTE) User() bool { return p.has(User) }

// Global returns true iff G is set.
func (p PTE) Global() bool { return p.has(Global) }

// Accessed returns true iff A is set.
func (p PTE) Accessed() bool { return p.has(Accessed) }

// Dirty returns true iff D is set.
func (p PTE) Dirty() bool { return p.has(Dirty) }

// SetFlags replaces the R, W and X bits with those in flags. Every other bit,
// including V, U, G, A and D, is left untouched.
func (p *PTE) SetFlags(flags PTEFlags) {
	*p = PTE(bits.Replace64(uint64(*p), permMask, uint64(flags)))
}

// Clear makes the entry empty.
func (p *PTE) Clear() {
	*p = EmptyPTE()
}

// String implements fmt.Stringer.String.
func (p PTE) String() string {
	return fmt.Sprintf("pte{%v %v}", p.PPN(), p.Flags())
}
