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

// Package safemem provides the Block and BlockSeq types, which describe
// ranges of physical memory as seen by the kernel, and copying between them.
package safemem

import (
	"fmt"
	"unsafe"
)

// A Block is a range of contiguous bytes, similar to []byte but with the
// following differences:
//
//   - The length of a Block is fixed.
//
//   - Block values are comparable.
//
// Blocks are immutable and may be copied by value. The zero value of Block
// represents an empty range.
type Block struct {
	start  unsafe.Pointer
	length int
}

// BlockFromSafeSlice returns a Block equivalent to slice, which is safe to
// access without fault handling. Physical memory frames are always safe.
func BlockFromSafeSlice(slice []byte) Block {
	if len(slice) == 0 {
		return Block{}
	}
	return Block{
		start:  unsafe.Pointer(&slice[0]),
		length: len(slice),
	}
}

// Len returns the length of b in bytes.
func (b Block) Len() int {
	return b.length
}

// ToSlice returns a []byte equivalent to b.
func (b Block) ToSlice() []byte {
	if b.length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.start), b.length)
}

// Addr returns the address of the first byte of b, for display and
// comparison only.
func (b Block) Addr() uintptr {
	return uintptr(b.start)
}

// TakeFirst returns a Block equivalent to the first n bytes of b.
//
// Preconditions: n >= 0.
func (b Block) TakeFirst(n int) Block {
	if n < 0 {
		panic(fmt.Sprintf("invalid n: %d", n))
	}
	return b.TakeFirst64(uint64(n))
}

// TakeFirst64 is equivalent to TakeFirst but takes a uint64.
func (b Block) TakeFirst64(n uint64) Block {
	if n == 0 {
		return Block{}
	}
	if uint64(b.length) > n {
		b.length = int(n)
	}
	return b
}

// DropFirst returns a Block equivalent to b, but with the first n bytes
// omitted.
//
// Preconditions: n >= 0.
func (b Block) DropFirst(n int) Block {
	if n < 0 {
		panic(fmt.Sprintf("invalid n: %d", n))
	}
	return b.DropFirst64(uint64(n))
}

// DropFirst64 is equivalent to DropFirst but takes a uint64.
func (b Block) DropFirst64(n uint64) Block {
	if n >= uint64(b.length) {
		return Block{}
	}
	return Block{
		start:  unsafe.Add(b.start, int(n)),
		length: b.length - int(n),
	}
}

// String implements fmt.Stringer.String.
func (b Block) String() string {
	if b.start == nil && b.length == 0 {
		return "<nil>"
	}
	return fmt.Sprintf("[%#x-%#x)", b.Addr(), b.Addr()+uintptr(b.length))
}

// Copy copies min(dst.Len(), src.Len()) bytes from src to dst and returns
// the number of bytes copied.
//
// If src and dst overlap, the data stored in dst is unspecified.
func Copy(dst, src Block) (int, error) {
	return copy(dst.ToSlice(), src.ToSlice()), nil
}
