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


package safemem

import (
	"fmt"
	"strings"
)

// BlockSeq is an ordered list of Blocks viewed as one byte stream, such as
// the per-page fragments of a user buffer. It never yields an empty Block.
//
// A BlockSeq is a value: trimming returns a new BlockSeq and never changes
// the Blocks it was built from. The zero value is the empty sequence.
type BlockSeq struct {
	// blocks holds the remaining Blocks. blocks[0], if present, is longer
	// than skip.
	blocks []Block

	// skip bytes at the start of blocks[0] were dropped.
	skip int

	// size is the length of the stream. It may end partway through a
	// Block; size == 0 iff the sequence is empty.
	size uint64
}

// BlockSeqOf returns the sequence holding just b.
func BlockSeqOf(b Block) BlockSeq {
	return BlockSeqFromSlice([]Block{b})
}

// BlockSeqFromSlice returns the concatenation of blocks. Empty Blocks are
// skipped. blocks must not be modified while the sequence is in use.
func BlockSeqFromSlice(blocks []Block) BlockSeq {
	var size uint64
	for _, b := range blocks {
		next := size + uint64(b.Len())
		if next < size {
			panic("safemem: BlockSeq length overflows uint64")
		}
		size = next
	}
	return newBlockSeq(blocks, 0, size)
}

// newBlockSeq returns the first size bytes of blocks after skipping skip
// bytes of blocks[0]. It drops leading empty Blocks.
func newBlockSeq(blocks []Block, skip int, size uint64) BlockSeq {
	for len(blocks) != 0 && blocks[0].Len() == skip {
		blocks, skip = blocks[1:], 0
	}
	if len(blocks) == 0 || size == 0 {
		return BlockSeq{}
	}
	return BlockSeq{blocks: blocks, skip: skip, size: size}
}

// IsEmpty returns true if bs holds no bytes.
func (bs BlockSeq) IsEmpty() bool {
	return bs.size == 0
}

// NumBytes returns the length of bs in bytes.
func (bs BlockSeq) NumBytes() uint64 {
	return bs.size
}

// headLen returns the length of the first Block of a non-empty bs.
func (bs BlockSeq) headLen() uint64 {
	return min(uint64(bs.blocks[0].Len()-bs.skip), bs.size)
}

// Head returns the first Block of bs. It is never empty.
//
// Preconditions: !bs.IsEmpty().
func (bs BlockSeq) Head() Block {
	if bs.IsEmpty() {
		panic("safemem: Head of empty BlockSeq")
	}
	return bs.blocks[0].DropFirst(bs.skip).TakeFirst64(bs.size)
}

// Tail returns bs without its first Block.
//
// Preconditions: !bs.IsEmpty().
func (bs BlockSeq) Tail() BlockSeq {
	if bs.IsEmpty() {
		panic("safemem: Tail of empty BlockSeq")
	}
	return newBlockSeq(bs.blocks[1:], 0, bs.size-bs.headLen())
}

// DropFirst returns bs without its first n bytes.
//
// Preconditions: n >= 0.
func (bs BlockSeq) DropFirst(n int) BlockSeq {
	if n < 0 {
		panic(fmt.Sprintf("safemem: DropFirst(%d)", n))
	}
	return bs.DropFirst64(uint64(n))
}

// DropFirst64 is DropFirst for a uint64 count.
func (bs BlockSeq) DropFirst64(n uint64) BlockSeq {
	for !bs.IsEmpty() {
		h := bs.headLen()
		if n < h {
			return newBlockSeq(bs.blocks, bs.skip+int(n), bs.size-n)
		}
		n -= h
		bs = bs.Tail()
	}
	return BlockSeq{}
}

// TakeFirst returns the first n bytes of bs, or all of bs if it is shorter.
//
// Preconditions: n >= 0.
func (bs BlockSeq) TakeFirst(n int) BlockSeq {
	if n < 0 {
		panic(fmt.Sprintf("safemem: TakeFirst(%d)", n))
	}
	return bs.TakeFirst64(uint64(n))
}

// TakeFirst64 is TakeFirst for a uint64 count.
func (bs BlockSeq) TakeFirst64(n uint64) BlockSeq {
	if n >= bs.size {
		return bs
	}
	return newBlockSeq(bs.blocks, bs.skip, n)
}

// Blocks returns the Blocks of bs, trimmed to the sequence, in a new slice.
func (bs BlockSeq) Blocks() []Block {
	var out []Block
	for ; !bs.IsEmpty(); bs = bs.Tail() {
		out = append(out, bs.Head())
	}
	return out
}

// String implements fmt.Stringer.String.
func (bs BlockSeq) String() string {
	parts := make([]string, 0, len(bs.blocks))
	for _, b := range bs.Blocks() {
		parts = append(parts, b.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// CopySeq copies from srcs into dsts until either runs out and returns the
// number of bytes copied. Overlapping sequences leave dsts unspecified.
func CopySeq(dsts, srcs BlockSeq) (uint64, error) {
	var done uint64
	for !dsts.IsEmpty() && !srcs.IsEmpty() {
		n, err := Copy(dsts.Head(), srcs.Head())
		done += uint64(n)
		if err != nil {
			return done, err
		}
		dsts = dsts.DropFirst(n)
		srcs = srcs.DropFirst(n)
	}
	return done, nil
}
