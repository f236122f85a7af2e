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
	"slices"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/safemem"
)

// UserBuffer is one logical buffer made of disjoint, possibly discontiguous
// Blocks of physical memory, usually obtained from TranslatedByteBuffer.
//
// A UserBuffer does not own the memory it refers to.
type UserBuffer struct {
	blocks []safemem.Block
}

// NewUserBuffer returns a UserBuffer over blocks, in order.
func NewUserBuffer(blocks []safemem.Block) UserBuffer {
	return UserBuffer{blocks: blocks}
}

// Len returns the total length of b's Blocks.
func (b UserBuffer) Len() int {
	var n int
	for _, blk := range b.blocks {
		n += blk.Len()
	}
	return n
}

// Blocks returns the Blocks of b.
func (b UserBuffer) Blocks() []safemem.Block {
	return b.blocks
}

// BlockSeq returns b as a safemem.BlockSeq.
func (b UserBuffer) BlockSeq() safemem.BlockSeq {
	return safemem.BlockSeqFromSlice(b.blocks)
}

// Write copies min(b.Len(), len(src)) bytes from src into b and returns the
// number of bytes copied.
func (b UserBuffer) Write(src []byte) int {
	n, _ := safemem.CopySeq(b.BlockSeq(), safemem.BlockSeqOf(safemem.BlockFromSafeSlice(src)))
	return int(n)
}

// Read copies min(b.Len(), len(dst)) bytes from b into dst and returns the
// number of bytes copied.
func (b UserBuffer) Read(dst []byte) int {
	n, _ := safemem.CopySeq(safemem.BlockSeqOf(safemem.BlockFromSafeSlice(dst)), b.BlockSeq())
	return int(n)
}

// ReadAsVec appends the contents of b to dst and returns the extended slice.
// At most limit bytes are appended; a negative limit appends all of b.
func (b UserBuffer) ReadAsVec(dst []byte, limit int) []byte {
	n := b.Len()
	if limit >= 0 && limit < n {
		n = limit
	}
	dst = slices.Grow(dst, n)
	for _, blk := range b.blocks {
		if n == 0 {
			break
		}
		s := blk.TakeFirst(n).ToSlice()
		dst = append(dst, s...)
		n -= len(s)
	}
	return dst
}

// Iterator returns an iterator over the location of every byte in b.
func (b UserBuffer) Iterator() *UserBufferIterator {
	return &UserBufferIterator{blocks: b.blocks}
}

// UserBufferIterator yields the location of each byte of a UserBuffer in
// order. It cannot be restarted.
type UserBufferIterator struct {
	blocks []safemem.Block
	off    int
}

// Next returns the location of the next byte. ok is false once every byte has
// been returned.
func (it *UserBufferIterator) Next() (p *byte, ok bool) {
	for len(it.blocks) > 0 && it.off >= it.blocks[0].Len() {
		it.blocks = it.blocks[1:]
		it.off = 0
	}
	if len(it.blocks) == 0 {
		return nil, false
	}
	p = &it.blocks[0].ToSlice()[it.off]
	it.off++
	return p, true
}
