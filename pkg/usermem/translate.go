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
	"strings"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/ring0/pagetables"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/safemem"
)

// TranslatedByteBuffer returns the physical memory backing [addr,
// addr+length) in the address space identified by token, as the minimal
// ordered sequence of Blocks that each lie within one page.
//
// Preconditions: Every page in the range is mapped. The range does not wrap.
func TranslatedByteBuffer(mem pagetables.Memory, token uint64, addr hostarch.Addr, length uint64) []safemem.Block {
	return translatedBlocks(mem, pagetables.FromToken(mem, token), addr, length)
}

func translatedBlocks(mem pagetables.Memory, pt *pagetables.PageTables, addr hostarch.Addr, length uint64) []safemem.Block {
	end, ok := addr.AddLength(length)
	if !ok {
		panic(fmt.Sprintf("usermem: range %v+%#x wraps", addr, length))
	}
	var blocks []safemem.Block
	for start := addr; start < end; {
		pte, ok := pt.Translate(start.Floor())
		if !ok {
			panic(fmt.Sprintf("usermem: %v is not mapped in %v", start, pt))
		}
		next := start.RoundDown() + hostarch.PageSize
		if next > end || next < start {
			next = end
		}
		off := start.PageOffset()
		page := mem.PageBytes(pte.PPN())
		blocks = append(blocks, safemem.BlockFromSafeSlice(page[off:off+uint64(next-start)]))
		start = next
	}
	return blocks
}

// TranslatedStr returns the NUL-terminated string at addr in the address
// space identified by token. Each byte is translated on its own, so
// TranslatedStr is meant for short strings such as paths. Bytes are returned
// unchanged; no text decoding is done.
//
// Preconditions: Every byte up to and including the NUL is mapped.
func TranslatedStr(mem pagetables.Memory, token uint64, addr hostarch.Addr) string {
	pt := pagetables.FromToken(mem, token)
	var sb strings.Builder
	for va := addr; ; va++ {
		pa, ok := pt.TranslateVA(va)
		if !ok {
			panic(fmt.Sprintf("usermem: string byte at %v is not mapped in %v", va, pt))
		}
		c := mem.PageBytes(pa.Floor())[pa.PageOffset()]
		if c == 0 {
			return sb.String()
		}
		sb.WriteByte(c)
	}
}

// IoVec is a user buffer descriptor as passed to readv and writev. Its layout
// matches struct iovec on 64-bit targets.
type IoVec struct {
	Base hostarch.Addr
	Len  uint64
}

// TranslatedIOVecs reads iovcnt IoVecs at iovAddr in the address space
// identified by token and returns a UserBuffer over all of the memory they
// describe, in order.
//
// Preconditions: The IoVec array and every non-empty buffer it describes are
// mapped.
func TranslatedIOVecs(mem pagetables.Memory, token uint64, iovAddr hostarch.Addr, iovcnt int) UserBuffer {
	pt := pagetables.FromToken(mem, token)
	var blocks []safemem.Block
	for _, iov := range TranslatedArrayCopy[IoVec](mem, token, iovAddr, iovcnt) {
		if iov.Len == 0 {
			continue
		}
		blocks = append(blocks, translatedBlocks(mem, pt, iov.Base, iov.Len)...)
	}
	return NewUserBuffer(blocks)
}
