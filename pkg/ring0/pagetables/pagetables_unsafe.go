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
	"unsafe"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
)

// ptes returns the table stored in frame ppn.
//
// Entries are accessed in host byte order; the MMU reads them little endian,
// which every supported host is.
func (p *PageTables) ptes(ppn hostarch.PPN) *PTEs {
	b := p.mem.PageBytes(ppn)
	if len(b) != hostarch.PageSize {
		panic(fmt.Sprintf("pagetables: frame %v has %d bytes", ppn, len(b)))
	}
	ptr := unsafe.Pointer(&b[0])
	if uintptr(ptr)%unsafe.Alignof(PTE(0)) != 0 {
		panic(fmt.Sprintf("pagetables: frame %v is misaligned", ppn))
	}
	return (*PTEs)(ptr)
}
