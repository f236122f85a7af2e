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

package hostarch

import (
	"fmt"
)

// VPN is a virtual page number.
type VPN uint64

// Addr returns the address of the first byte of the page.
func (vpn VPN) Addr() Addr {
	return Addr(vpn) << PageShift
}

// Indexes returns the table index used at each level of a walk, root first.
func (vpn VPN) Indexes() [PageLevels]int {
	var idx [PageLevels]int
	v := uint64(vpn)
	for i := PageLevels - 1; i >= 0; i-- {
		idx[i] = int(v & (EntriesPerPage - 1))
		v >>= PTEIndexBits
	}
	return idx
}

// String implements fmt.Stringer.String.
func (vpn VPN) String() string {
	return fmt.Sprintf("vpn:%#x", uint64(vpn))
}

// PPN is a physical page number.
type PPN uint64

// Addr returns the physical address of the first byte of the frame.
func (ppn PPN) Addr() PhysAddr {
	return PhysAddr(ppn) << PageShift
}

// String implements fmt.Stringer.String.
func (ppn PPN) String() string {
	return fmt.Sprintf("ppn:%#x", uint64(ppn))
}

// PhysAddr is a physical address.
type PhysAddr uint64

// Floor returns the number of the frame containing pa.
func (pa PhysAddr) Floor() PPN {
	return PPN(pa >> PageShift)
}

// PageOffset returns the offset of pa into its frame.
func (pa PhysAddr) PageOffset() uint64 {
	return uint64(pa & PageMask)
}

// String implements fmt.Stringer.String.
func (pa PhysAddr) String() string {
	return fmt.Sprintf("%#x", uint64(pa))
}
