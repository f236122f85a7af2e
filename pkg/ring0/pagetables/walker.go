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
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
)

const (
	// signBit is the top VPN bit; Sv39 addresses with it set are sign
	// extended.
	signBit = 1 << (hostarch.PageLevels*hostarch.PTEIndexBits - 1)

	// vpnMask selects the bits of a VPN derived from a 64-bit address.
	vpnMask = ^uint64(0) >> hostarch.PageShift
)

// VisitMappings calls fn for every valid leaf entry in increasing table
// order, stopping early if fn returns false. VPNs of the upper half of the
// address space are sign extended so that VPN.Addr is canonical.
func (p *PageTables) VisitMappings(fn func(vpn hostarch.VPN, pte PTE) bool) {
	p.visit(p.root, 0, 0, fn)
}

func (p *PageTables) visit(ppn hostarch.PPN, level int, prefix uint64, fn func(hostarch.VPN, PTE) bool) bool {
	entries := p.ptes(ppn)
	for i := range entries {
		pte := entries[i]
		if !pte.Valid() {
			continue
		}
		v := prefix<<hostarch.PTEIndexBits | uint64(i)
		if level < hostarch.PageLevels-1 {
			if !p.visit(pte.PPN(), level+1, v, fn) {
				return false
			}
			continue
		}
		if v&signBit != 0 {
			v |= vpnMask &^ (signBit<<1 - 1)
		}
		if !fn(hostarch.VPN(v), pte) {
			return false
		}
	}
	return true
}
