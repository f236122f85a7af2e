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

// Package hostarch describes the Sv39 memory model: address and page number
// types and the constants that fix their layout.
package hostarch

import (
	"encoding/binary"
)

const (
	// PageShift is the binary log of the page size.
	PageShift = 12

	// PageSize is the size of a page in bytes.
	PageSize = 1 << PageShift

	// PageMask selects the offset bits of an address.
	PageMask = PageSize - 1

	// PageLevels is the depth of every page table walk.
	PageLevels = 3

	// PTEIndexBits is the number of VPN bits consumed at each level.
	PTEIndexBits = 9

	// EntriesPerPage is the number of page table entries in one table.
	EntriesPerPage = 1 << PTEIndexBits

	// VABits is the number of significant virtual address bits.
	VABits = PageShift + PageLevels*PTEIndexBits

	// PPNBits is the width of a physical page number.
	PPNBits = 44

	// PPNMask selects the bits of a physical page number.
	PPNMask = (1 << PPNBits) - 1
)

// ByteOrder is the byte order of the target machine.
var ByteOrder = binary.LittleEndian
