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

// Package bits includes all bit related types and operations.
package bits

// IsOn64 returns true if *all* bits set in 'bits' are set in 'mask'.
func IsOn64(mask, bits uint64) bool {
	return mask&bits == bits
}

// IsAnyOn64 returns true if *any* bit set in 'bits' is set in 'mask'.
func IsAnyOn64(mask, bits uint64) bool {
	return mask&bits != 0
}

// Mask64 returns a uint64 with all of the given bits set.
func Mask64(is ...int) uint64 {
	ret := uint64(0)
	for _, i := range is {
		ret |= MaskOf64(i)
	}
	return ret
}

// MaskOf64 is like Mask64, but sets only a single bit (more efficiently).
func MaskOf64(i int) uint64 {
	return uint64(1) << uint64(i)
}

// FieldMask64 returns a mask covering bits [lo, lo+width).
func FieldMask64(lo, width int) uint64 {
	if width >= 64 {
		return ^uint64(0) << uint64(lo)
	}
	return ((uint64(1) << uint64(width)) - 1) << uint64(lo)
}

// Field64 extracts bits [lo, lo+width) of v, shifted down to bit 0.
func Field64(v uint64, lo, width int) uint64 {
	return (v & FieldMask64(lo, width)) >> uint64(lo)
}

// Replace64 returns v with the bits selected by mask taken from bits. Bits
// of v outside mask are returned unchanged.
func Replace64(v, mask, bits uint64) uint64 {
	return (v &^ mask) | (bits & mask)
}

// ForEachSetBit64 calls f once for each set bit in x, with argument i equal
// to the set bit's index, in increasing order.
func ForEachSetBit64(x uint64, f func(i int)) {
	for i := 0; x != 0; i++ {
		if x&1 != 0 {
			f(i)
		}
		x >>= 1
	}
}
