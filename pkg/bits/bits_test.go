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

package bits

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestForEachSetBit64(t *testing.T) {
	for _, want := range [][]int{
		{},
		{0},
		{1},
		{63},
		{0, 1},
		{1, 3, 5},
		{0, 63},
	} {
		n := Mask64(want...)
		got := make([]int, 0)
		ForEachSetBit64(n, func(i int) {
			got = append(got, i)
		})
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ForEachSetBit64(%#x) mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestIsOn(t *testing.T) {
	type testCase struct {
		mask uint64
		bits uint64
		any  bool
		all  bool
	}
	for _, s := range []testCase{
		{Mask64(0), Mask64(0), true, true},
		{Mask64(63), Mask64(63), true, true},
		{Mask64(0), Mask64(1), false, false},
		{Mask64(0), Mask64(0, 1), true, false},

		{Mask64(1, 63), Mask64(1), true, true},
		{Mask64(1, 63), Mask64(1, 63), true, true},
		{Mask64(1, 63), Mask64(0, 1, 63), true, false},
		{Mask64(1, 63), Mask64(0, 62), false, false},
	} {
		if ok := IsAnyOn64(s.mask, s.bits); ok != s.any {
			t.Errorf("IsAnyOn64(%#x, %#x) = %v, wanted: %v", s.mask, s.bits, ok, s.any)
		}
		if ok := IsOn64(s.mask, s.bits); ok != s.all {
			t.Errorf("IsOn64(%#x, %#x) = %v, wanted: %v", s.mask, s.bits, ok, s.all)
		}
	}
}

func TestField64(t *testing.T) {
	for _, s := range []struct {
		v     uint64
		lo    int
		width int
		want  uint64
	}{
		{0xff, 0, 8, 0xff},
		{0xff, 4, 4, 0xf},
		{0x3ff << 10, 10, 44, 0x3ff},
		{^uint64(0), 10, 44, (1 << 44) - 1},
		{^uint64(0), 0, 64, ^uint64(0)},
		{0x1234, 16, 8, 0},
	} {
		if got := Field64(s.v, s.lo, s.width); got != s.want {
			t.Errorf("Field64(%#x, %d, %d) = %#x, wanted %#x", s.v, s.lo, s.width, got, s.want)
		}
	}
}

func TestReplace64(t *testing.T) {
	for _, s := range []struct {
		v, mask, bits, want uint64
	}{
		{0, 0b1110, 0xff, 0b1110},
		{0xff, 0b1110, 0, 0xf1},
		{0xf0f0, 0x0ff0, 0x1234, 0xf230},
		{0xdead, 0, ^uint64(0), 0xdead},
	} {
		if got := Replace64(s.v, s.mask, s.bits); got != s.want {
			t.Errorf("Replace64(%#x, %#x, %#x) = %#x, wanted %#x", s.v, s.mask, s.bits, got, s.want)
		}
	}
}
