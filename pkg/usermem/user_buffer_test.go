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
	"bytes"
	"testing"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/safemem"
)

func newTestUserBuffer(sizes ...int) (UserBuffer, [][]byte) {
	var (
		blocks []safemem.Block
		bufs   [][]byte
	)
	for _, n := range sizes {
		b := make([]byte, n)
		bufs = append(bufs, b)
		blocks = append(blocks, safemem.BlockFromSafeSlice(b))
	}
	return NewUserBuffer(blocks), bufs
}

func TestUserBufferWriteClips(t *testing.T) {
	ub, bufs := newTestUserBuffer(3, 5)
	src := []byte("0123456789")
	if n := ub.Write(src); n != 8 {
		t.Fatalf("Write returned %d, wanted 8", n)
	}
	if !bytes.Equal(bufs[0], src[0:3]) {
		t.Errorf("fragment 1 = %q, wanted %q", bufs[0], src[0:3])
	}
	if !bytes.Equal(bufs[1], src[3:8]) {
		t.Errorf("fragment 2 = %q, wanted %q", bufs[1], src[3:8])
	}
}

func TestUserBufferShortWrite(t *testing.T) {
	ub, bufs := newTestUserBuffer(3, 5)
	if n := ub.Write([]byte("abcd")); n != 4 {
		t.Fatalf("Write returned %d, wanted 4", n)
	}
	if got := string(bufs[0]) + string(bufs[1][:1]); got != "abcd" {
		t.Errorf("contents = %q, wanted %q", got, "abcd")
	}
	if bufs[1][1] != 0 {
		t.Errorf("Write went past the source")
	}
}

func TestUserBufferRead(t *testing.T) {
	ub, _ := newTestUserBuffer(2, 0, 4)
	ub.Write([]byte("abcdef"))
	if got := ub.Len(); got != 6 {
		t.Errorf("Len() = %d, wanted 6", got)
	}
	small := make([]byte, 3)
	if n := ub.Read(small); n != 3 || string(small) != "abc" {
		t.Errorf("Read = %d, %q, wanted 3, %q", n, small, "abc")
	}
	big := make([]byte, 10)
	if n := ub.Read(big); n != 6 || string(big[:n]) != "abcdef" {
		t.Errorf("Read = %d, %q, wanted 6, %q", n, big[:n], "abcdef")
	}
}

func TestUserBufferReadAsVec(t *testing.T) {
	ub, _ := newTestUserBuffer(3, 5)
	ub.Write([]byte("abcdefgh"))
	for _, tc := range []struct {
		limit int
		want  string
	}{
		{-1, "xxabcdefgh"},
		{0, "xx"},
		{4, "xxabcd"},
		{100, "xxabcdefgh"},
	} {
		if got := string(ub.ReadAsVec([]byte("xx"), tc.limit)); got != tc.want {
			t.Errorf("ReadAsVec(limit=%d) = %q, wanted %q", tc.limit, got, tc.want)
		}
	}
}

func TestUserBufferIterator(t *testing.T) {
	ub, bufs := newTestUserBuffer(2, 0, 3)
	ub.Write([]byte("abcde"))
	it := ub.Iterator()
	var got []byte
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, *p)
		*p = '.'
	}
	if string(got) != "abcde" {
		t.Errorf("iterated %q, wanted %q", got, "abcde")
	}
	if string(bufs[0])+string(bufs[2]) != "....." {
		t.Errorf("iterator locations do not alias the buffer")
	}
	// Exhausted iterators stay exhausted.
	if _, ok := it.Next(); ok {
		t.Errorf("Next after end succeeded")
	}
}

func TestUserBufferEmpty(t *testing.T) {
	var ub UserBuffer
	if ub.Len() != 0 || ub.Write([]byte("x")) != 0 || ub.Read(make([]byte, 1)) != 0 {
		t.Errorf("empty UserBuffer is not empty")
	}
	if _, ok := ub.Iterator().Next(); ok {
		t.Errorf("empty iterator yielded a byte")
	}
	if !ub.BlockSeq().IsEmpty() {
		t.Errorf("BlockSeq of empty buffer is not empty")
	}
}
