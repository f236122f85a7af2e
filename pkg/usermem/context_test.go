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
	"context"
	"testing"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
)

func TestCopyToFromUser(t *testing.T) {
	as := newTestAddressSpace(t)
	as.mapPages(t, 0x10000, 2, rw)
	ctx := WithAddressSpace(pgalloc.WithMemoryFile(context.Background(), as.mf), as.token())

	if n, err := CopyToUser(ctx, 0x10ffc, []byte("syscall")); n != 7 || err != nil {
		t.Fatalf("CopyToUser = %d, %v, wanted 7, nil", n, err)
	}
	dst := make([]byte, 7)
	if n, err := CopyFromUser(ctx, dst, 0x10ffc); n != 7 || err != nil {
		t.Fatalf("CopyFromUser = %d, %v, wanted 7, nil", n, err)
	}
	if string(dst) != "syscall" {
		t.Errorf("CopyFromUser read %q, wanted %q", dst, "syscall")
	}
}

func TestCopyWithoutAddressSpace(t *testing.T) {
	as := newTestAddressSpace(t)
	for _, ctx := range []context.Context{
		context.Background(),
		WithAddressSpace(context.Background(), as.token()),
		pgalloc.WithMemoryFile(context.Background(), as.mf),
	} {
		if _, err := CopyFromUser(ctx, make([]byte, 1), 0); err != ErrNoAddressSpace {
			t.Errorf("CopyFromUser = %v, wanted %v", err, ErrNoAddressSpace)
		}
		if _, err := CopyToUser(ctx, 0, []byte{1}); err != ErrNoAddressSpace {
			t.Errorf("CopyToUser = %v, wanted %v", err, ErrNoAddressSpace)
		}
	}
}

func TestAddressSpaceFromContext(t *testing.T) {
	if _, ok := AddressSpaceFromContext(context.Background()); ok {
		t.Errorf("background context has an address space")
	}
	token, ok := AddressSpaceFromContext(WithAddressSpace(context.Background(), 0x8000000000080000))
	if !ok || token != 0x8000000000080000 {
		t.Errorf("AddressSpaceFromContext = %#x, %v", token, ok)
	}
}
