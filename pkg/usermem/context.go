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
	"errors"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
)

// contextID is the usermem package's type for context.Context.Value keys.
type contextID int

const (
	// CtxAddressSpace is a Context.Value key for the page table token of the
	// address space the context operates on.
	CtxAddressSpace contextID = iota
)

// ErrNoAddressSpace is returned when a context carries no address space or
// no physical memory to translate against.
var ErrNoAddressSpace = errors.New("context has no address space")

// AddressSpaceFromContext returns the page table token of the address space
// used by ctx.
func AddressSpaceFromContext(ctx context.Context) (token uint64, ok bool) {
	token, ok = ctx.Value(CtxAddressSpace).(uint64)
	return token, ok
}

// WithAddressSpace returns a copy of ctx that uses the address space
// identified by token.
func WithAddressSpace(ctx context.Context, token uint64) context.Context {
	return context.WithValue(ctx, CtxAddressSpace, token)
}

// CopyFromUser copies len(dst) bytes from src in the address space of ctx
// into dst.
//
// Preconditions: [src, src+len(dst)) is mapped.
func CopyFromUser(ctx context.Context, dst []byte, src hostarch.Addr) (int, error) {
	buf, err := userBufferFromContext(ctx, src, len(dst))
	if err != nil {
		return 0, err
	}
	return buf.Read(dst), nil
}

// CopyToUser copies src to dst in the address space of ctx.
//
// Preconditions: [dst, dst+len(src)) is mapped.
func CopyToUser(ctx context.Context, dst hostarch.Addr, src []byte) (int, error) {
	buf, err := userBufferFromContext(ctx, dst, len(src))
	if err != nil {
		return 0, err
	}
	return buf.Write(src), nil
}

func userBufferFromContext(ctx context.Context, addr hostarch.Addr, length int) (UserBuffer, error) {
	token, ok := AddressSpaceFromContext(ctx)
	mf := pgalloc.MemoryFileFromContext(ctx)
	if !ok || mf == nil {
		return UserBuffer{}, ErrNoAddressSpace
	}
	return NewUserBuffer(TranslatedByteBuffer(mf, token, addr, uint64(length))), nil
}
