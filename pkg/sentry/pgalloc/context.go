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

package pgalloc

import (
	"context"
)

// contextID is this package's type for context.Context.Value keys.
type contextID int

const (
	// CtxMemoryFile is a Context.Value key for a MemoryFile.
	CtxMemoryFile contextID = iota
)

// MemoryFileFromContext returns the physical memory that user addresses in
// ctx resolve to, or nil.
func MemoryFileFromContext(ctx context.Context) *MemoryFile {
	mf, _ := ctx.Value(CtxMemoryFile).(*MemoryFile)
	return mf
}

// WithMemoryFile returns a copy of ctx carrying mf.
func WithMemoryFile(ctx context.Context, mf *MemoryFile) context.Context {
	return context.WithValue(ctx, CtxMemoryFile, mf)
}
