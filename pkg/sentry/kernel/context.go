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

package kernel

import (
	"context"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
)

// contextID is the kernel package's type for context.Context.Value keys.
type contextID int

const (
	// CtxTask is a Context.Value key for a Task.
	CtxTask contextID = iota
)

// TaskFromContext returns the task whose address space ctx copies through, or
// nil.
func TaskFromContext(ctx context.Context) *Task {
	t, _ := ctx.Value(CtxTask).(*Task)
	return t
}

// taskContext is a context.Context in which t is the current task.
type taskContext struct {
	context.Context
	t *Task
}

// Value implements context.Context.Value.
func (tc taskContext) Value(key any) any {
	switch key {
	case CtxTask:
		return tc.t
	case usermem.CtxAddressSpace:
		return tc.t.UserToken()
	case pgalloc.CtxMemoryFile:
		return tc.t.mf
	default:
		return tc.Context.Value(key)
	}
}

// AsContext returns a context derived from parent in which t is the current
// task: usermem.CopyFromUser and usermem.CopyToUser use t's address space.
func (t *Task) AsContext(parent context.Context) context.Context {
	return taskContext{Context: parent, t: t}
}
