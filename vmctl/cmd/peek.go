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

package cmd

import (
	"context"
	"encoding/hex"
	"flag"
	"io"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/kernel"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
	"github.com/google/subcommands"
)

// maxPeek bounds a single peek.
const maxPeek = 1 << 20

// Peek implements subcommands.Command for the "peek" command.
type Peek struct{}

// Name implements subcommands.Command.Name.
func (*Peek) Name() string {
	return "peek"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Peek) Synopsis() string {
	return "hex dump user memory"
}

// Usage implements subcommands.Command.Usage.
func (*Peek) Usage() string {
	return `peek <space> <va> <len> - hex dump len bytes at va.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Peek) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Peek) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 3 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	task, err := machineArg(args).Task(f.Arg(0))
	if err != nil {
		return Errorf("%v", err)
	}
	va, err := parseAddr(f.Arg(1))
	if err != nil {
		return Errorf("peek: %v", err)
	}
	n, err := parseLength(f.Arg(2))
	if err != nil {
		return Errorf("peek: %v", err)
	}
	if n > maxPeek {
		return Errorf("peek: length %d exceeds %d", n, maxPeek)
	}
	if err := peek(output, task, va, n); err != nil {
		return Errorf("peek %v: %v", va, err)
	}
	return subcommands.ExitSuccess
}

// peek hex dumps [va, va+n). It returns EFAULT if any page of the range is
// not readable.
func peek(w io.Writer, t *kernel.Task, va hostarch.Addr, n uint64) error {
	if err := t.CheckRange(va, n, hostarch.Read); err != nil {
		return err
	}
	buf := usermem.NewUserBuffer(usermem.TranslatedByteBuffer(t.MemoryFile(), t.UserToken(), va, n))
	d := hex.Dumper(w)
	if _, err := d.Write(buf.ReadAsVec(nil, buf.Len())); err != nil {
		return err
	}
	return d.Close()
}
