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
	"flag"
	"fmt"
	"strconv"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
	"github.com/google/subcommands"
)

// Str implements subcommands.Command for the "str" command.
type Str struct {
	maxLen int
}

// Name implements subcommands.Command.Name.
func (*Str) Name() string {
	return "str"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Str) Synopsis() string {
	return "print a NUL-terminated string from user memory"
}

// Usage implements subcommands.Command.Usage.
func (*Str) Usage() string {
	return `str [flags] <space> <va> - print the string at va.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Str) SetFlags(f *flag.FlagSet) {
	f.IntVar(&s.maxLen, "max", 4096, "maximum string length, excluding the terminator")
}

// Execute implements subcommands.Command.Execute.
func (s *Str) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	task, err := machineArg(args).Task(f.Arg(0))
	if err != nil {
		return Errorf("%v", err)
	}
	va, err := parseAddr(f.Arg(1))
	if err != nil {
		return Errorf("str: %v", err)
	}
	str, err := usermem.CopyStringIn(task.MemoryFile(), task.UserToken(), va, s.maxLen)
	if err != nil {
		return Errorf("str %v: %v", va, err)
	}
	fmt.Fprintln(output, strconv.Quote(str))
	return subcommands.ExitSuccess
}
