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
	"io"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/ring0/pagetables"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/kernel"
	"github.com/google/subcommands"
)

// Translate implements subcommands.Command for the "translate" command.
type Translate struct {
	access string
}

// Name implements subcommands.Command.Name.
func (*Translate) Name() string {
	return "translate"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Translate) Synopsis() string {
	return "translate virtual addresses to physical addresses"
}

// Usage implements subcommands.Command.Usage.
func (*Translate) Usage() string {
	return `translate [flags] <space> <va>... - print the physical address of each va, or "not mapped".
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (t *Translate) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.access, "access", "", "PTE flag letters the mapping must grant, e.g. \"rw\"")
}

// Execute implements subcommands.Command.Execute.
func (t *Translate) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() < 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	flags, err := pagetables.ParsePTEFlags(t.access)
	if err != nil {
		return Errorf("translate: %v", err)
	}
	task, err := machineArg(args).Task(f.Arg(0))
	if err != nil {
		return Errorf("%v", err)
	}
	vas := make([]hostarch.Addr, 0, f.NArg()-1)
	for _, s := range f.Args()[1:] {
		va, err := parseAddr(s)
		if err != nil {
			return Errorf("translate: %v", err)
		}
		vas = append(vas, va)
	}
	translateAddrs(output, task, vas, flags.AccessType())
	return subcommands.ExitSuccess
}

func translateAddrs(w io.Writer, t *kernel.Task, vas []hostarch.Addr, at hostarch.AccessType) {
	pt := t.PageTables()
	for _, va := range vas {
		pa, ok := pt.TranslateAccess(va, at)
		if !ok {
			fmt.Fprintf(w, "%v\tnot mapped\n", va)
			continue
		}
		pte, _ := pt.Translate(va.Floor())
		fmt.Fprintf(w, "%v\t%v\t%v\n", va, pa, pte.Flags())
	}
}
