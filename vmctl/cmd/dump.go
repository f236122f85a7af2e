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
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/ring0/pagetables"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/kernel"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/vmctl/boot"
	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
)

// Dump implements subcommands.Command for the "dump" command.
type Dump struct {
	format string
}

// Name implements subcommands.Command.Name.
func (*Dump) Name() string {
	return "dump"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Dump) Synopsis() string {
	return "print the mappings of address spaces"
}

// Usage implements subcommands.Command.Usage.
func (*Dump) Usage() string {
	return `dump [flags] [space...] - print every valid leaf mapping of the named address spaces, or of all of them.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (d *Dump) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.format, "format", "text", "output format: text, json or yaml")
}

// Execute implements subcommands.Command.Execute.
func (d *Dump) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	m := machineArg(args)
	tasks, err := selectTasks(m, f.Args())
	if err != nil {
		return Errorf("%v", err)
	}
	if err := dumpSpaces(output, d.format, tasks); err != nil {
		return Errorf("dump: %v", err)
	}
	return subcommands.ExitSuccess
}

// spaceDump is the printed form of an address space.
type spaceDump struct {
	Name     string        `json:"name" yaml:"name"`
	Token    string        `json:"token" yaml:"token"`
	Frames   int           `json:"frames" yaml:"frames"`
	Mappings []mappingDump `json:"mappings" yaml:"mappings"`
}

// mappingDump is the printed form of one leaf entry.
type mappingDump struct {
	VA    string `json:"va" yaml:"va"`
	PA    string `json:"pa" yaml:"pa"`
	Flags string `json:"flags" yaml:"flags"`
}

func selectTasks(m *boot.Machine, names []string) ([]*kernel.Task, error) {
	if len(names) == 0 {
		return m.Tasks(), nil
	}
	tasks := make([]*kernel.Task, 0, len(names))
	for _, name := range names {
		t, err := m.Task(name)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func newSpaceDump(t *kernel.Task) spaceDump {
	pt := t.PageTables()
	sd := spaceDump{
		Name:     t.Name(),
		Token:    fmt.Sprintf("%#x", pt.Token()),
		Frames:   pt.OwnedFrames(),
		Mappings: []mappingDump{},
	}
	pt.VisitMappings(func(vpn hostarch.VPN, pte pagetables.PTE) bool {
		sd.Mappings = append(sd.Mappings, mappingDump{
			VA:    vpn.Addr().String(),
			PA:    pte.PPN().Addr().String(),
			Flags: pte.Flags().String(),
		})
		return true
	})
	return sd
}

func dumpSpaces(w io.Writer, format string, tasks []*kernel.Task) error {
	dumps := make([]spaceDump, 0, len(tasks))
	for _, t := range tasks {
		dumps = append(dumps, newSpaceDump(t))
	}
	switch format {
	case "text":
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		for _, sd := range dumps {
			fmt.Fprintf(tw, "%s\ttoken=%s\tframes=%d\n", sd.Name, sd.Token, sd.Frames)
			for _, md := range sd.Mappings {
				fmt.Fprintf(tw, "\t%s\t%s\t%s\n", md.VA, md.PA, md.Flags)
			}
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dumps)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dumps); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid format %q, must be 'text', 'json' or 'yaml'", format)
	}
}
