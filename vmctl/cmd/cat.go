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
	"os"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/fs"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/kernel"
	"github.com/gofrs/flock"
	"github.com/google/subcommands"
)

// Cat implements subcommands.Command for the "cat" command.
type Cat struct {
	out string
}

// Name implements subcommands.Command.Name.
func (*Cat) Name() string {
	return "cat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Cat) Synopsis() string {
	return "write user memory to stdout or a host file through write(2)"
}

// Usage implements subcommands.Command.Usage.
func (*Cat) Usage() string {
	return `cat [flags] <space> <va> <len> - have the task write len bytes at va to a file descriptor.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *Cat) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "host file to write to instead of stdout")
}

// Execute implements subcommands.Command.Execute.
func (c *Cat) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
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
		return Errorf("cat: %v", err)
	}
	n, err := parseLength(f.Arg(2))
	if err != nil {
		return Errorf("cat: %v", err)
	}

	var fc fs.FileClass
	if c.out == "" {
		fc = fs.AbstractClass(fs.NewStdout(output))
	} else {
		unlock, err := lockOutput(c.out)
		if err != nil {
			return Errorf("cat: %v", err)
		}
		defer unlock()
		inode, err := fs.OpenOSInode(c.out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return Errorf("cat: %v", err)
		}
		fc = fs.OSInodeClass(inode)
	}
	written, err := catTo(ctx, task, fc, va, n)
	if err != nil {
		return Errorf("cat %v: %v", va, err)
	}
	log.Infof("Task %q wrote %d bytes to %v", task.Name(), written, fc)
	return subcommands.ExitSuccess
}

// lockOutput takes an exclusive file lock on path so that concurrent vmctl
// invocations do not interleave their output.
func lockOutput(path string) (func() error, error) {
	l := flock.New(path)
	if err := l.Lock(); err != nil {
		return nil, fmt.Errorf("error acquiring lock on %q: %w", path, err)
	}
	return l.Unlock, nil
}

// catTo installs fc in t's file table and writes [va, va+n) to it. fc is
// closed before returning.
func catTo(ctx context.Context, t *kernel.Task, fc fs.FileClass, va hostarch.Addr, n uint64) (int, error) {
	fd, err := t.FDTable().NewFD(fc)
	if err != nil {
		if c, ok := fc.File().(io.Closer); ok {
			c.Close()
		}
		return 0, err
	}
	defer t.Close(fd)
	return t.Write(ctx, fd, va, n)
}
