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

// Package cmd holds implementations of the vmctl commands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/vmctl/boot"
	"github.com/google/subcommands"
)

// output is where commands print their results.
var output io.Writer = os.Stdout

// Errorf logs the error to stderr and returns ExitFailure.
func Errorf(format string, args ...any) subcommands.ExitStatus {
	log.Warningf(format, args...)
	fmt.Fprintf(os.Stderr, "vmctl: "+format+"\n", args...)
	return subcommands.ExitFailure
}

// Fatalf logs the error to stderr and exits with failure status.
func Fatalf(format string, args ...any) {
	Errorf(format, args...)
	os.Exit(128)
}

// machineArg returns the machine passed to Execute by the command line.
func machineArg(args []any) *boot.Machine {
	return args[0].(*boot.Machine)
}

// parseAddr parses a virtual address in any base accepted by
// strconv.ParseUint.
func parseAddr(s string) (hostarch.Addr, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return hostarch.Addr(v), nil
}

// parseLength parses a byte count.
func parseLength(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", s, err)
	}
	return v, nil
}
