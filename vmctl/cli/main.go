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

// Package cli is the main entrypoint for vmctl.
package cli

import (
	"context"
	"flag"
	"io"
	"os"
	"runtime"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/vmctl/boot"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/vmctl/cmd"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/vmctl/config"
	"github.com/google/subcommands"
)

var (
	configPath = flag.String("config", "", "path to a TOML machine configuration. An empty machine is used if unset.")
	logPath    = flag.String("log", "", "file to append logs to. Logs go to stderr if unset.")
	logFormat  = flag.String("log-format", "", "log format: text or json. Overrides the configuration.")
	debug      = flag.Bool("debug", false, "enable debug logging.")
)

// Main is the main entrypoint.
func Main() {
	forEachCmd(subcommands.Register)
	flag.Parse()

	conf := config.Default()
	if *configPath != "" {
		var err error
		if conf, err = config.Load(*configPath); err != nil {
			cmd.Fatalf("%v", err)
		}
	}
	if *debug {
		conf.Log.Level = "debug"
	}
	if *logFormat != "" {
		conf.Log.Format = *logFormat
	}
	if err := conf.Validate(); err != nil {
		cmd.Fatalf("%v", err)
	}

	var logFile io.Writer = os.Stderr
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			cmd.Fatalf("error opening log file %q: %v", *logPath, err)
		}
		logFile = f
	}
	log.SetTarget(newEmitter(conf.Log.Format, logFile))
	level, err := log.ParseLevel(conf.Log.Level)
	if err != nil {
		cmd.Fatalf("%v", err)
	}
	log.SetLevel(level)

	log.Infof("vmctl: %s, %s, PID %d", runtime.Version(), runtime.GOARCH, os.Getpid())
	log.Infof("Args: %v", os.Args)
	conf.LogDebug()

	ctx := context.Background()
	m, err := boot.New(ctx, conf)
	if err != nil {
		cmd.Fatalf("error booting machine: %v", err)
	}
	code := subcommands.Execute(ctx, m)
	m.Release()
	if code != subcommands.ExitSuccess {
		log.Warningf("Failure to execute command, err: %v", code)
	}
	os.Exit(int(code))
}

// forEachCmd invokes the passed callback for each command supported by vmctl.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")
	cb(subcommands.CommandsCommand(), "")

	cb(new(cmd.Dump), "")
	cb(new(cmd.Translate), "")

	const memoryGroup = "memory"
	cb(new(cmd.Peek), memoryGroup)
	cb(new(cmd.Str), memoryGroup)
	cb(new(cmd.Cat), memoryGroup)
}

func newEmitter(format string, logFile io.Writer) log.Emitter {
	switch format {
	case "text":
		return log.GoogleEmitter{Writer: &log.Writer{Next: logFile}}
	case "json":
		return log.JSONEmitter{Writer: &log.Writer{Next: logFile}}
	}
	cmd.Fatalf("invalid log format %q, must be 'text' or 'json'", format)
	panic("unreachable")
}
