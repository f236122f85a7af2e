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

// Package config holds the configuration of a vmctl machine: the physical
// memory arena, logging, and the address spaces to build at boot.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/ring0/pagetables"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
	"github.com/mohae/deepcopy"
)

// DefaultFrames is the arena size used when the configuration names none.
const DefaultFrames = 1024

// Config is the configuration of a machine.
type Config struct {
	// Memory describes the physical memory arena.
	Memory Memory `toml:"memory"`

	// Log configures the global logger.
	Log Log `toml:"log"`

	// Spaces are the address spaces created at boot, one task each.
	Spaces []Space `toml:"space"`
}

// Memory describes the physical memory arena.
type Memory struct {
	// BasePPN is the physical page number of the first frame.
	BasePPN uint64 `toml:"base_ppn"`

	// Frames is the number of 4 KiB frames in the arena.
	Frames int `toml:"frames"`
}

// Log configures the global logger.
type Log struct {
	// Level is one of "warning", "info" or "debug".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Space is an address space created at boot.
type Space struct {
	Name     string    `toml:"name"`
	Mappings []Mapping `toml:"mapping"`
}

// Mapping is a run of anonymous pages in a Space.
type Mapping struct {
	// VA is the first virtual address. It must be page aligned.
	VA uint64 `toml:"va"`

	// Pages is the number of pages to map.
	Pages int `toml:"pages"`

	// Flags are PTE flag letters, as printed by PTEFlags.String ("rwu").
	Flags string `toml:"flags"`

	// Data, if set, is copied to VA after mapping.
	Data string `toml:"data"`
}

// Default returns a configuration with an empty machine.
func Default() *Config {
	return &Config{
		Memory: Memory{
			BasePPN: uint64(pgalloc.DefaultBasePPN),
			Frames:  DefaultFrames,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path. Fields missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("loading config %q: unknown keys %v", path, undec)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return c, nil
}

// Decode parses a configuration from TOML text.
func Decode(data string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, err
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("unknown keys %v", undec)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks c for consistency.
func (c *Config) Validate() error {
	if c.Memory.Frames <= 0 {
		return fmt.Errorf("memory.frames must be positive, got %d", c.Memory.Frames)
	}
	if c.Memory.BasePPN&^hostarch.PPNMask != 0 {
		return fmt.Errorf("memory.base_ppn %#x does not fit in %d bits", c.Memory.BasePPN, hostarch.PPNBits)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be 'text' or 'json'", c.Log.Format)
	}
	names := make(map[string]struct{}, len(c.Spaces))
	for i := range c.Spaces {
		s := &c.Spaces[i]
		if s.Name == "" {
			return fmt.Errorf("space %d has no name", i)
		}
		if _, ok := names[s.Name]; ok {
			return fmt.Errorf("duplicate space %q", s.Name)
		}
		names[s.Name] = struct{}{}
		if err := s.validate(); err != nil {
			return fmt.Errorf("space %q: %w", s.Name, err)
		}
	}
	return nil
}

// LogDebug logs c in a human-friendly way when debug logging is enabled.
// Mapping contents are replaced by their size.
func (c *Config) LogDebug() {
	if !log.IsLogging(log.Debug) {
		return
	}

	conf := deepcopy.Copy(c).(*Config)
	for i := range conf.Spaces {
		for j := range conf.Spaces[i].Mappings {
			m := &conf.Spaces[i].Mappings[j]
			if m.Data != "" {
				m.Data = fmt.Sprintf("<%d bytes>", len(m.Data))
			}
		}
	}
	var out strings.Builder
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(conf); err != nil {
		log.Warningf("Failed to marshal config: %v", err)
		return
	}
	log.Debugf("Config:\n%s", strings.TrimSuffix(out.String(), "\n"))
}

// Space returns the space named name.
func (c *Config) Space(name string) (*Space, bool) {
	for i := range c.Spaces {
		if c.Spaces[i].Name == name {
			return &c.Spaces[i], true
		}
	}
	return nil, false
}

func (s *Space) validate() error {
	var ranges []hostarch.AddrRange
	for i, m := range s.Mappings {
		ar, err := m.Range()
		if err != nil {
			return fmt.Errorf("mapping %d: %w", i, err)
		}
		if _, err := m.PTEFlags(); err != nil {
			return fmt.Errorf("mapping %d: %w", i, err)
		}
		if uint64(len(m.Data)) > ar.Length() {
			return fmt.Errorf("mapping %d: %d bytes of data do not fit in %d pages", i, len(m.Data), m.Pages)
		}
		for _, other := range ranges {
			if ar.Overlaps(other) {
				return fmt.Errorf("mapping %d at %v overlaps %v", i, ar, other)
			}
		}
		ranges = append(ranges, ar)
	}
	return nil
}

// Range returns the virtual range covered by m.
func (m *Mapping) Range() (hostarch.AddrRange, error) {
	va := hostarch.Addr(m.VA)
	if !va.IsPageAligned() {
		return hostarch.AddrRange{}, fmt.Errorf("va %v is not page aligned", va)
	}
	if m.Pages <= 0 {
		return hostarch.AddrRange{}, fmt.Errorf("pages must be positive, got %d", m.Pages)
	}
	ar, ok := va.ToRange(uint64(m.Pages) * hostarch.PageSize)
	if !ok {
		return hostarch.AddrRange{}, fmt.Errorf("%d pages at %v overflow", m.Pages, va)
	}
	return ar, nil
}

// PTEFlags parses m.Flags.
func (m *Mapping) PTEFlags() (pagetables.PTEFlags, error) {
	return pagetables.ParsePTEFlags(m.Flags)
}
