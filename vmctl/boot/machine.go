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

// Package boot builds a machine from its configuration: the physical memory
// arena and one task per configured address space.
package boot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/kernel"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/vmctl/config"
	"golang.org/x/sync/errgroup"
)

// Machine is a physical memory arena and the tasks living in it.
type Machine struct {
	mf *pgalloc.MemoryFile

	mu    sync.Mutex
	tasks map[string]*kernel.Task
}

// New creates the memory arena described by conf and builds every
// configured address space. Spaces are built concurrently; on error every
// task built so far is released.
func New(ctx context.Context, conf *config.Config) (*Machine, error) {
	mf, err := pgalloc.NewMemoryFile(pgalloc.Opts{
		BasePPN: hostarch.PPN(conf.Memory.BasePPN),
		Frames:  conf.Memory.Frames,
	})
	if err != nil {
		return nil, fmt.Errorf("creating memory file: %w", err)
	}
	m := &Machine{
		mf:    mf,
		tasks: make(map[string]*kernel.Task, len(conf.Spaces)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range conf.Spaces {
		space := &conf.Spaces[i]
		g.Go(func() error {
			return m.buildSpace(gctx, space)
		})
	}
	if err := g.Wait(); err != nil {
		m.Release()
		return nil, err
	}
	log.Infof("Machine booted: %d tasks, %d of %d frames in use", len(m.tasks), mf.Allocated(), mf.Frames())
	return m, nil
}

func (m *Machine) buildSpace(ctx context.Context, space *config.Space) error {
	t, err := kernel.NewTask(space.Name, m.mf)
	if err != nil {
		return fmt.Errorf("space %q: %w", space.Name, err)
	}
	m.mu.Lock()
	m.tasks[space.Name] = t
	m.mu.Unlock()

	tctx := t.AsContext(ctx)
	for i := range space.Mappings {
		if err := ctx.Err(); err != nil {
			return err
		}
		mp := &space.Mappings[i]
		flags, err := mp.PTEFlags()
		if err != nil {
			return fmt.Errorf("space %q: %w", space.Name, err)
		}
		va := hostarch.Addr(mp.VA)
		if err := t.MapAnon(va, mp.Pages, flags); err != nil {
			return fmt.Errorf("space %q: %w", space.Name, err)
		}
		if len(mp.Data) > 0 {
			if _, err := usermem.CopyToUser(tctx, va, []byte(mp.Data)); err != nil {
				return fmt.Errorf("space %q: writing data at %v: %w", space.Name, va, err)
			}
		}
		log.Debugf("Space %q: mapped %d pages at %v (%v)", space.Name, mp.Pages, va, flags)
	}
	return nil
}

// MemoryFile returns the machine's physical memory.
func (m *Machine) MemoryFile() *pgalloc.MemoryFile {
	return m.mf
}

// Task returns the task named name.
func (m *Machine) Task(name string) (*kernel.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[name]
	if !ok {
		return nil, fmt.Errorf("no address space named %q", name)
	}
	return t, nil
}

// Tasks returns every task, sorted by name.
func (m *Machine) Tasks() []*kernel.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := make([]*kernel.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name() < ts[j].Name() })
	return ts
}

// Release releases every task and destroys the memory arena.
func (m *Machine) Release() {
	for _, t := range m.Tasks() {
		t.Release()
	}
	m.mu.Lock()
	m.tasks = nil
	m.mu.Unlock()
	m.mf.Destroy()
}
