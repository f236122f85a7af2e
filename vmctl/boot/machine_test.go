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

package boot

import (
	"context"
	"errors"
	"testing"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/pgalloc"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/vmctl/config"
	"github.com/google/go-cmp/cmp"
)

func testConfig(frames int, spaces ...config.Space) *config.Config {
	c := config.Default()
	c.Memory.Frames = frames
	c.Spaces = spaces
	return c
}

func TestNew(t *testing.T) {
	conf := testConfig(64,
		config.Space{
			Name: "b",
			Mappings: []config.Mapping{
				{VA: 0x10000, Pages: 2, Flags: "rwu", Data: "hello"},
			},
		},
		config.Space{
			Name: "a",
			Mappings: []config.Mapping{
				{VA: 0x400000, Pages: 1, Flags: "rxu"},
			},
		},
	)
	m, err := New(context.Background(), conf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Release()

	var names []string
	for _, task := range m.Tasks() {
		names = append(names, task.Name())
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("Tasks mismatch (-want +got):\n%s", diff)
	}

	b, err := m.Task("b")
	if err != nil {
		t.Fatalf("Task(b) failed: %v", err)
	}
	got, err := usermem.CopyStringIn(m.MemoryFile(), b.UserToken(), 0x10000, 64)
	if err != nil || got != "hello" {
		t.Errorf("CopyStringIn: got %q, %v, want %q, nil", got, err, "hello")
	}
	if _, ok := b.PageTables().TranslateVA(0x11000); !ok {
		t.Errorf("second page of b is not mapped")
	}

	a, err := m.Task("a")
	if err != nil {
		t.Fatalf("Task(a) failed: %v", err)
	}
	if _, ok := a.PageTables().TranslateAccess(0x400000, hostarch.Write); ok {
		t.Errorf("read-execute page of a is writable")
	}
	if _, err := m.Task("c"); err == nil {
		t.Errorf("Task(c) succeeded")
	}
}

func TestNewExhausted(t *testing.T) {
	for _, tc := range []struct {
		name   string
		frames int
		spaces []config.Space
	}{
		{
			// Root, two intermediate tables and two pages need five.
			name:   "pages",
			frames: 4,
			spaces: []config.Space{{
				Name:     "big",
				Mappings: []config.Mapping{{VA: 0x10000, Pages: 2, Flags: "rw"}},
			}},
		},
		{
			// The page fits but its intermediate tables do not.
			name:   "tables",
			frames: 3,
			spaces: []config.Space{{
				Name:     "init",
				Mappings: []config.Mapping{{VA: 0x10000, Pages: 1, Flags: "rw"}},
			}},
		},
		{
			name:   "root",
			frames: 1,
			spaces: []config.Space{{Name: "a"}, {Name: "b"}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := New(context.Background(), testConfig(tc.frames, tc.spaces...))
			if !errors.Is(err, pgalloc.ErrExhausted) {
				t.Errorf("New: got %v, want %v", err, pgalloc.ErrExhausted)
			}
			if m != nil {
				m.Release()
			}
		})
	}
}

func TestRelease(t *testing.T) {
	conf := testConfig(16, config.Space{
		Name: "init",
		Mappings: []config.Mapping{
			{VA: 0x10000, Pages: 3, Flags: "rw"},
		},
	})
	m, err := New(context.Background(), conf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	mf := m.MemoryFile()
	if got, want := mf.Allocated(), 6; got != want {
		t.Errorf("Allocated after boot: got %d, want %d", got, want)
	}
	m.Release()
	if got := mf.Allocated(); got != 0 {
		t.Errorf("Allocated after Release: got %d, want 0", got)
	}
}
