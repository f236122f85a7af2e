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

package pgalloc

import (
	"fmt"
	"sync/atomic"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
)

// Frame is an exclusively owned physical page.
type Frame struct {
	mf  *MemoryFile
	ppn hostarch.PPN

	// released is set by the first Release.
	released atomic.Bool
}

// PPN returns the page number of the frame.
func (fr *Frame) PPN() hostarch.PPN {
	return fr.ppn
}

// Bytes returns the contents of the frame.
func (fr *Frame) Bytes() []byte {
	return fr.mf.PageBytes(fr.ppn)
}

// Release returns the frame to its MemoryFile. Releasing a frame twice is a
// fatal error.
func (fr *Frame) Release() {
	if fr.released.Swap(true) {
		panic(fmt.Sprintf("pgalloc: double release of frame %v", fr.ppn))
	}
	fr.mf.release(fr.ppn)
}

// String implements fmt.Stringer.String.
func (fr *Frame) String() string {
	return fmt.Sprintf("frame(%v)", fr.ppn)
}
