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

package fs

import (
	"context"
	"io"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/safemem"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
)

// Stdin is a read-only console backed by an io.Reader.
type Stdin struct {
	NotWritable
	NoIoctl

	r io.Reader
}

// NewStdin returns a Stdin reading from r.
func NewStdin(r io.Reader) *Stdin {
	return &Stdin{r: r}
}

// Readable implements File.Readable.
func (*Stdin) Readable() bool { return true }

// Read implements File.Read.
func (s *Stdin) Read(_ context.Context, dst usermem.UserBuffer) (int, error) {
	n, err := safemem.FromIOReader{Reader: s.r}.ReadToBlocks(dst.BlockSeq())
	if err == io.EOF {
		err = nil
	}
	return int(n), err
}

// Stdout is a write-only console backed by an io.Writer.
type Stdout struct {
	NotReadable
	NoIoctl

	w io.Writer
}

// NewStdout returns a Stdout writing to w.
func NewStdout(w io.Writer) *Stdout {
	return &Stdout{w: w}
}

// Writable implements File.Writable.
func (*Stdout) Writable() bool { return true }

// Write implements File.Write.
func (s *Stdout) Write(_ context.Context, src usermem.UserBuffer) (int, error) {
	n, err := safemem.WriteFullFromBlocks(safemem.FromIOWriter{Writer: s.w}, src.BlockSeq())
	return int(n), err
}
