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

// Package pipe provides an in-memory implementation of a unidirectional
// pipe.
package pipe

import (
	"context"
	"fmt"
	"sync"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/safemem"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/fs"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/syserror"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
)

// DefaultPipeSize is the default size of a pipe in bytes.
const DefaultPipeSize = 65536

// Pipe is a bounded byte queue shared between a Reader and a Writer.
type Pipe struct {
	// mu protects all fields below.
	mu sync.Mutex

	// buf is the ring buffer. Its length is the capacity of the pipe.
	buf []byte

	// head is the index of the first unread byte in buf.
	head int

	// size is the number of unread bytes.
	size int

	// readers and writers are the number of open ends of each kind.
	readers int
	writers int
}

// NewConnectedPipe returns the read and write ends of a new pipe holding up
// to sizeBytes bytes.
func NewConnectedPipe(sizeBytes int) (*Reader, *Writer) {
	if sizeBytes <= 0 {
		panic(fmt.Sprintf("pipe: invalid size %d", sizeBytes))
	}
	p := &Pipe{
		buf:     make([]byte, sizeBytes),
		readers: 1,
		writers: 1,
	}
	return &Reader{p: p}, &Writer{p: p}
}

// Size returns the number of unread bytes in p.
func (p *Pipe) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// queued returns the unread bytes as a BlockSeq.
//
// Preconditions: p.mu must be locked.
func (p *Pipe) queued() safemem.BlockSeq {
	return p.span(p.head, p.size)
}

// free returns the unused part of the ring as a BlockSeq.
//
// Preconditions: p.mu must be locked.
func (p *Pipe) free() safemem.BlockSeq {
	return p.span((p.head+p.size)%len(p.buf), len(p.buf)-p.size)
}

// span returns the n bytes of the ring starting at off, wrapping at the end.
func (p *Pipe) span(off, n int) safemem.BlockSeq {
	first := min(n, len(p.buf)-off)
	return safemem.BlockSeqFromSlice([]safemem.Block{
		safemem.BlockFromSafeSlice(p.buf[off : off+first]),
		safemem.BlockFromSafeSlice(p.buf[:n-first]),
	})
}

// read copies queued bytes into dst. It returns ErrWouldBlock if the pipe is
// empty but a writer remains, and (0, nil) once every writer is gone.
func (p *Pipe) read(dst usermem.UserBuffer) (int, error) {
	// Don't block for a zero-length read even if the pipe is empty.
	if dst.Len() == 0 {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.size == 0 {
		if p.writers == 0 {
			return 0, nil
		}
		return 0, syserror.ErrWouldBlock
	}
	n, _ := safemem.CopySeq(dst.BlockSeq(), p.queued())
	p.head = (p.head + int(n)) % len(p.buf)
	p.size -= int(n)
	if p.size == 0 {
		p.head = 0
	}
	return int(n), nil
}

// write copies src into free space. A write that does not fit entirely
// returns the bytes written and ErrWouldBlock.
func (p *Pipe) write(src usermem.UserBuffer) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readers == 0 {
		return 0, syserror.EPIPE
	}
	if src.Len() == 0 {
		return 0, nil
	}
	n, _ := safemem.CopySeq(p.free(), src.BlockSeq())
	p.size += int(n)
	if int(n) < src.Len() {
		return int(n), syserror.ErrWouldBlock
	}
	return int(n), nil
}

func (p *Pipe) rClose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readers--
	if p.readers < 0 {
		panic(fmt.Sprintf("Refcounting bug, pipe has negative readers: %v", p.readers))
	}
}

func (p *Pipe) wClose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writers--
	if p.writers < 0 {
		panic(fmt.Sprintf("Refcounting bug, pipe has negative writers: %v", p.writers))
	}
}

// Reader is the read end of a pipe.
type Reader struct {
	fs.NotWritable
	fs.NoIoctl

	p      *Pipe
	closed bool
}

var _ fs.File = (*Reader)(nil)

// Readable implements fs.File.Readable.
func (r *Reader) Readable() bool { return true }

// Read implements fs.File.Read.
func (r *Reader) Read(_ context.Context, dst usermem.UserBuffer) (int, error) {
	if r.closed {
		return 0, syserror.EBADF
	}
	return r.p.read(dst)
}

// Close releases the read end. Writers see EPIPE once every reader is closed.
func (r *Reader) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.p.rClose()
}

// Writer is the write end of a pipe.
type Writer struct {
	fs.NotReadable
	fs.NoIoctl

	p      *Pipe
	closed bool
}

var _ fs.File = (*Writer)(nil)

// Writable implements fs.File.Writable.
func (w *Writer) Writable() bool { return true }

// Write implements fs.File.Write.
func (w *Writer) Write(_ context.Context, src usermem.UserBuffer) (int, error) {
	if w.closed {
		return 0, syserror.EBADF
	}
	return w.p.write(src)
}

// Close releases the write end. Readers see end of stream once the pipe
// drains.
func (w *Writer) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.p.wClose()
}
