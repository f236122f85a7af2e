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

package pipe

import (
	"context"
	"testing"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/safemem"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/syserror"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
)

func bufOf(b []byte) usermem.UserBuffer {
	return usermem.NewUserBuffer([]safemem.Block{safemem.BlockFromSafeSlice(b)})
}

func TestPipeRW(t *testing.T) {
	ctx := context.Background()
	r, w := NewConnectedPipe(DefaultPipeSize)
	defer r.Close()
	defer w.Close()

	msg := []byte("here's some bytes")
	if n, err := w.Write(ctx, bufOf(msg)); n != len(msg) || err != nil {
		t.Fatalf("writing %q failed: %d, %v", msg, n, err)
	}
	rbuf := make([]byte, len(msg))
	if n, err := r.Read(ctx, bufOf(rbuf)); n != len(msg) || err != nil {
		t.Fatalf("reading %q failed: %d, %v", msg, n, err)
	}
	if string(rbuf) != string(msg) {
		t.Errorf("read %q, wanted %q", rbuf, msg)
	}
}

func TestPipeReadBlock(t *testing.T) {
	r, w := NewConnectedPipe(DefaultPipeSize)
	defer r.Close()
	defer w.Close()

	n, err := r.Read(context.Background(), bufOf(make([]byte, 1)))
	if n != 0 || err != syserror.ErrWouldBlock {
		t.Errorf("Read on empty pipe = %d, %v, wanted 0, %v", n, err, syserror.ErrWouldBlock)
	}
	// A zero-length read never blocks.
	if n, err := r.Read(context.Background(), bufOf(nil)); n != 0 || err != nil {
		t.Errorf("empty Read = %d, %v, wanted 0, nil", n, err)
	}
}

func TestPipeWriteBlock(t *testing.T) {
	ctx := context.Background()
	const capacity = 10
	r, w := NewConnectedPipe(capacity)
	defer r.Close()
	defer w.Close()

	msg := []byte("here's some bytes")
	n, err := w.Write(ctx, bufOf(msg))
	if n != capacity || err != syserror.ErrWouldBlock {
		t.Fatalf("Write = %d, %v, wanted %d, %v", n, err, capacity, syserror.ErrWouldBlock)
	}
	if n, err := w.Write(ctx, bufOf(msg)); n != 0 || err != syserror.ErrWouldBlock {
		t.Errorf("Write to full pipe = %d, %v", n, err)
	}
}

func TestPipeWraps(t *testing.T) {
	ctx := context.Background()
	r, w := NewConnectedPipe(8)
	defer r.Close()
	defer w.Close()

	w.Write(ctx, bufOf([]byte("abcdef")))
	first := make([]byte, 4)
	r.Read(ctx, bufOf(first))
	// The write wraps around the end of the ring.
	if n, err := w.Write(ctx, bufOf([]byte("ghijkl"))); n != 6 || err != nil {
		t.Fatalf("Write = %d, %v, wanted 6, nil", n, err)
	}
	if got := w.p.Size(); got != 8 {
		t.Errorf("Size() = %d, wanted 8", got)
	}
	rest := make([]byte, 16)
	n, err := r.Read(ctx, bufOf(rest))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := string(first) + string(rest[:n]); got != "abcdefghijkl" {
		t.Errorf("read %q, wanted %q", got, "abcdefghijkl")
	}
}

func TestPipeWriterClosed(t *testing.T) {
	ctx := context.Background()
	r, w := NewConnectedPipe(DefaultPipeSize)
	defer r.Close()

	w.Write(ctx, bufOf([]byte("x")))
	w.Close()
	buf := make([]byte, 4)
	// Queued data is still delivered, then end of stream.
	if n, err := r.Read(ctx, bufOf(buf)); n != 1 || err != nil {
		t.Errorf("Read = %d, %v, wanted 1, nil", n, err)
	}
	if n, err := r.Read(ctx, bufOf(buf)); n != 0 || err != nil {
		t.Errorf("Read at EOF = %d, %v, wanted 0, nil", n, err)
	}
	if _, err := w.Write(ctx, bufOf(buf)); err != syserror.EBADF {
		t.Errorf("Write on closed end = %v, wanted EBADF", err)
	}
}

func TestPipeReaderClosed(t *testing.T) {
	r, w := NewConnectedPipe(DefaultPipeSize)
	defer w.Close()
	r.Close()
	r.Close()
	if _, err := w.Write(context.Background(), bufOf([]byte("x"))); err != syserror.EPIPE {
		t.Errorf("Write = %v, wanted EPIPE", err)
	}
}

func TestPipeEnds(t *testing.T) {
	ctx := context.Background()
	r, w := NewConnectedPipe(DefaultPipeSize)
	defer r.Close()
	defer w.Close()

	if !r.Readable() || r.Writable() || w.Readable() || !w.Writable() {
		t.Errorf("wrong readability: reader %v/%v, writer %v/%v", r.Readable(), r.Writable(), w.Readable(), w.Writable())
	}
	if _, err := r.Write(ctx, bufOf([]byte("x"))); err != syserror.EBADF {
		t.Errorf("Write on read end = %v, wanted EBADF", err)
	}
	if _, err := w.Read(ctx, bufOf(make([]byte, 1))); err != syserror.EBADF {
		t.Errorf("Read on write end = %v, wanted EBADF", err)
	}
	if _, err := r.Ioctl(ctx, 0x5401, 0); err != syserror.ENOTTY {
		t.Errorf("Ioctl = %v, wanted ENOTTY", err)
	}
}
