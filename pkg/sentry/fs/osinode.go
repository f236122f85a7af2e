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
	"os"

	"golang.org/x/sys/unix"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/safemem"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/syserror"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
)

// OSInode is an open file on a host filesystem. Reads and writes use the
// host file offset and go straight between the host and physical memory
// with readv(2) and writev(2).
type OSInode struct {
	NoIoctl

	file     *os.File
	readable bool
	writable bool
}

// NewOSInode returns an OSInode for f.
func NewOSInode(f *os.File, readable, writable bool) *OSInode {
	return &OSInode{
		file:     f,
		readable: readable,
		writable: writable,
	}
}

// OpenOSInode opens name with os.OpenFile flags and returns it as an OSInode.
func OpenOSInode(name string, flag int, perm os.FileMode) (*OSInode, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	acc := flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)
	return NewOSInode(f, acc != os.O_WRONLY, acc != os.O_RDONLY), nil
}

// Name returns the name the file was opened with.
func (i *OSInode) Name() string {
	return i.file.Name()
}

// Readable implements File.Readable.
func (i *OSInode) Readable() bool {
	return i.readable
}

// Writable implements File.Writable.
func (i *OSInode) Writable() bool {
	return i.writable
}

// Read implements File.Read.
func (i *OSInode) Read(_ context.Context, dst usermem.UserBuffer) (int, error) {
	if !i.readable {
		return 0, syserror.EBADF
	}
	r := safemem.FromVecReaderFunc{ReadVec: func(dsts [][]byte) (int64, error) {
		return i.rawVec(dsts, unix.Readv)
	}}
	n, err := r.ReadToBlocks(dst.BlockSeq())
	return int(n), err
}

// Write implements File.Write.
func (i *OSInode) Write(_ context.Context, src usermem.UserBuffer) (int, error) {
	if !i.writable {
		return 0, syserror.EBADF
	}
	w := safemem.FromVecWriterFunc{WriteVec: func(srcs [][]byte) (int64, error) {
		return i.rawVec(srcs, unix.Writev)
	}}
	n, err := w.WriteFromBlocks(src.BlockSeq())
	return int(n), err
}

// rawVec calls op, either unix.Readv or unix.Writev, on the host descriptor.
func (i *OSInode) rawVec(iovs [][]byte, op func(int, [][]byte) (int, error)) (int64, error) {
	rc, err := i.file.SyscallConn()
	if err != nil {
		return 0, err
	}
	var (
		n     int
		opErr error
	)
	if err := rc.Control(func(fd uintptr) {
		for {
			n, opErr = op(int(fd), iovs)
			if opErr != unix.EINTR {
				return
			}
		}
	}); err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return int64(n), opErr
}

// Close closes the host file.
func (i *OSInode) Close() error {
	return i.file.Close()
}
