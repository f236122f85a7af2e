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

package kernel

import (
	"context"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/fs"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/sentry/kernel/pipe"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/syserror"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
)

// maxIovcnt is UIO_MAXIOV.
const maxIovcnt = 1024

// iovecSize is the size of one usermem.IoVec.
const iovecSize = 16

// Read implements read(2): it reads up to n bytes from fd into addr.
func (t *Task) Read(ctx context.Context, fd int, addr hostarch.Addr, n uint64) (int, error) {
	f, err := t.readable(fd)
	if err != nil {
		return 0, err
	}
	if err := t.CheckRange(addr, n, hostarch.Write); err != nil {
		return 0, err
	}
	dst := usermem.NewUserBuffer(usermem.TranslatedByteBuffer(t.mf, t.UserToken(), addr, n))
	return f.Read(t.AsContext(ctx), dst)
}

// Write implements write(2): it writes n bytes at addr to fd.
func (t *Task) Write(ctx context.Context, fd int, addr hostarch.Addr, n uint64) (int, error) {
	f, err := t.writable(fd)
	if err != nil {
		return 0, err
	}
	if err := t.CheckRange(addr, n, hostarch.Read); err != nil {
		return 0, err
	}
	src := usermem.NewUserBuffer(usermem.TranslatedByteBuffer(t.mf, t.UserToken(), addr, n))
	return f.Write(t.AsContext(ctx), src)
}

// Readv implements readv(2).
func (t *Task) Readv(ctx context.Context, fd int, iovAddr hostarch.Addr, iovcnt int) (int, error) {
	f, err := t.readable(fd)
	if err != nil {
		return 0, err
	}
	dst, err := t.iovecs(iovAddr, iovcnt, hostarch.Write)
	if err != nil {
		return 0, err
	}
	return f.Read(t.AsContext(ctx), dst)
}

// Writev implements writev(2).
func (t *Task) Writev(ctx context.Context, fd int, iovAddr hostarch.Addr, iovcnt int) (int, error) {
	f, err := t.writable(fd)
	if err != nil {
		return 0, err
	}
	src, err := t.iovecs(iovAddr, iovcnt, hostarch.Read)
	if err != nil {
		return 0, err
	}
	return f.Write(t.AsContext(ctx), src)
}

// Pipe implements pipe(2): it creates a pipe and stores its read and write
// descriptors as two int32s at fdsAddr.
func (t *Task) Pipe(ctx context.Context, fdsAddr hostarch.Addr) error {
	if err := t.CheckRange(fdsAddr, 8, hostarch.Write); err != nil {
		return err
	}
	r, w := pipe.NewConnectedPipe(pipe.DefaultPipeSize)
	rfd, err := t.fdTable.NewFD(fs.AbstractClass(r))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}
	wfd, err := t.fdTable.NewFD(fs.AbstractClass(w))
	if err != nil {
		t.fdTable.Remove(rfd)
		w.Close()
		return err
	}
	var fds [8]byte
	hostarch.ByteOrder.PutUint32(fds[0:], uint32(rfd))
	hostarch.ByteOrder.PutUint32(fds[4:], uint32(wfd))
	_, err = usermem.CopyToUser(t.AsContext(ctx), fdsAddr, fds[:])
	return err
}

// Close implements close(2).
func (t *Task) Close(fd int) error {
	return t.fdTable.Remove(fd)
}

// Ioctl implements ioctl(2).
func (t *Task) Ioctl(ctx context.Context, fd int, cmd uint32, arg uint64) (uint64, error) {
	fc, err := t.fdTable.Get(fd)
	if err != nil {
		return 0, err
	}
	return fc.File().Ioctl(t.AsContext(ctx), cmd, arg)
}

func (t *Task) readable(fd int) (fs.File, error) {
	fc, err := t.fdTable.Get(fd)
	if err != nil {
		return nil, err
	}
	if !fc.File().Readable() {
		return nil, syserror.EBADF
	}
	return fc.File(), nil
}

func (t *Task) writable(fd int) (fs.File, error) {
	fc, err := t.fdTable.Get(fd)
	if err != nil {
		return nil, err
	}
	if !fc.File().Writable() {
		return nil, syserror.EBADF
	}
	return fc.File(), nil
}

// iovecs validates the iovec array at iovAddr and every buffer it describes,
// then returns them as one UserBuffer.
func (t *Task) iovecs(iovAddr hostarch.Addr, iovcnt int, at hostarch.AccessType) (usermem.UserBuffer, error) {
	if iovcnt < 0 || iovcnt > maxIovcnt {
		return usermem.UserBuffer{}, syserror.EINVAL
	}
	if err := t.CheckRange(iovAddr, uint64(iovcnt)*iovecSize, hostarch.Read); err != nil {
		return usermem.UserBuffer{}, err
	}
	for _, iov := range usermem.TranslatedArrayCopy[usermem.IoVec](t.mf, t.UserToken(), iovAddr, iovcnt) {
		if err := t.CheckRange(iov.Base, iov.Len, at); err != nil {
			return usermem.UserBuffer{}, err
		}
	}
	return usermem.TranslatedIOVecs(t.mf, t.UserToken(), iovAddr, iovcnt), nil
}
