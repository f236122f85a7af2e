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

// Package fs defines the byte-stream capability implemented by everything a
// file descriptor can refer to, and the classification of concrete files.
package fs

import (
	"context"
	"time"

	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/log"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/syserror"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/usermem"
)

// File is a byte stream.
type File interface {
	// Readable returns true if Read may succeed.
	Readable() bool

	// Writable returns true if Write may succeed.
	Writable() bool

	// Read reads up to dst.Len() bytes into dst and returns the number of
	// bytes read. A return of (0, nil) for a non-empty dst means end of
	// stream.
	Read(ctx context.Context, dst usermem.UserBuffer) (int, error)

	// Write writes up to src.Len() bytes from src and returns the number of
	// bytes written.
	Write(ctx context.Context, src usermem.UserBuffer) (int, error)

	// Ioctl performs the device-specific operation cmd.
	Ioctl(ctx context.Context, cmd uint32, arg uint64) (uint64, error)
}

// ioctlLog reports unsupported ioctls without flooding the log.
var ioctlLog = log.BasicRateLimitedLogger(time.Minute)

// NoIoctl implements File.Ioctl for files that support no ioctls.
type NoIoctl struct{}

// Ioctl implements File.Ioctl.
func (NoIoctl) Ioctl(_ context.Context, cmd uint32, arg uint64) (uint64, error) {
	ioctlLog.Infof("Unsupported ioctl %#x (arg %#x)", cmd, arg)
	return 0, syserror.ENOTTY
}

// NotReadable implements File.Readable and File.Read for write-only files.
type NotReadable struct{}

// Readable implements File.Readable.
func (NotReadable) Readable() bool { return false }

// Read implements File.Read.
func (NotReadable) Read(context.Context, usermem.UserBuffer) (int, error) {
	return 0, syserror.EBADF
}

// NotWritable implements File.Writable and File.Write for read-only files.
type NotWritable struct{}

// Writable implements File.Writable.
func (NotWritable) Writable() bool { return false }

// Write implements File.Write.
func (NotWritable) Write(context.Context, usermem.UserBuffer) (int, error) {
	return 0, syserror.EBADF
}
