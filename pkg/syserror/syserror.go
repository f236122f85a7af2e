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

// Package syserror holds the errno values returned by the emulated syscalls,
// pre-boxed as error so they compare with == against returned errors.
package syserror

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Errnos used by the syscall layer.
var (
	EBADF        = error(unix.EBADF)
	EFAULT       = error(unix.EFAULT)
	EINVAL       = error(unix.EINVAL)
	EMFILE       = error(unix.EMFILE)
	ENAMETOOLONG = error(unix.ENAMETOOLONG)
	ENOMEM       = error(unix.ENOMEM)
	ENOTTY       = error(unix.ENOTTY)
	EPIPE        = error(unix.EPIPE)
	ESPIPE       = error(unix.ESPIPE)
)

var (
	// ErrWouldBlock is returned by fs.File implementations when a read or
	// write can make no progress now, e.g. an empty pipe with live writers.
	ErrWouldBlock = errors.New("request would block")

	// ErrClosedForRead is returned when reading from a stream whose read
	// side has been shut down.
	ErrClosedForRead = errors.New("stream closed for read")
)

// errorMap maps sentinel errors to the errno reported for them.
var errorMap = map[error]unix.Errno{}

// AddErrorTranslation registers to as the errno for from. It must be called
// during init. The first registration for an error wins; later ones return
// false.
func AddErrorTranslation(from error, to unix.Errno) bool {
	if _, ok := errorMap[from]; ok {
		return false
	}

	errorMap[from] = to
	return true
}

// TranslateError returns the errno for from, either a registered translation
// or a wrapped unix.Errno.
func TranslateError(from error) (unix.Errno, bool) {
	if err, ok := errorMap[from]; ok {
		return err, true
	}
	var errno unix.Errno
	if errors.As(from, &errno) {
		return errno, true
	}
	return 0, false
}

// ReturnValue converts the result of a syscall-style operation into the
// value placed in the return register: n on success, -errno on failure.
// Untranslatable errors are reported as EINVAL.
func ReturnValue(n int64, err error) int64 {
	if err == nil {
		return n
	}
	errno, ok := TranslateError(err)
	if !ok {
		errno = unix.EINVAL
	}
	return -int64(errno)
}

func init() {
	AddErrorTranslation(ErrWouldBlock, unix.EWOULDBLOCK)
	AddErrorTranslation(ErrClosedForRead, unix.EBADF)
}
