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

// Package usermem reads and writes memory of address spaces other than the
// kernel's own.
//
// Every helper translates against page tables identified by a token, using
// a read-only view of the tables; none of them changes a mapping. Helpers
// that return references or Blocks assume the translated pages stay mapped
// for as long as the result is used.
package usermem

import (
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/hostarch"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/ring0/pagetables"
	"github.com/ez4yunfeng2/2021oscomp-best-kernel-design-impl/pkg/syserror"
)

// copyStringIncrement is the maximum number of bytes that are copied from
// virtual memory at a time by CopyStringIn.
const copyStringIncrement = 64

// CopyStringIn copies a NUL-terminated string of unknown length from addr in
// the address space identified by token and returns it as a string (not
// including the trailing NUL). If the length of the string, including the
// terminating NUL, would exceed maxlen, CopyStringIn returns the string
// truncated to maxlen and ENAMETOOLONG. If an unreadable page is reached
// first, CopyStringIn returns the bytes read so far and EFAULT.
//
// Unlike TranslatedStr, CopyStringIn never panics on unmapped memory.
//
// Preconditions: maxlen >= 0.
func CopyStringIn(mem pagetables.Memory, token uint64, addr hostarch.Addr, maxlen int) (string, error) {
	pt := pagetables.FromToken(mem, token)
	buf := make([]byte, maxlen)
	var done int
	for done < maxlen {
		start, ok := addr.AddLength(uint64(done))
		if !ok {
			return string(buf[:done]), syserror.EFAULT
		}
		// Read up to copyStringIncrement bytes at a time.
		readlen := copyStringIncrement
		if readlen > maxlen-done {
			readlen = maxlen - done
		}
		end, ok := start.AddLength(uint64(readlen))
		if !ok {
			return string(buf[:done]), syserror.EFAULT
		}
		// Stop at the page boundary; the next page is translated separately.
		if start.RoundDown() != end.RoundDown() {
			end = end.RoundDown()
		}
		pa, ok := pt.TranslateAccess(start, hostarch.Read)
		if !ok {
			return string(buf[:done]), syserror.EFAULT
		}
		page := mem.PageBytes(pa.Floor())
		n := copy(buf[done:done+int(end-start)], page[pa.PageOffset():])
		for i, c := range buf[done : done+n] {
			if c == 0 {
				return string(buf[:done+i]), nil
			}
		}
		done += n
	}
	return string(buf), syserror.ENAMETOOLONG
}
