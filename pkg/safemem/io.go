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


package safemem

import (
	"io"
	"math"
)

// Reader fills BlockSeqs from some byte source.
type Reader interface {
	// ReadToBlocks reads at most dsts.NumBytes() bytes into dsts and returns
	// how many it read. An error is only returned with a short count.
	ReadToBlocks(dsts BlockSeq) (uint64, error)
}

// Writer drains BlockSeqs into some byte sink.
type Writer interface {
	// WriteFromBlocks writes at most srcs.NumBytes() bytes from srcs and
	// returns how many it wrote. An error is only returned with a short
	// count.
	WriteFromBlocks(srcs BlockSeq) (uint64, error)
}

// WriteFullFromBlocks repeats w.WriteFromBlocks until all of srcs is written
// or w fails.
func WriteFullFromBlocks(w Writer, srcs BlockSeq) (uint64, error) {
	var done uint64
	for !srcs.IsEmpty() {
		n, err := w.WriteFromBlocks(srcs)
		done += n
		if err != nil {
			return done, err
		}
		srcs = srcs.DropFirst64(n)
	}
	return done, nil
}

// FromIOReader is a Reader over an io.Reader. It issues one Read per Block
// and stops at the first short Read.
type FromIOReader struct {
	Reader io.Reader
}

// ReadToBlocks implements Reader.ReadToBlocks.
func (r FromIOReader) ReadToBlocks(dsts BlockSeq) (uint64, error) {
	var done uint64
	for ; !dsts.IsEmpty(); dsts = dsts.Tail() {
		b := dsts.Head()
		n, err := r.Reader.Read(b.ToSlice())
		done += uint64(n)
		switch {
		case n < b.Len():
			return done, err
		case err == io.EOF && dsts.Tail().IsEmpty():
			return done, nil
		case err != nil:
			return done, err
		}
	}
	return done, nil
}

// FromIOWriter is a Writer over an io.Writer. It issues one Write per Block
// and stops at the first short Write.
type FromIOWriter struct {
	Writer io.Writer
}

// WriteFromBlocks implements Writer.WriteFromBlocks.
func (w FromIOWriter) WriteFromBlocks(srcs BlockSeq) (uint64, error) {
	var done uint64
	for ; !srcs.IsEmpty(); srcs = srcs.Tail() {
		b := srcs.Head()
		n, err := w.Writer.Write(b.ToSlice())
		done += uint64(n)
		if err != nil || n < b.Len() {
			return done, err
		}
	}
	return done, nil
}

// FromVecReaderFunc is a Reader over a scatter read such as readv(2).
type FromVecReaderFunc struct {
	ReadVec func(dsts [][]byte) (int64, error)
}

// ReadToBlocks implements Reader.ReadToBlocks. ReadVec is called once.
func (r FromVecReaderFunc) ReadToBlocks(dsts BlockSeq) (uint64, error) {
	if dsts.IsEmpty() {
		return 0, nil
	}
	n, err := r.ReadVec(vecOf(dsts))
	return uint64(n), err
}

// FromVecWriterFunc is a Writer over a gather write such as writev(2).
type FromVecWriterFunc struct {
	WriteVec func(srcs [][]byte) (int64, error)
}

// WriteFromBlocks implements Writer.WriteFromBlocks. WriteVec is called once.
func (w FromVecWriterFunc) WriteFromBlocks(srcs BlockSeq) (uint64, error) {
	if srcs.IsEmpty() {
		return 0, nil
	}
	n, err := w.WriteVec(vecOf(srcs))
	return uint64(n), err
}

// vecOf returns the byte slices of bs, capped so the total fits in an int64
// return count.
func vecOf(bs BlockSeq) [][]byte {
	blocks := bs.TakeFirst64(math.MaxInt64).Blocks()
	vec := make([][]byte, len(blocks))
	for i, b := range blocks {
		vec[i] = b.ToSlice()
	}
	return vec
}
