// This file is part of basm-dev - https://github.com/Juicywoowowow/basm-dev
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

// Package bio provides the small buffered-output primitive behind the VM's
// console opcodes.
package bio

import (
	"io"

	"github.com/pkg/errors"
)

// LineBuffer accumulates console output between console.log.newline flushes.
// It is the VM-side counterpart to the host Writer passed at construction:
// console.log.str/val/space append to the buffer, console.log.newline drains
// it to the sink in one Write call.
type LineBuffer struct {
	w   io.Writer
	buf []byte
	Err error
}

// NewLineBuffer wraps w. A nil w discards flushed output.
func NewLineBuffer(w io.Writer) *LineBuffer {
	return &LineBuffer{w: w}
}

// WriteString appends s to the pending line.
func (b *LineBuffer) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// Flush writes the accumulated line to the sink and clears it. Once a write
// fails, Flush keeps returning the same error on every subsequent call.
func (b *LineBuffer) Flush() error {
	if b.Err != nil {
		return b.Err
	}
	if b.w == nil {
		b.buf = b.buf[:0]
		return nil
	}
	_, err := b.w.Write(b.buf)
	b.buf = b.buf[:0]
	if err != nil {
		b.Err = errors.Wrap(err, "console flush")
	}
	return b.Err
}

// Pending returns the unflushed bytes accumulated so far.
func (b *LineBuffer) Pending() string {
	return string(b.buf)
}

// Reset clears the buffer and any sticky error without touching the sink.
func (b *LineBuffer) Reset() {
	b.buf = b.buf[:0]
	b.Err = nil
}
