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

package vm

import (
	"bytes"
	"io"
	"strconv"

	"github.com/Juicywoowowow/basm-dev/internal/bio"
)

// lineSink is the runtime half of the four console.log.* opcodes: str/val/
// space append to a pending line, newline flushes it to the host sink in one
// write. Default sink is an internal buffer so a host that never supplies
// its own io.Writer can still recover output via Module.ConsoleOutput.
type lineSink struct {
	buf  *bytes.Buffer
	line *bio.LineBuffer
}

func newLineSink(extra io.Writer) *lineSink {
	buf := &bytes.Buffer{}
	var w io.Writer = buf
	if extra != nil {
		w = io.MultiWriter(buf, extra)
	}
	return &lineSink{buf: buf, line: bio.NewLineBuffer(w)}
}

func (s *lineSink) reset() {
	s.buf.Reset()
	s.line.Reset()
}

func (s *lineSink) logStr(v string) { s.line.WriteString(v) }
func (s *lineSink) logVal(v int64)  { s.line.WriteString(strconv.FormatInt(v, 10)) }
func (s *lineSink) logSpace()       { s.line.WriteString(" ") }
func (s *lineSink) newline() error  { return s.line.Flush() }

// ConsoleOutput returns everything flushed by console.log.newline so far.
func (m *Module) ConsoleOutput() string {
	return m.out.buf.String()
}
