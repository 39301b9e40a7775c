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
	"strconv"
	"strings"
)

// allocVMString writes b as a VM-native string — [i64 length][bytes] — at a
// fresh heap allocation and returns its base pointer.
func (m *Module) allocVMString(b []byte) int64 {
	ptr := m.Memory().Alloc(int64(8 + len(b)))
	m.Memory().WriteI64(ptr, int64(len(b)))
	m.Memory().WriteBytes(ptr+8, b)
	return ptr
}

// vmStringAt decodes the VM-native string stored at ptr.
func (m *Module) vmStringAt(ptr int64) []byte {
	length := m.Memory().ReadI64(ptr)
	if length <= 0 {
		return nil
	}
	return m.Memory().ReadBytes(ptr+8, int(length))
}

// concatOperand renders an operand per str.concat's number/pointer
// heuristic: values below 1000 are always numeric; at or above it, the
// value is read as a string pointer if it looks like one was actually
// allocated there (a plausible length prefix within an allocated range),
// otherwise it falls back to decimal rendering.
func (m *Module) concatOperand(op Operand) string {
	v := m.readValue(op)
	if v < 1000 {
		return strconv.FormatInt(v, 10)
	}
	length := m.Memory().ReadI64(v)
	if length >= 0 && length < 100000 && v < m.Memory().HeapPointer() {
		return string(m.Memory().ReadBytes(v+8, int(length)))
	}
	return strconv.FormatInt(v, 10)
}

func (m *Module) opStrConcat(ops []Operand) (int64, error) {
	a := m.concatOperand(ops[1])
	b := m.concatOperand(ops[2])
	return m.allocVMString([]byte(a + b)), nil
}

func (m *Module) opStrSub(ops []Operand) int64 {
	s := m.vmStringAt(m.readValue(ops[1]))
	start := int(m.readValue(ops[2]))
	end := int(m.readValue(ops[3]))
	n := len(s)
	start = clampIndex(start, n)
	end = clampIndex(end, n)
	if start > end || n == 0 {
		return m.allocVMString(nil)
	}
	return m.allocVMString(s[start-1 : end])
}

// clampIndex resolves a 1-based, possibly-negative (from-end) string index
// into a 1-based index clamped to [1, n].
func clampIndex(idx, n int) int {
	if idx < 0 {
		idx = n + idx + 1
	}
	if idx < 1 {
		idx = 1
	}
	if idx > n {
		idx = n
	}
	return idx
}

func (m *Module) opStrRep(ops []Operand) int64 {
	s := m.vmStringAt(m.readValue(ops[1]))
	count := int(m.readValue(ops[2]))
	if count < 0 {
		count = 0
	}
	return m.allocVMString([]byte(strings.Repeat(string(s), count)))
}

func (m *Module) opStrReverse(ops []Operand) int64 {
	s := m.vmStringAt(m.readValue(ops[1]))
	r := make([]rune, 0, len(s))
	for _, c := range string(s) {
		r = append(r, c)
	}
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return m.allocVMString([]byte(string(r)))
}

func (m *Module) opStrCase(ops []Operand, upper bool) int64 {
	s := string(m.vmStringAt(m.readValue(ops[1])))
	if upper {
		s = strings.ToUpper(s)
	} else {
		s = strings.ToLower(s)
	}
	return m.allocVMString([]byte(s))
}

func (m *Module) opIntToString(ops []Operand) int64 {
	v := m.readValue(ops[1])
	return m.allocVMString([]byte(strconv.FormatInt(v, 10)))
}

func (m *Module) opStrToNumber(ops []Operand) int64 {
	s := strings.TrimSpace(string(m.vmStringAt(m.readValue(ops[1]))))
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// opTableConcat concatenates the string payloads referenced by a table's
// element pointers. Table layout: [i64 length][i64 capacity][i64 metatable]
// [i64 element_ptrs...], with element i (1-based) at ptr+16+i*8.
func (m *Module) opTableConcat(ops []Operand) int64 {
	ptr := m.readValue(ops[1])
	length := m.Memory().ReadI64(ptr)
	var b strings.Builder
	for i := int64(1); i <= length; i++ {
		elemPtr := m.Memory().ReadI64(ptr + 16 + i*8)
		b.Write(m.vmStringAt(elemPtr))
	}
	return m.allocVMString([]byte(b.String()))
}
