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

// OpcodeNames maps a BASMB instruction byte to its mnemonic. This is the
// authoritative byte table: only these opcodes have a binary encoding at
// all — a mnemonic like str.sub or fadd only exists in text form. A byte
// missing from this table decodes to "nop", per the binary decoder's
// unknown-opcode rule.
var OpcodeNames = map[byte]string{
	0x01: "mov",
	0x02: "data.load",
	0x10: "ld.i64",
	0x11: "ld.i32",
	0x20: "st.i64",
	0x21: "st.i32",
	0x28: "heap.alloc",
	0x29: "heap.realloc",
	0x30: "add",
	0x31: "sub",
	0x32: "mul",
	0x33: "div",
	0x34: "rem",
	0x35: "neg",
	0x36: "inc",
	0x37: "dec",
	0x40: "and",
	0x41: "or",
	0x42: "xor",
	0x43: "not",
	0x44: "shl",
	0x45: "shr",
	0x50: "cmp",
	0x51: "setz",
	0x52: "setnz",
	0x53: "setl",
	0x54: "setle",
	0x55: "setg",
	0x56: "setge",
	0x60: "jmp",
	0x61: "jz",
	0x62: "jnz",
	0x63: "jl",
	0x64: "jle",
	0x65: "jg",
	0x66: "jge",
	0x70: "call",
	0x71: "ret",
	0x72: "func.addr",
	0x73: "call.indirect",
	0x80: "console.log.str",
	0x81: "console.log.val",
	0x82: "console.log.space",
	0x83: "console.log.newline",
	0x90: "str.concat",
	0xFF: "nop",
}

// OpcodeBytes is the inverse of OpcodeNames: it recovers the byte for a
// mnemonic that has one.
var OpcodeBytes = func() map[string]byte {
	m := make(map[string]byte, len(OpcodeNames))
	for b, name := range OpcodeNames {
		m[name] = b
	}
	return m
}()
