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

package asm

import (
	"strings"
	"testing"
)

const roundTripModule = `
func $add(a, b) {
  add r0, r0, r1
  ret r0
}

func $main() {
  mov r0, 10
  mov r1, 20
  call $add
  jmp .done
  mov r2, 999
.done:
  ret r0
}

data $msg {
  write.len 3
  write.bytes "hey"
}

export $main as "entry"
`

func TestDisassembleReparseRoundTrip(t *testing.T) {
	mod, err := Parse("orig", strings.NewReader(roundTripModule))
	if err != nil {
		t.Fatal(err)
	}

	text := Disassemble(mod)

	reparsed, err := Parse("roundtrip", strings.NewReader(text))
	if err != nil {
		t.Fatalf("reparsing disassembled text: %v\n---\n%s", err, text)
	}

	if len(reparsed.Functions) != len(mod.Functions) {
		t.Fatalf("function count = %d, want %d", len(reparsed.Functions), len(mod.Functions))
	}
	for name, fn := range mod.Functions {
		rfn, ok := reparsed.Functions[name]
		if !ok {
			t.Fatalf("missing function %q after round trip", name)
		}
		if len(rfn.Instructions) != len(fn.Instructions) {
			t.Fatalf("%s: instruction count = %d, want %d", name, len(rfn.Instructions), len(fn.Instructions))
		}
		for label, idx := range fn.Labels {
			ridx, ok := rfn.Labels[label]
			if !ok || ridx != idx {
				t.Fatalf("%s: label %q = %d, want %d (ok=%v)", name, label, ridx, idx, ok)
			}
		}
	}

	if reparsed.Exports["entry"] != mod.Exports["entry"] {
		t.Fatalf("export alias mismatch after round trip")
	}
	if len(reparsed.DataBuilders["msg"]) != len(mod.DataBuilders["msg"]) {
		t.Fatalf("data builder directive count mismatch after round trip")
	}
}
