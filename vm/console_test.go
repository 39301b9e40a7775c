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

import "testing"

func TestConsoleLogOpcodes(t *testing.T) {
	mod := newTestModule()
	ptr := mod.allocVMString([]byte("hi"))
	mod.Functions["main"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("console.log.str", imm(ptr)),
			instr("console.log.space"),
			instr("console.log.val", imm(42)),
			instr("console.log.newline"),
			instr("ret", imm(0)),
		},
	}
	if _, err := mod.executeFunction("main", nil); err != nil {
		t.Fatal(err)
	}
	if got := mod.ConsoleOutput(); got != "hi 42" {
		t.Fatalf("console output = %q, want %q", got, "hi 42")
	}
}

func TestConsoleLogAccumulatesAcrossMultipleLines(t *testing.T) {
	mod := newTestModule()
	mod.Functions["main"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("console.log.val", imm(1)),
			instr("console.log.newline"),
			instr("console.log.val", imm(2)),
			instr("console.log.newline"),
			instr("ret", imm(0)),
		},
	}
	if _, err := mod.executeFunction("main", nil); err != nil {
		t.Fatal(err)
	}
	if got := mod.ConsoleOutput(); got != "12" {
		t.Fatalf("console output = %q, want %q", got, "12")
	}
}
