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
	"testing"

	"github.com/pkg/errors"
)

func TestExecuteFunctionReturnsValue(t *testing.T) {
	mod := newTestModule()
	mod.Functions["main"] = &Function{
		Name:   "main",
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("mov", reg(0), imm(42)),
			instr("ret", reg(0)),
		},
	}
	v, err := mod.executeFunction("main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestExecuteFunctionAdd(t *testing.T) {
	mod := newTestModule()
	mod.Functions["add"] = &Function{
		Name:   "add",
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("add", reg(0), reg(0), reg(1)),
			instr("ret", reg(0)),
		},
	}
	v, err := mod.executeFunction("add", []int64{10, 20})
	if err != nil {
		t.Fatal(err)
	}
	if v != 30 {
		t.Fatalf("got %d, want 30", v)
	}
}

func TestFactorial(t *testing.T) {
	mod := newTestModule()
	mod.Functions["fact"] = &Function{
		Name:   "fact",
		Params: []string{"n"},
		Labels: map[string]int{".base": 8},
		Instructions: []Instruction{
			instr("cmp", reg(0), imm(1)),
			instr("jle", label(".base")),
			instr("mov", reg(7), reg(0)),
			instr("sub", reg(0), reg(0), imm(1)),
			instr("call", sym("fact")),
			instr("mul", reg(0), reg(0), reg(7)),
			instr("ret", reg(0)),
			instr("mov", reg(0), imm(1)),
			instr("ret", reg(0)),
		},
	}
	v, err := mod.executeFunction("fact", []int64{5})
	if err != nil {
		t.Fatal(err)
	}
	if v != 120 {
		t.Fatalf("fact(5) = %d, want 120", v)
	}
}

func TestRegistersAboveSevenPreservedAcrossCall(t *testing.T) {
	mod := newTestModule()
	mod.Functions["clobber"] = &Function{
		Name:   "clobber",
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("mov", reg(7), imm(111)),
			instr("mov", reg(200), imm(222)),
			instr("ret", imm(0)),
		},
	}
	mod.regs[7] = 999
	mod.regs[200] = 888
	if _, err := mod.executeFunction("clobber", nil); err != nil {
		t.Fatal(err)
	}
	if mod.regs[7] != 999 {
		t.Fatalf("r7 = %d, want 999 (preserved)", mod.regs[7])
	}
	if mod.regs[200] != 888 {
		t.Fatalf("r200 = %d, want 888 (preserved)", mod.regs[200])
	}
}

func TestRegistersR0ToR6MergeBackOnReturn(t *testing.T) {
	mod := newTestModule()
	mod.Functions["setter"] = &Function{
		Name:   "setter",
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("mov", reg(3), imm(55)),
			instr("ret", reg(3)),
		},
	}
	if _, err := mod.executeFunction("setter", nil); err != nil {
		t.Fatal(err)
	}
	if mod.regs[3] != 55 {
		t.Fatalf("r3 = %d, want 55 (merged back)", mod.regs[3])
	}
}

func TestHeapAllocAlignedAndMonotonic(t *testing.T) {
	m := NewMemory()
	p1 := m.Alloc(3)
	p2 := m.Alloc(1)
	p3 := m.Alloc(8)
	if p1 != 0 {
		t.Fatalf("p1 = %d, want 0", p1)
	}
	if p1%8 != 0 || p2%8 != 0 || p3%8 != 0 {
		t.Fatalf("allocations not 8-byte aligned: %d %d %d", p1, p2, p3)
	}
	if !(p1 < p2 && p2 < p3) {
		t.Fatalf("allocations not strictly increasing: %d %d %d", p1, p2, p3)
	}
}

func TestCompareAndSetTruthTable(t *testing.T) {
	cases := []struct{ a, b int64 }{
		{5, 5}, {3, 7}, {7, 3}, {-1, 1}, {0, 0}, {-5, -9},
	}
	for _, c := range cases {
		mod := newTestModule()
		mod.regs[0], mod.regs[1] = c.a, c.b
		fn := &Function{Labels: map[string]int{}, Instructions: []Instruction{
			instr("cmp", reg(0), reg(1)),
			instr("setz", reg(2)),
			instr("setnz", reg(3)),
			instr("setl", reg(4)),
			instr("setle", reg(5)),
			instr("setg", reg(6)),
			instr("setge", reg(7)),
			instr("ret", imm(0)),
		}}
		if _, err := mod.run(fn); err != nil {
			t.Fatal(err)
		}
		wantZ := boolReg(c.a == c.b)
		wantL := boolReg(c.a < c.b)
		wantG := boolReg(c.a > c.b)
		if mod.regs[2] != wantZ || mod.regs[3] != 1-wantZ {
			t.Errorf("%v: setz/setnz = %d/%d", c, mod.regs[2], mod.regs[3])
		}
		if mod.regs[4] != wantL {
			t.Errorf("%v: setl = %d, want %d", c, mod.regs[4], wantL)
		}
		if mod.regs[5] != boolReg(c.a <= c.b) {
			t.Errorf("%v: setle = %d", c, mod.regs[5])
		}
		if mod.regs[6] != wantG {
			t.Errorf("%v: setg = %d, want %d", c, mod.regs[6], wantG)
		}
		if mod.regs[7] != boolReg(c.a >= c.b) {
			t.Errorf("%v: setge = %d", c, mod.regs[7])
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	mod := newTestModule()
	mod.Functions["divz"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("div", reg(2), reg(0), reg(1)),
			instr("ret", reg(2)),
		},
	}
	_, err := mod.executeFunction("divz", []int64{10, 0})
	if errors.Cause(err) != ErrDivisionByZero {
		t.Fatalf("err = %v, want ErrDivisionByZero", err)
	}
}

func TestFloorDivision(t *testing.T) {
	mod := newTestModule()
	mod.Functions["fd"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("div", reg(2), reg(0), reg(1)),
			instr("ret", reg(2)),
		},
	}
	v, err := mod.executeFunction("fd", []int64{-7, 2})
	if err != nil {
		t.Fatal(err)
	}
	if v != -4 {
		t.Fatalf("floor(-7/2) = %d, want -4", v)
	}
}

func TestCallStackOverflow(t *testing.T) {
	mod := newTestModule()
	mod.Functions["loop"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("call", sym("loop")),
			instr("ret", imm(0)),
		},
	}
	_, err := mod.executeFunction("loop", nil)
	if errors.Cause(err) != ErrCallStackOverflow {
		t.Fatalf("err = %v, want ErrCallStackOverflow", err)
	}
}

func TestFunctionNotFound(t *testing.T) {
	mod := newTestModule()
	_, err := mod.executeFunction("nope", nil)
	if errors.Cause(err) != ErrFunctionNotFound {
		t.Fatalf("err = %v, want ErrFunctionNotFound", err)
	}
}

func TestFuncAddrAndCallIndirect(t *testing.T) {
	mod := newTestModule()
	mod.Functions["target"] = &Function{
		Labels:       map[string]int{},
		Instructions: []Instruction{instr("ret", reg(0))},
	}
	mod.Functions["run_indirect"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("func.addr", reg(0), sym("target")),
			instr("heap.alloc", reg(3), imm(8)),
			instr("st.i64", mem(reg(3), nil, false), reg(0)),
			instr("ld.i64", reg(4), mem(reg(3), nil, false)),
			instr("mov", reg(1), imm(42)),
			instr("mov", reg(0), imm(0)),
			instr("call.indirect", reg(4)),
			instr("ret", reg(0)),
		},
	}
	v, err := mod.executeFunction("run_indirect", nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestInvalidFunctionPointer(t *testing.T) {
	mod := newTestModule()
	mod.Functions["bad"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("call.indirect", reg(0)),
			instr("ret", imm(0)),
		},
	}
	mod.regs[0] = 123456789
	_, err := mod.executeFunction("bad", nil)
	if errors.Cause(err) != ErrInvalidFunctionPointer {
		t.Fatalf("err = %v, want ErrInvalidFunctionPointer", err)
	}
}

func TestDataBuilderWriteAndCache(t *testing.T) {
	mod := newTestModule()
	mod.DataBuilders["s"] = []DataDirective{
		{Op: WriteLen, IntArg: 5},
		{Op: WriteBytes, BytesArg: []byte("hello")},
	}
	mod.Functions["main"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("data.load", reg(0), sym("s")),
			instr("ret", reg(0)),
		},
	}
	p1, err := mod.executeFunction("main", nil)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := mod.executeFunction("main", nil)
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Fatalf("data builder not cached: %d != %d", p1, p2)
	}
	if got := mod.Memory().ReadI64(p1); got != 5 {
		t.Fatalf("length word = %d, want 5", got)
	}
	if got := string(mod.Memory().ReadBytes(p1+8, 5)); got != "hello" {
		t.Fatalf("payload = %q, want hello", got)
	}
}

func TestStrConcat(t *testing.T) {
	mod := newTestModule()
	// Push the heap past 1000 first so the two allocated string
	// pointers land above str.concat's number/pointer threshold.
	mod.Memory().Alloc(1000)
	mod.Functions["cat"] = &Function{
		Labels: map[string]int{},
		Instructions: []Instruction{
			instr("str.concat", reg(2), reg(0), reg(1)),
			instr("ret", reg(2)),
		},
	}
	p1 := mod.allocVMString([]byte("foo"))
	p2 := mod.allocVMString([]byte("bar"))
	v, err := mod.executeFunction("cat", []int64{p1, p2})
	if err != nil {
		t.Fatal(err)
	}
	if got := mod.Memory().ReadI64(v); got != 6 {
		t.Fatalf("length = %d, want 6", got)
	}
	if got := string(mod.Memory().ReadBytes(v+8, 6)); got != "foobar" {
		t.Fatalf("payload = %q, want foobar", got)
	}
}

func TestResetClearsRuntimeState(t *testing.T) {
	mod := newTestModule()
	mod.Memory().Alloc(16)
	mod.regs[0] = 7
	mod.dataCache["x"] = 8
	mod.Reset()
	if p := mod.Memory().Alloc(8); p != 0 {
		t.Fatalf("heap pointer after reset = %d, want 0", p)
	}
	if mod.regs[0] != 0 {
		t.Fatalf("register not cleared by reset")
	}
	if len(mod.dataCache) != 0 {
		t.Fatalf("data cache not cleared by reset")
	}
}
