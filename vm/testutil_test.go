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

func reg(n int) Operand { return Operand{Kind: OperandRegister, Reg: n} }
func imm(v int64) Operand { return Operand{Kind: OperandImmediate, Imm: v} }
func label(name string) Operand { return Operand{Kind: OperandLabel, Name: name} }
func sym(name string) Operand { return Operand{Kind: OperandSymbol, Name: name} }

func mem(base Operand, off *Operand, neg bool) Operand {
	b := base
	op := Operand{Kind: OperandMemory, Base: &b}
	if off != nil {
		o := *off
		op.Off = &o
		op.OffNeg = neg
	}
	return op
}

func instr(op string, operands ...Operand) Instruction {
	return Instruction{Opcode: op, Operands: operands}
}

func newTestModule() *Module {
	return NewModule()
}
