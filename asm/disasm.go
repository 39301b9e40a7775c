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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Juicywoowowow/basm-dev/vm"
)

// Disassemble reconstructs BASM text source for mod, in a form Parse accepts
// again. cmd/basmrun's -disasm flag uses it; the binary decoder does not (it
// builds the module directly). Immediates are always rendered as plain decimal: a module
// built from BASMB never carries float operands (the binary format has no
// float tag), so this only loses fidelity for a hand-authored float literal
// fed back through a disassemble pass, which is a debug-only path.
func Disassemble(mod *vm.Module) string {
	var b strings.Builder

	names := make([]string, 0, len(mod.DataBuilders))
	for n := range mod.DataBuilders {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&b, "data $%s {\n", n)
		for _, d := range mod.DataBuilders[n] {
			switch d.Op {
			case vm.WriteLen:
				fmt.Fprintf(&b, "  write.len %d\n", d.IntArg)
			case vm.WriteI64:
				fmt.Fprintf(&b, "  write.i64 %d\n", d.IntArg)
			case vm.WriteBytes:
				fmt.Fprintf(&b, "  write.bytes %q\n", string(d.BytesArg))
			}
		}
		b.WriteString("}\n")
	}

	fnames := make([]string, 0, len(mod.Functions))
	for n := range mod.Functions {
		fnames = append(fnames, n)
	}
	sort.Strings(fnames)
	for _, n := range fnames {
		fn := mod.Functions[n]
		fmt.Fprintf(&b, "func $%s(%s) {\n", n, strings.Join(fn.Params, ", "))
		labelAt := make(map[int][]string)
		for label, idx := range fn.Labels {
			labelAt[idx] = append(labelAt[idx], label)
		}
		for idx, instr := range fn.Instructions {
			for _, label := range labelAt[idx+1] {
				fmt.Fprintf(&b, "%s:\n", label)
			}
			b.WriteString("  ")
			b.WriteString(instr.Opcode)
			for i, op := range instr.Operands {
				if i == 0 {
					b.WriteByte(' ')
				} else {
					b.WriteString(", ")
				}
				b.WriteString(operandText(op))
			}
			b.WriteByte('\n')
		}
		for _, label := range labelAt[len(fn.Instructions)+1] {
			fmt.Fprintf(&b, "%s:\n", label)
		}
		b.WriteString("}\n")
	}

	aliases := make([]string, 0, len(mod.Exports))
	for a := range mod.Exports {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		fmt.Fprintf(&b, "export $%s as %q\n", mod.Exports[alias], alias)
	}

	return b.String()
}

func operandText(op vm.Operand) string {
	switch op.Kind {
	case vm.OperandRegister:
		return "r" + strconv.Itoa(op.Reg)
	case vm.OperandImmediate:
		return strconv.FormatInt(op.Imm, 10)
	case vm.OperandLabel:
		return op.Name
	case vm.OperandSymbol:
		return "$" + op.Name
	case vm.OperandMemory:
		var b strings.Builder
		b.WriteByte('[')
		b.WriteString(operandText(*op.Base))
		if op.Off != nil {
			if op.OffNeg {
				b.WriteByte('-')
			} else {
				b.WriteByte('+')
			}
			b.WriteString(operandText(*op.Off))
		}
		b.WriteByte(']')
		return b.String()
	default:
		return "?"
	}
}
