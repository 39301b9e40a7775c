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
	"math"

	"github.com/pkg/errors"
)

// maxCallDepth bounds recursion: a call pushing the frame count past this
// raises ErrCallStackOverflow instead of growing forever.
const maxCallDepth = 1000

// tailcallSignal is returned internally by the dispatch loop to unwind a
// tailcall to its caller without advancing the caller's own pc.
type tailcallSignal struct {
	value int64
}

func (tailcallSignal) Error() string { return "tailcall unwind" }

// executeFunction runs fn with args loaded positionally into r0..r7 and
// returns its return value. Register state is snapshotted on entry and
// restored on exit except for r0..r6, which carry the callee's final values
// back to the caller in addition to the explicit return value.
func (m *Module) executeFunction(name string, args []int64) (int64, error) {
	fn, ok := m.Functions[name]
	if !ok {
		return 0, errors.Wrapf(ErrFunctionNotFound, "function %q", name)
	}
	if len(m.frames) >= maxCallDepth {
		return 0, errors.Wrapf(ErrCallStackOverflow, "calling %q", name)
	}

	snapshot := m.regs
	m.frames = append(m.frames, frame{name: name})

	for i := 0; i < len(args) && i < 8; i++ {
		m.regs[i] = args[i]
	}

	ret, err := m.run(fn)

	m.frames = m.frames[:len(m.frames)-1]

	var saved [7]int64
	copy(saved[:], m.regs[:7])
	m.regs = snapshot
	copy(m.regs[:7], saved[:])

	return ret, err
}

// run executes fn's instruction stream starting at pc=1 (1-based per the
// label-index convention) until a ret, a tailcall unwind, or an error.
func (m *Module) run(fn *Function) (int64, error) {
	pc := 1
	for pc <= len(fn.Instructions) {
		instr := fn.Instructions[pc-1]
		next, ret, done, err := m.step(fn, instr, pc)
		if err != nil {
			if tc, ok := err.(tailcallSignal); ok {
				return tc.value, nil
			}
			return 0, errors.Wrapf(err, "function %q pc=%d op=%s", fn.Name, pc, instr.Opcode)
		}
		if done {
			return ret, nil
		}
		pc = next
	}
	return 0, nil
}

func (m *Module) readValue(op Operand) int64 {
	switch op.Kind {
	case OperandRegister:
		return m.regs[op.Reg]
	case OperandImmediate:
		return op.Imm
	default:
		return 0
	}
}

func (m *Module) memAddr(op Operand) int64 {
	if op.Kind != OperandMemory {
		return m.readValue(op)
	}
	addr := m.readValue(*op.Base)
	if op.Off != nil {
		off := m.readValue(*op.Off)
		if op.OffNeg {
			addr -= off
		} else {
			addr += off
		}
	}
	return addr
}

func floatFromReg(v int64) float64 { return math.Float64frombits(uint64(v)) }
func floatToReg(v float64) int64   { return int64(math.Float64bits(v)) }

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

// step executes one instruction and reports where to continue. done==true
// means ret produced a return value; a tailcall instead reports its result
// through an err of type tailcallSignal, which run unwraps.
func (m *Module) step(fn *Function, instr Instruction, pc int) (next int, ret int64, done bool, err error) {
	ops := instr.Operands
	switch instr.Opcode {
	case "nop":
		// no-op; unrecognized mnemonics fall through to this case too.

	case "mov":
		m.regs[ops[0].Reg] = m.readValue(ops[1])
	case "fmov":
		m.regs[ops[0].Reg] = m.readValue(ops[1])

	case "data.load":
		ptr, derr := m.executeDataBuilder(ops[1].Name)
		if derr != nil {
			return 0, 0, false, derr
		}
		m.regs[ops[0].Reg] = ptr

	case "ld.i8":
		m.regs[ops[0].Reg] = int64(m.Memory().ReadByte(m.memAddr(ops[1])))
	case "ld.i32":
		m.regs[ops[0].Reg] = int64(m.Memory().ReadI32(m.memAddr(ops[1])))
	case "ld.i64":
		m.regs[ops[0].Reg] = m.Memory().ReadI64(m.memAddr(ops[1]))

	case "st.i8":
		m.Memory().WriteByte(m.memAddr(ops[0]), byte(m.readValue(ops[1])))
	case "st.i32":
		m.Memory().WriteI32(m.memAddr(ops[0]), int32(m.readValue(ops[1])))
	case "st.i64":
		m.Memory().WriteI64(m.memAddr(ops[0]), m.readValue(ops[1]))

	case "heap.alloc":
		m.regs[ops[0].Reg] = m.Memory().Alloc(m.readValue(ops[1]))
	case "heap.realloc":
		m.regs[ops[0].Reg] = m.Memory().Realloc(m.readValue(ops[1]), m.readValue(ops[2]))

	case "add":
		m.regs[ops[0].Reg] = m.readValue(ops[1]) + m.readValue(ops[2])
	case "sub":
		m.regs[ops[0].Reg] = m.readValue(ops[1]) - m.readValue(ops[2])
	case "mul":
		m.regs[ops[0].Reg] = m.readValue(ops[1]) * m.readValue(ops[2])
	case "div":
		b := m.readValue(ops[2])
		if b == 0 {
			return 0, 0, false, errors.Wrap(ErrDivisionByZero, "div")
		}
		m.regs[ops[0].Reg] = floorDiv(m.readValue(ops[1]), b)
	case "rem":
		b := m.readValue(ops[2])
		if b == 0 {
			return 0, 0, false, errors.Wrap(ErrDivisionByZero, "rem")
		}
		m.regs[ops[0].Reg] = floorMod(m.readValue(ops[1]), b)
	case "inc":
		m.regs[ops[0].Reg]++
	case "dec":
		m.regs[ops[0].Reg]--
	case "neg":
		m.regs[ops[0].Reg] = -m.readValue(ops[1])

	case "fadd":
		m.regs[ops[0].Reg] = floatToReg(floatFromReg(m.readValue(ops[1])) + floatFromReg(m.readValue(ops[2])))
	case "fsub":
		m.regs[ops[0].Reg] = floatToReg(floatFromReg(m.readValue(ops[1])) - floatFromReg(m.readValue(ops[2])))
	case "fmul":
		m.regs[ops[0].Reg] = floatToReg(floatFromReg(m.readValue(ops[1])) * floatFromReg(m.readValue(ops[2])))
	case "fdiv":
		b := floatFromReg(m.readValue(ops[2]))
		if b == 0 {
			return 0, 0, false, errors.Wrap(ErrDivisionByZero, "fdiv")
		}
		m.regs[ops[0].Reg] = floatToReg(floatFromReg(m.readValue(ops[1])) / b)
	case "frem":
		b := floatFromReg(m.readValue(ops[2]))
		if b == 0 {
			return 0, 0, false, errors.Wrap(ErrDivisionByZero, "frem")
		}
		m.regs[ops[0].Reg] = floatToReg(math.Mod(floatFromReg(m.readValue(ops[1])), b))
	case "ffloor":
		m.regs[ops[0].Reg] = floatToReg(math.Floor(floatFromReg(m.readValue(ops[1]))))
	case "fceil":
		m.regs[ops[0].Reg] = floatToReg(math.Ceil(floatFromReg(m.readValue(ops[1]))))
	case "fsqrt":
		m.regs[ops[0].Reg] = floatToReg(math.Sqrt(floatFromReg(m.readValue(ops[1]))))
	case "fabs":
		m.regs[ops[0].Reg] = floatToReg(math.Abs(floatFromReg(m.readValue(ops[1]))))
	case "fneg":
		m.regs[ops[0].Reg] = floatToReg(-floatFromReg(m.readValue(ops[1])))

	case "i2f":
		m.regs[ops[0].Reg] = m.readValue(ops[1])
	case "f2i":
		m.regs[ops[0].Reg] = int64(math.Floor(floatFromReg(m.readValue(ops[1]))))

	case "cmp":
		d := m.readValue(ops[0]) - m.readValue(ops[1])
		m.flagZ = d == 0
		m.flagN = d < 0

	case "setz":
		m.regs[ops[0].Reg] = boolReg(m.flagZ)
	case "setnz":
		m.regs[ops[0].Reg] = boolReg(!m.flagZ)
	case "setl":
		m.regs[ops[0].Reg] = boolReg(m.flagN)
	case "setle":
		m.regs[ops[0].Reg] = boolReg(m.flagZ || m.flagN)
	case "setg":
		m.regs[ops[0].Reg] = boolReg(!m.flagZ && !m.flagN)
	case "setge":
		m.regs[ops[0].Reg] = boolReg(!m.flagN)

	case "and":
		m.regs[ops[0].Reg] = m.readValue(ops[1]) & m.readValue(ops[2])
	case "or":
		m.regs[ops[0].Reg] = m.readValue(ops[1]) | m.readValue(ops[2])
	case "xor":
		m.regs[ops[0].Reg] = m.readValue(ops[1]) ^ m.readValue(ops[2])
	case "not":
		m.regs[ops[0].Reg] = ^m.readValue(ops[1])
	case "shl":
		m.regs[ops[0].Reg] = m.readValue(ops[1]) << uint(m.readValue(ops[2]))
	case "shr":
		m.regs[ops[0].Reg] = m.readValue(ops[1]) >> uint(m.readValue(ops[2]))

	case "jmp":
		if target, ok := fn.Labels[ops[0].Name]; ok {
			return target, 0, false, nil
		}
	case "je", "jz":
		if m.flagZ {
			if target, ok := fn.Labels[ops[0].Name]; ok {
				return target, 0, false, nil
			}
		}
	case "jne", "jnz":
		if !m.flagZ {
			if target, ok := fn.Labels[ops[0].Name]; ok {
				return target, 0, false, nil
			}
		}
	case "jl":
		if m.flagN {
			if target, ok := fn.Labels[ops[0].Name]; ok {
				return target, 0, false, nil
			}
		}
	case "jle":
		if m.flagZ || m.flagN {
			if target, ok := fn.Labels[ops[0].Name]; ok {
				return target, 0, false, nil
			}
		}
	case "jg":
		if !m.flagZ && !m.flagN {
			if target, ok := fn.Labels[ops[0].Name]; ok {
				return target, 0, false, nil
			}
		}
	case "jge":
		if !m.flagN {
			if target, ok := fn.Labels[ops[0].Name]; ok {
				return target, 0, false, nil
			}
		}

	case "call":
		var args [8]int64
		copy(args[:], m.regs[:8])
		result, cerr := m.executeFunction(ops[0].Name, args[:])
		if cerr != nil {
			return 0, 0, false, cerr
		}
		m.regs[0] = result
	case "tailcall":
		var args [8]int64
		copy(args[:], m.regs[:8])
		result, cerr := m.executeFunction(ops[0].Name, args[:])
		if cerr != nil {
			return 0, 0, false, cerr
		}
		return 0, 0, false, tailcallSignal{value: result}
	case "ret":
		return 0, m.readValue(ops[0]), true, nil

	case "func.addr":
		id := m.nextPtrID
		m.nextPtrID++
		m.funcPtrs[id] = ops[1].Name
		m.regs[ops[0].Reg] = id
	case "call.indirect":
		id := m.readValue(ops[0])
		target, ok := m.funcPtrs[id]
		if !ok {
			return 0, 0, false, errors.Wrapf(ErrInvalidFunctionPointer, "pointer %d", id)
		}
		var args [8]int64
		if m.regs[0] == 0 {
			copy(args[:7], m.regs[1:8])
			args[7] = 0
		} else {
			copy(args[:], m.regs[:8])
		}
		result, cerr := m.executeFunction(target, args[:])
		if cerr != nil {
			return 0, 0, false, cerr
		}
		m.regs[0] = result

	case "console.log.str":
		addr := m.readValue(ops[0])
		length := m.Memory().ReadI64(addr)
		m.out.logStr(string(m.Memory().ReadBytes(addr+8, int(length))))
	case "console.log.val":
		m.out.logVal(m.readValue(ops[0]))
	case "console.log.space":
		m.out.logSpace()
	case "console.log.newline":
		if ferr := m.out.newline(); ferr != nil {
			return 0, 0, false, ferr
		}

	case "str.concat":
		ptr, serr := m.opStrConcat(ops)
		if serr != nil {
			return 0, 0, false, serr
		}
		m.regs[ops[0].Reg] = ptr
	case "char.from":
		ptr := m.allocVMString([]byte{byte(m.readValue(ops[1]))})
		m.regs[ops[0].Reg] = ptr
	case "str.sub":
		ptr := m.opStrSub(ops)
		m.regs[ops[0].Reg] = ptr
	case "str.rep":
		ptr := m.opStrRep(ops)
		m.regs[ops[0].Reg] = ptr
	case "str.reverse":
		ptr := m.opStrReverse(ops)
		m.regs[ops[0].Reg] = ptr
	case "str.upper":
		ptr := m.opStrCase(ops, true)
		m.regs[ops[0].Reg] = ptr
	case "str.lower":
		ptr := m.opStrCase(ops, false)
		m.regs[ops[0].Reg] = ptr
	case "int.tostring":
		ptr := m.opIntToString(ops)
		m.regs[ops[0].Reg] = ptr
	case "str.tonumber":
		m.regs[ops[0].Reg] = m.opStrToNumber(ops)
	case "table.concat":
		ptr := m.opTableConcat(ops)
		m.regs[ops[0].Reg] = ptr

	case "type.of":
		if m.readValue(ops[1]) != 0 {
			m.regs[ops[0].Reg] = 1
		} else {
			m.regs[ops[0].Reg] = 0
		}

	default:
		// Unrecognized mnemonic: treated as nop.
	}
	return pc + 1, 0, false, nil
}

func boolReg(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
