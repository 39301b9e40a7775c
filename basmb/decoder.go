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

// Package basmb decodes the BASMB binary module format into a *vm.Module,
// the same representation the text loader in package asm produces.
package basmb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/Juicywoowowow/basm-dev/vm"
)

const (
	secStrings   = 0x01
	secFunctions = 0x02
	secExports   = 0x03
	secCode      = 0x05
)

const (
	tagRegister = 0x01
	tagImm32    = 0x02
	tagStrIdx   = 0x03
	tagFuncIdx  = 0x04
	tagSymbol   = 0x05
	tagLabel    = 0x06
	tagMemory   = 0x07
)

// Decode parses BASMB binary data and returns the equivalent module. Unknown
// section IDs are skipped (forward compatibility); unknown opcode bytes
// decode to "nop", per the format's own rule.
func Decode(data []byte) (*vm.Module, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(ErrTruncated(err), "reading magic")
	}
	if string(magic[:]) != "BASM" {
		return nil, errors.Wrapf(vm.ErrModuleLoad, "bad magic %q", magic[:])
	}
	version, err := readU32(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading version")
	}
	major := byte(version >> 24)
	if major != 1 {
		return nil, errors.Wrapf(vm.ErrModuleLoad, "unsupported major version %d", major)
	}

	sections := make(map[byte][]byte)
	for {
		id, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading section id")
		}
		length, err := readU32(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading section length")
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, errors.Wrapf(vm.ErrDecode, "section 0x%02x: truncated body: %v", id, err)
		}
		sections[id] = body
	}

	mod := vm.NewModule()

	if body, ok := sections[secStrings]; ok {
		if err := decodeStrings(mod, body); err != nil {
			return nil, errors.Wrap(err, "strings section")
		}
	}

	var funcsByIndex []*vm.Function
	if body, ok := sections[secFunctions]; ok {
		funcsByIndex, err = decodeFunctions(mod, body)
		if err != nil {
			return nil, errors.Wrap(err, "functions section")
		}
	}

	if body, ok := sections[secExports]; ok {
		if err := decodeExports(mod, body, funcsByIndex); err != nil {
			return nil, errors.Wrap(err, "exports section")
		}
	}

	if body, ok := sections[secCode]; ok {
		if err := decodeCode(body, funcsByIndex); err != nil {
			return nil, errors.Wrap(err, "code section")
		}
	}

	return mod, nil
}

func decodeStrings(mod *vm.Module, body []byte) error {
	r := bytes.NewReader(body)
	count, err := readU16(r)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		s, err := readString16(r)
		if err != nil {
			return errors.Wrapf(err, "string %d", i)
		}
		name := fmt.Sprintf("str_%d", i+1)
		mod.DataBuilders[name] = []vm.DataDirective{
			{Op: vm.WriteLen, IntArg: int64(len(s))},
			{Op: vm.WriteBytes, BytesArg: []byte(s)},
		}
	}
	return nil
}

func decodeFunctions(mod *vm.Module, body []byte) ([]*vm.Function, error) {
	r := bytes.NewReader(body)
	count, err := readU16(r)
	if err != nil {
		return nil, err
	}
	funcs := make([]*vm.Function, 0, count)
	for i := 0; i < int(count); i++ {
		name, err := readString16(r)
		if err != nil {
			return nil, errors.Wrapf(err, "function %d name", i)
		}
		paramCount, err := readU8(r)
		if err != nil {
			return nil, errors.Wrapf(err, "function %d paramCount", i)
		}
		if _, err := readU16(r); err != nil { // instrCount: instructions live in the Code section
			return nil, errors.Wrapf(err, "function %d instrCount", i)
		}
		params := make([]string, paramCount)
		for p := range params {
			params[p] = fmt.Sprintf("arg%d", p+1)
		}
		fn := &vm.Function{Name: name, Params: params, Labels: make(map[string]int)}
		mod.Functions[name] = fn
		funcs = append(funcs, fn)
	}
	return funcs, nil
}

func decodeExports(mod *vm.Module, body []byte, funcs []*vm.Function) error {
	r := bytes.NewReader(body)
	count, err := readU16(r)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		alias, err := readString16(r)
		if err != nil {
			return errors.Wrapf(err, "export %d alias", i)
		}
		idx, err := readU16(r)
		if err != nil {
			return errors.Wrapf(err, "export %d funcIndex", i)
		}
		if int(idx) >= len(funcs) {
			return errors.Wrapf(vm.ErrDecode, "export %q: function index %d out of range", alias, idx)
		}
		mod.Exports[alias] = funcs[idx].Name
	}
	return nil
}

func decodeCode(body []byte, funcs []*vm.Function) error {
	r := bytes.NewReader(body)
	for r.Len() > 0 {
		funcIdx, err := readU16(r)
		if err != nil {
			return errors.Wrap(err, "funcIndex")
		}
		if int(funcIdx) >= len(funcs) {
			return errors.Wrapf(vm.ErrDecode, "code block: function index %d out of range", funcIdx)
		}
		fn := funcs[funcIdx]

		labelCount, err := readU16(r)
		if err != nil {
			return errors.Wrap(err, "labelCount")
		}
		for i := 0; i < int(labelCount); i++ {
			name, err := readString16(r)
			if err != nil {
				return errors.Wrapf(err, "label %d name", i)
			}
			pos, err := readU16(r)
			if err != nil {
				return errors.Wrapf(err, "label %d pos", i)
			}
			fn.Labels[name] = int(pos)
		}

		instrCount, err := readU16(r)
		if err != nil {
			return errors.Wrap(err, "instrCount")
		}
		for i := 0; i < int(instrCount); i++ {
			instr, err := decodeInstruction(r, funcs)
			if err != nil {
				return errors.Wrapf(err, "instruction %d", i)
			}
			fn.Instructions = append(fn.Instructions, instr)
		}
	}
	return nil
}

func decodeInstruction(r *bytes.Reader, funcs []*vm.Function) (vm.Instruction, error) {
	opByte, err := readU8(r)
	if err != nil {
		return vm.Instruction{}, err
	}
	mnemonic, ok := vm.OpcodeNames[opByte]
	if !ok {
		mnemonic = "nop"
	}
	operandCount, err := readU8(r)
	if err != nil {
		return vm.Instruction{}, err
	}
	instr := vm.Instruction{Opcode: mnemonic}
	for i := 0; i < int(operandCount); i++ {
		op, err := decodeOperand(r, funcs)
		if err != nil {
			return vm.Instruction{}, errors.Wrapf(err, "operand %d", i)
		}
		instr.Operands = append(instr.Operands, op)
	}
	return instr, nil
}

func decodeOperand(r *bytes.Reader, funcs []*vm.Function) (vm.Operand, error) {
	tag, err := readU8(r)
	if err != nil {
		return vm.Operand{}, err
	}
	switch tag {
	case tagRegister:
		idx, err := readU8(r)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Operand{Kind: vm.OperandRegister, Reg: int(idx)}, nil
	case tagImm32:
		v, err := readI32(r)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Operand{Kind: vm.OperandImmediate, Imm: int64(v)}, nil
	case tagStrIdx:
		idx, err := readU16(r)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Operand{Kind: vm.OperandSymbol, Name: fmt.Sprintf("str_%d", idx+1)}, nil
	case tagFuncIdx:
		idx, err := readU16(r)
		if err != nil {
			return vm.Operand{}, err
		}
		if int(idx) >= len(funcs) {
			return vm.Operand{}, errors.Wrapf(vm.ErrDecode, "function index %d out of range", idx)
		}
		return vm.Operand{Kind: vm.OperandSymbol, Name: funcs[idx].Name}, nil
	case tagSymbol:
		name, err := readString16(r)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Operand{Kind: vm.OperandSymbol, Name: name}, nil
	case tagLabel:
		name, err := readString16(r)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Operand{Kind: vm.OperandLabel, Name: name}, nil
	case tagMemory:
		base, err := readU8(r)
		if err != nil {
			return vm.Operand{}, err
		}
		off, err := readI32(r)
		if err != nil {
			return vm.Operand{}, err
		}
		baseOp := vm.Operand{Kind: vm.OperandRegister, Reg: int(base)}
		offOp := vm.Operand{Kind: vm.OperandImmediate, Imm: int64(off)}
		return vm.Operand{Kind: vm.OperandMemory, Base: &baseOp, Off: &offOp}, nil
	default:
		// Unrecognized tag: best-effort, read a raw length-prefixed
		// blob and surface it as a label so disassembly stays legible
		// instead of aborting the whole decode.
		raw, err := readString16(r)
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Operand{Kind: vm.OperandLabel, Name: raw}, nil
	}
}

// ErrTruncated wraps an I/O error from the header as a decode error.
func ErrTruncated(err error) error {
	return errors.Wrap(vm.ErrDecode, err.Error())
}

func readU8(r *bytes.Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(vm.ErrDecode, err.Error())
	}
	return b, nil
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, errors.Wrap(vm.ErrDecode, err.Error())
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, errors.Wrap(vm.ErrDecode, err.Error())
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func readString16(r *bytes.Reader) (string, error) {
	n, err := readU16(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", errors.Wrap(vm.ErrDecode, err.Error())
	}
	return string(b), nil
}
