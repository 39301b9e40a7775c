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

// Instruction is a single decoded opcode with its pre-parsed operands.
type Instruction struct {
	Opcode   string
	Operands []Operand
}

// Function is immutable once loaded. Params are informational only —
// arguments always arrive positionally through r0..r7.
type Function struct {
	Name         string
	Params       []string
	Instructions []Instruction
	// Labels maps a label name (including its leading '.') to the
	// 1-based instruction index immediately following the label line.
	Labels map[string]int
}

// DirectiveOp identifies a data builder write directive.
type DirectiveOp int

// Data builder directive kinds.
const (
	WriteLen DirectiveOp = iota
	WriteI64
	WriteBytes
)

// DataDirective is one line of a data builder body.
type DataDirective struct {
	Op      DirectiveOp
	IntArg  int64
	BytesArg []byte
}

// Module is the product of loading BASM source, text or binary. A Module is
// immutable except for the runtime state owned by its Memory and register
// file, both reset by Reset.
type Module struct {
	Functions    map[string]*Function
	DataBuilders map[string][]DataDirective
	Exports      map[string]string // alias -> internal function name

	mem       *Memory
	dataCache map[string]int64
	funcPtrs  map[int64]string
	nextPtrID int64

	regs  [256]int64
	flagZ bool
	flagN bool

	frames []frame

	out *lineSink
}

type frame struct {
	name string
}

// funcPtrBase is the first ID handed out by func.addr; chosen high enough to
// avoid colliding with plausible data pointers that share a register with
// small integers.
const funcPtrBase = 1000000

// NewModule returns an empty, ready-to-populate module with runtime state
// initialized (memory, data cache, function-pointer table).
func NewModule() *Module {
	return &Module{
		Functions:    make(map[string]*Function),
		DataBuilders: make(map[string][]DataDirective),
		Exports:      make(map[string]string),
		mem:          NewMemory(),
		dataCache:    make(map[string]int64),
		funcPtrs:     make(map[int64]string),
		nextPtrID:    funcPtrBase,
		out:          newLineSink(nil),
	}
}

// Reset clears the register file, flags, memory, data cache, call stack,
// output buffer and function-pointer table. Module.Functions/DataBuilders/
// Exports — the loaded program itself — are untouched.
func (m *Module) Reset() {
	m.regs = [256]int64{}
	m.flagZ, m.flagN = false, false
	m.mem.Reset()
	m.dataCache = make(map[string]int64)
	m.funcPtrs = make(map[int64]string)
	m.nextPtrID = funcPtrBase
	m.frames = nil
	m.out.reset()
}

// Memory exposes the module's linear store to the host embedding API.
func (m *Module) Memory() *Memory {
	return m.mem
}
