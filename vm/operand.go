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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// OperandKind tags how an Operand's fields should be interpreted. Parsing
// every operand once at load time — rather than re-parsing the original
// text on every dispatch — keeps the hot loop free of strconv calls.
type OperandKind int

// Operand kinds.
const (
	OperandRegister OperandKind = iota
	OperandImmediate
	OperandLabel
	OperandSymbol
	OperandMemory
)

// Operand is a parsed instruction operand. Exactly the fields matching Kind
// are meaningful.
type Operand struct {
	Kind  OperandKind
	Reg   int     // OperandRegister: register index 0..255
	Imm   int64   // OperandImmediate: integer value, or math.Float64bits of a float literal
	Name  string  // OperandLabel / OperandSymbol: the referenced name
	Base  *Operand // OperandMemory: base expression
	Off   *Operand // OperandMemory: optional offset expression, nil if absent
	OffNeg bool    // OperandMemory: true if the offset was written with '-'
}

// ParseOperand parses a single operand token as produced by the text loader
// or reconstructed by the binary decoder.
func ParseOperand(tok string) (Operand, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Operand{}, errors.New("empty operand")
	}
	switch tok {
	case "null", "nil":
		return Operand{Kind: OperandImmediate, Imm: 0}, nil
	}
	if tok[0] == '[' {
		return parseMemOperand(tok)
	}
	if tok[0] == '$' {
		return Operand{Kind: OperandSymbol, Name: tok[1:]}, nil
	}
	if reg, ok := parseRegister(tok); ok {
		return Operand{Kind: OperandRegister, Reg: reg}, nil
	}
	if imm, ok := parseIntLiteral(tok); ok {
		return Operand{Kind: OperandImmediate, Imm: imm}, nil
	}
	if f, ok := parseFloatLiteral(tok); ok {
		return Operand{Kind: OperandImmediate, Imm: int64(math.Float64bits(f))}, nil
	}
	return Operand{Kind: OperandLabel, Name: tok}, nil
}

func parseRegister(tok string) (int, bool) {
	if len(tok) < 2 || tok[0] != 'r' {
		return 0, false
	}
	for _, c := range tok[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 || n > 255 {
		return 0, false
	}
	return n, true
}

func parseIntLiteral(tok string) (int64, bool) {
	neg := false
	s := tok
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base = 16
		s = s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base = 2
		s = s[2:]
	}
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		// ParseInt rejects values whose top bit would make them
		// negative in the requested base; retry unsigned for hex/bin
		// literals that fill the full 64-bit width.
		if base != 10 {
			u, uerr := strconv.ParseUint(s, base, 64)
			if uerr != nil {
				return 0, false
			}
			v = int64(u)
		} else {
			return 0, false
		}
	}
	if neg {
		v = -v
	}
	return v, true
}

func parseFloatLiteral(tok string) (float64, bool) {
	if !strings.ContainsAny(tok, ".eE") {
		return 0, false
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseMemOperand parses "[base+off]", "[base-off]" or "[base]".
func parseMemOperand(tok string) (Operand, error) {
	if !strings.HasPrefix(tok, "[") || !strings.HasSuffix(tok, "]") {
		return Operand{}, errors.Errorf("malformed memory operand %q", tok)
	}
	inner := tok[1 : len(tok)-1]
	if inner == "" {
		return Operand{}, errors.Errorf("empty memory operand %q", tok)
	}
	splitAt := -1
	neg := false
	for idx := 1; idx < len(inner); idx++ {
		if inner[idx] == '+' || inner[idx] == '-' {
			splitAt = idx
			neg = inner[idx] == '-'
			break
		}
	}
	var baseTok, offTok string
	if splitAt < 0 {
		baseTok = inner
	} else {
		baseTok = inner[:splitAt]
		offTok = inner[splitAt+1:]
	}
	base, err := ParseOperand(baseTok)
	if err != nil {
		return Operand{}, errors.Wrapf(err, "memory operand %q", tok)
	}
	op := Operand{Kind: OperandMemory, Base: &base}
	if offTok != "" {
		off, err := ParseOperand(offTok)
		if err != nil {
			return Operand{}, errors.Wrapf(err, "memory operand %q", tok)
		}
		op.Off = &off
		op.OffNeg = neg
	}
	return op, nil
}

func (k OperandKind) String() string {
	switch k {
	case OperandRegister:
		return "register"
	case OperandImmediate:
		return "immediate"
	case OperandLabel:
		return "label"
	case OperandSymbol:
		return "symbol"
	case OperandMemory:
		return "memory"
	default:
		return "unknown"
	}
}
