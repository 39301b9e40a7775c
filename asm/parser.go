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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Juicywoowowow/basm-dev/vm"
)

// ParseError records one malformed line, keeping the source name and line
// number the way a compiler diagnostic would.
type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
}

// ParseErrors accumulates every ParseError found in one pass so a caller
// sees all of them at once instead of bailing on the first.
type ParseErrors []*ParseError

func (es ParseErrors) Error() string {
	var b strings.Builder
	for i, e := range es {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Cause reports vm.ErrModuleLoad, so errors.Cause on a text parse failure
// yields the same sentinel as a malformed binary module.
func (es ParseErrors) Cause() error { return vm.ErrModuleLoad }

// parser holds the state of a single pass over a module's source.
type parser struct {
	source string
	line   int
	errs   ParseErrors
}

func (p *parser) fail(msg string, args ...interface{}) {
	p.errs = append(p.errs, &ParseError{Source: p.source, Line: p.line, Msg: fmt.Sprintf(msg, args...)})
}

// Parse reads BASM text source from r and returns the resulting module. The
// source name is used only in diagnostics.
func Parse(name string, r io.Reader) (*vm.Module, error) {
	p := &parser{source: name}
	mod := vm.NewModule()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		p.line++
		line := stripComment(sc.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "module "), line == "module":
			// acknowledged, no effect
		case strings.HasPrefix(line, "memory "), line == "memory":
			// acknowledged, no effect
		case strings.HasPrefix(line, "data "):
			p.parseDataBlock(sc, mod, line)
		case strings.HasPrefix(line, "func "):
			p.parseFuncBlock(sc, mod, line)
		case strings.HasPrefix(line, "export "):
			p.parseExport(mod, line)
		default:
			p.fail("unrecognized top-level construct %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return mod, nil
}

// stripComment truncates line at the first ';' that is not inside a double
// quoted string.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

func (p *parser) parseExport(mod *vm.Module, line string) {
	// export $name as "alias"
	rest := strings.TrimSpace(strings.TrimPrefix(line, "export"))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "$"))
	asIdx := strings.Index(rest, " as ")
	if asIdx < 0 {
		p.fail("malformed export directive %q", line)
		return
	}
	name := strings.TrimSpace(rest[:asIdx])
	alias := strings.TrimSpace(rest[asIdx+len(" as "):])
	alias = unquote(alias)
	mod.Exports[alias] = name
}

func (p *parser) parseDataBlock(sc *bufio.Scanner, mod *vm.Module, header string) {
	name, ok := blockName(header, "data")
	if !ok {
		p.fail("malformed data header %q", header)
		return
	}
	var directives []vm.DataDirective
	for sc.Scan() {
		p.line++
		line := strings.TrimSpace(stripComment(sc.Text()))
		if line == "" {
			continue
		}
		if line == "}" {
			mod.DataBuilders[name] = directives
			return
		}
		d, err := parseDirective(line)
		if err != nil {
			p.fail("%s", err)
			continue
		}
		directives = append(directives, d)
	}
	p.fail("unterminated data block %q", name)
}

func parseDirective(line string) (vm.DataDirective, error) {
	op, rest := splitFirstToken(line)
	switch op {
	case "write.len":
		n, err := strconv.ParseInt(strings.TrimSpace(rest), 0, 64)
		if err != nil {
			return vm.DataDirective{}, errors.Wrapf(err, "write.len argument %q", rest)
		}
		return vm.DataDirective{Op: vm.WriteLen, IntArg: n}, nil
	case "write.i64":
		n, err := strconv.ParseInt(strings.TrimSpace(rest), 0, 64)
		if err != nil {
			return vm.DataDirective{}, errors.Wrapf(err, "write.i64 argument %q", rest)
		}
		return vm.DataDirective{Op: vm.WriteI64, IntArg: n}, nil
	case "write.bytes":
		return vm.DataDirective{Op: vm.WriteBytes, BytesArg: []byte(unescapeString(unquote(strings.TrimSpace(rest))))}, nil
	default:
		return vm.DataDirective{}, errors.Errorf("unknown data directive %q", op)
	}
}

func (p *parser) parseFuncBlock(sc *bufio.Scanner, mod *vm.Module, header string) {
	name, params, ok := funcHeader(header)
	if !ok {
		p.fail("malformed func header %q", header)
		return
	}
	fn := &vm.Function{Name: name, Params: params, Labels: make(map[string]int)}

	for sc.Scan() {
		p.line++
		line := strings.TrimSpace(stripComment(sc.Text()))
		if line == "" {
			continue
		}
		if line == "}" {
			mod.Functions[name] = fn
			return
		}
		if strings.HasPrefix(line, ".") && strings.HasSuffix(line, ":") {
			label := line[:len(line)-1]
			fn.Labels[label] = len(fn.Instructions) + 1
			continue
		}
		instr, err := p.parseInstruction(line)
		if err != nil {
			p.fail("%s", err)
			continue
		}
		fn.Instructions = append(fn.Instructions, instr)
	}
	p.fail("unterminated func block %q", name)
}

func (p *parser) parseInstruction(line string) (vm.Instruction, error) {
	op, rest := splitFirstToken(line)
	instr := vm.Instruction{Opcode: op}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return instr, nil
	}
	for _, tok := range splitTopLevelCommas(rest) {
		operand, err := vm.ParseOperand(strings.TrimSpace(tok))
		if err != nil {
			return vm.Instruction{}, errors.Wrapf(err, "opcode %q", op)
		}
		instr.Operands = append(instr.Operands, operand)
	}
	return instr, nil
}

// splitFirstToken splits s at its first run of whitespace, returning the
// leading token and the (untrimmed) remainder.
func splitFirstToken(s string) (tok, rest string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// splitTopLevelCommas splits s on commas that are not nested inside
// '[' ... ']', trimming each resulting piece.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

// blockName extracts the "$name" identifier from a "kind $name {" header.
func blockName(header, kind string) (string, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(header, kind))
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "{")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "$")
	if rest == "" {
		return "", false
	}
	return rest, true
}

// funcHeader parses "func $name(p1, p2) {".
func funcHeader(header string) (name string, params []string, ok bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(header, "func"))
	rest = strings.TrimPrefix(strings.TrimSpace(rest), "$")
	open := strings.Index(rest, "(")
	closeIdx := strings.LastIndex(rest, ")")
	if open < 0 || closeIdx < open {
		return "", nil, false
	}
	name = strings.TrimSpace(rest[:open])
	if name == "" {
		return "", nil, false
	}
	paramStr := strings.TrimSpace(rest[open+1 : closeIdx])
	if paramStr != "" {
		for _, p := range strings.Split(paramStr, ",") {
			params = append(params, strings.TrimSpace(p))
		}
	}
	return name, params, true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func unescapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
