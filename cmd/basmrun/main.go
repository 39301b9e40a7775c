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

// Command basmrun loads a BASM module (text or binary, auto-detected) and
// invokes one exported function with the arguments given on the command
// line, printing its return value and any buffered console output.
//
// This is the "external collaborator" CLI wrapper around the vm/asm/basmb
// packages, not part of their tested surface.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	basm "github.com/Juicywoowowow/basm-dev"
	"github.com/Juicywoowowow/basm-dev/asm"
)

// argList collects repeated -arg flags, in order, the way cmd/retro collects
// repeated -with flags.
type argList []string

func (a *argList) String() string     { return strings.Join(*a, ",") }
func (a *argList) Set(s string) error { *a = append(*a, s); return nil }

func atExit(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "basmrun: %+v\n", err)
	os.Exit(1)
}

func main() {
	var (
		export  = flag.String("export", "main", "exported function to call")
		disasm  = flag.Bool("disasm", false, "print the disassembled module instead of running it")
		rawArgs argList
	)
	flag.Var(&rawArgs, "arg", "positional argument to pass to the export (repeatable)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: basmrun [flags] <module-file|->")
		os.Exit(2)
	}

	var err error
	defer func() { atExit(err) }()

	data, path, rerr := readModule(flag.Arg(0))
	if rerr != nil {
		err = rerr
		return
	}

	mod, lerr := basm.LoadAuto(path, data)
	if lerr != nil {
		err = errors.Wrap(lerr, "loading module")
		return
	}

	if *disasm {
		fmt.Print(asm.Disassemble(mod))
		return
	}

	args := make([]interface{}, len(rawArgs))
	for i, a := range rawArgs {
		args[i] = parseArg(a)
	}

	result, cerr := mod.CallExport(*export, args...)
	if cerr != nil {
		err = errors.Wrapf(cerr, "calling %q", *export)
		return
	}

	if out := mod.ConsoleOutput(); out != "" {
		fmt.Print(out)
	}
	fmt.Println(result)
}

func readModule(path string) ([]byte, string, error) {
	if path == "-" {
		data, err := ioutil.ReadAll(os.Stdin)
		return data, "<stdin>", errors.Wrap(err, "reading stdin")
	}
	data, err := ioutil.ReadFile(path)
	return data, path, errors.Wrapf(err, "reading %s", path)
}

// parseArg accepts an integer literal or falls back to a bare string value,
// so callers don't need to quote numeric arguments.
func parseArg(s string) interface{} {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v
	}
	return s
}
