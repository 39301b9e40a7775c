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

// Package basm ties the text loader (asm), the binary decoder (basmb) and
// the execution engine (vm) together behind the three entry points a host
// embeds: Load, LoadBinary and LoadAuto.
package basm

import (
	"bytes"
	"strings"

	"github.com/Juicywoowowow/basm-dev/asm"
	"github.com/Juicywoowowow/basm-dev/basmb"
	"github.com/Juicywoowowow/basm-dev/vm"
)

// Load parses BASM text source and returns the resulting module. name is
// used only in parse diagnostics.
func Load(name, source string) (*vm.Module, error) {
	return asm.Parse(name, strings.NewReader(source))
}

// LoadBinary decodes a BASMB binary module.
func LoadBinary(data []byte) (*vm.Module, error) {
	return basmb.Decode(data)
}

// LoadAuto inspects data for the 4-byte "BASM" magic and dispatches to
// LoadBinary or Load accordingly, matching the embedding API's auto-detect
// convention for a single load entry point.
func LoadAuto(name string, data []byte) (*vm.Module, error) {
	if bytes.HasPrefix(data, []byte("BASM")) {
		return LoadBinary(data)
	}
	return Load(name, string(data))
}
