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

// Package vm implements BASM, a register-based virtual machine for a small
// assembly-like intermediate representation.
//
// A Module owns its own register file, linear memory and call stack; loading
// a module (see Load, LoadBinary and LoadAuto in the root basm package)
// produces one ready to run.
// Callers invoke exported functions through CallExport, which applies the
// host-value coercion rules described on that function.
//
// TODO: bound tailcall frame growth instead of recursing through
// executeFunction like a regular call.
package vm
