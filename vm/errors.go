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

import "github.com/pkg/errors"

// Error kinds surfaced at the embedding boundary. Callers distinguish them
// with errors.Cause(err) == vm.ErrXxx; the wrapped message carries the
// instruction/function context that triggered them.
var (
	// ErrModuleLoad covers malformed binary magic, unsupported major
	// version or a malformed text directive.
	ErrModuleLoad = errors.New("module load error")

	// ErrFunctionNotFound is raised when an export alias or internal
	// function name fails to resolve.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrCallStackOverflow is raised when a call would push the frame
	// count past 1000.
	ErrCallStackOverflow = errors.New("call stack overflow")

	// ErrDivisionByZero is raised by div, rem, fdiv and frem on a zero
	// divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInvalidFunctionPointer is raised by call.indirect on an ID
	// absent from the function-pointer table.
	ErrInvalidFunctionPointer = errors.New("invalid function pointer")

	// ErrDecode covers truncated or malformed binary module data.
	ErrDecode = errors.New("decode error")
)
