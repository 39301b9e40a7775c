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

// executeDataBuilder runs the named data builder's write directives into a
// freshly bump-allocated region on first use, caching the base pointer for
// every call after.
func (m *Module) executeDataBuilder(name string) (int64, error) {
	if ptr, ok := m.dataCache[name]; ok {
		return ptr, nil
	}
	directives, ok := m.DataBuilders[name]
	if !ok {
		return 0, errors.Wrapf(ErrModuleLoad, "unknown data builder %q", name)
	}

	var total int64
	for _, d := range directives {
		switch d.Op {
		case WriteLen, WriteI64:
			total += 8
		case WriteBytes:
			total += int64(len(d.BytesArg))
		}
	}

	// The trailing 8-byte tail beyond the written content is intentional
	// padding, not an off-by-one.
	base := m.Memory().Alloc(total + 8)
	cur := base
	for _, d := range directives {
		switch d.Op {
		case WriteLen, WriteI64:
			m.Memory().WriteI64(cur, d.IntArg)
			cur += 8
		case WriteBytes:
			m.Memory().WriteBytes(cur, d.BytesArg)
			cur += int64(len(d.BytesArg))
		}
	}

	m.dataCache[name] = base
	return base, nil
}
