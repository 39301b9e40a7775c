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

// CallExport resolves name against the export table (falling back to an
// internal function of the same name, so a module can be driven without
// declaring an export for every entry point used in tests) and invokes it
// with up to 8 positional arguments.
//
// Host values are coerced per the embedding convention: numeric kinds
// truncate to int64, bool becomes 0/1, and strings are allocated into VM
// memory via AllocString with their pointer passed in place of the value.
func (m *Module) CallExport(name string, args ...interface{}) (int64, error) {
	fnName, ok := m.Exports[name]
	if !ok {
		if _, ok := m.Functions[name]; !ok {
			return 0, errors.Wrapf(ErrFunctionNotFound, "export %q", name)
		}
		fnName = name
	}

	coerced := make([]int64, 0, len(args))
	for _, a := range args {
		coerced = append(coerced, m.coerceArg(a))
	}
	return m.executeFunction(fnName, coerced)
}

func (m *Module) coerceArg(a interface{}) int64 {
	switch v := a.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return m.Memory().AllocString(v)
	default:
		return 0
	}
}
