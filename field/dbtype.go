/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package field

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun/schema"
)

// DBType pairs a SQL type expression with the parameters substituted into its
// %s placeholders. Every instance owns its parameter list: the schema editor
// appends column defaults to it in place.
type DBType struct {
	sqlType string
	params  []interface{}
}

// NewDBType copies params into storage owned by the new descriptor.
func NewDBType(sqlType string, params ...interface{}) *DBType {
	owned := make([]interface{}, len(params), len(params)+1)
	copy(owned, params)
	return &DBType{sqlType: sqlType, params: owned}
}

// String renders the type with the parameters interpolated as plain text.
func (t *DBType) String() string {
	return interpolate(t.sqlType, t.params, func(b []byte, v interface{}) []byte {
		return fmt.Append(b, v)
	})
}

// Parameterized returns the raw type string and the descriptor's own parameter list.
func (t *DBType) Parameterized() (string, []interface{}) {
	return t.sqlType, t.params
}

// AppendParams adds parameters to the descriptor's list in place.
func (t *DBType) AppendParams(params ...interface{}) {
	t.params = append(t.params, params...)
}

// Clone returns a descriptor with an independent copy of the parameters.
func (t *DBType) Clone() *DBType {
	return NewDBType(t.sqlType, t.params...)
}

// Render produces SQL with every parameter quoted by the dialect.
func (t *DBType) Render(d schema.Dialect) string {
	return RenderParameterized(d, t.sqlType, t.params)
}

// RenderParameterized substitutes %s placeholders with dialect-quoted literals.
// Placeholders without a matching parameter are left untouched.
func RenderParameterized(d schema.Dialect, query string, params []interface{}) string {
	return interpolate(query, params, func(b []byte, v interface{}) []byte {
		return appendLiteral(d, b, v)
	})
}

func interpolate(query string, params []interface{}, appendParam func([]byte, interface{}) []byte) string {
	if len(params) == 0 {
		return query
	}
	parts := strings.Split(query, "%s")
	b := make([]byte, 0, len(query)+16*len(params))
	for i, part := range parts {
		b = append(b, part...)
		if i == len(parts)-1 {
			break
		}
		if i >= len(params) {
			b = append(b, "%s"...)
			continue
		}
		b = appendParam(b, params[i])
	}
	return string(b)
}

func appendLiteral(d schema.Dialect, b []byte, v interface{}) []byte {
	switch x := v.(type) {
	case nil:
		return append(b, "NULL"...)
	case string:
		return d.AppendString(b, x)
	case []byte:
		return d.AppendString(b, string(x))
	case bool:
		return d.AppendBool(b, x)
	case int:
		return strconv.AppendInt(b, int64(x), 10)
	case int64:
		return strconv.AppendInt(b, x, 10)
	case uint64:
		return d.AppendUint64(b, x)
	case fmt.Stringer:
		return d.AppendString(b, x.String())
	default:
		return d.AppendString(b, fmt.Sprint(x))
	}
}
