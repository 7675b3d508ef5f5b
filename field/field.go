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
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/m4gshm/gollections/op"
	"github.com/uptrace/bun/dialect"

	"github.com/tomoncle/hummer-enum/types"
)

// Field describes an enum-backed column: which enumeration it stores, which
// values it accepts and how it is declared in the database.
type Field struct {
	column        string
	enum          *types.Enum
	choices       []Choice
	memberChoices []*types.Member
	caseSensitive bool
	null          bool
	blank         bool
	defaultValue  interface{}
	hasDefault    bool
	maxLength     int
}

// Option configures a Field.
type Option func(*Field)

// WithColumn sets the column name the field is stored in.
func WithColumn(name string) Option {
	return func(f *Field) { f.column = name }
}

// WithChoices restricts the field to an explicit choice list. An empty list
// leaves the field without manual choices.
func WithChoices(choices ...Choice) Option {
	return func(f *Field) {
		if len(choices) == 0 {
			f.choices = nil
			return
		}
		f.choices = append(make([]Choice, 0, len(choices)), choices...)
	}
}

// WithMemberChoices restricts the field to a subset of the bound enumeration.
func WithMemberChoices(members ...*types.Member) Option {
	return func(f *Field) {
		f.memberChoices = append(make([]*types.Member, 0, len(members)), members...)
	}
}

// WithCaseSensitive toggles case sensitivity of string lookups. Fields are
// case sensitive by default.
func WithCaseSensitive(sensitive bool) Option {
	return func(f *Field) { f.caseSensitive = sensitive }
}

func WithNull(null bool) Option {
	return func(f *Field) { f.null = null }
}

func WithBlank(blank bool) Option {
	return func(f *Field) { f.blank = blank }
}

// WithDefault sets the column default. Members, member names and labels are
// stored as the member value.
func WithDefault(value interface{}) Option {
	return func(f *Field) {
		f.defaultValue = value
		f.hasDefault = true
	}
}

// WithMaxLength sets the varchar length used by dialects without native enums.
func WithMaxLength(n int) Option {
	return func(f *Field) { f.maxLength = n }
}

type memberHolder interface {
	Member() *types.Member
}

// New builds a field bound to e. A nil enum is allowed when explicit choices are
// given, which is how fields read back from migration state look.
func New(e *types.Enum, opts ...Option) (*Field, error) {
	f := &Field{enum: e, caseSensitive: true}
	for _, opt := range opts {
		opt(f)
	}

	if len(f.memberChoices) > 0 {
		if e == nil {
			return nil, errors.New("member choices require a bound enumeration")
		}
		for _, m := range f.memberChoices {
			if !e.Contains(m) {
				return nil, fmt.Errorf("choice %s does not belong to enum %s", m.Name(), e.Name())
			}
		}
		f.choices = append(f.choices, memberChoices(f.memberChoices)...)
	}
	f.memberChoices = nil

	if e == nil && len(f.choices) == 0 {
		return nil, ErrUnbound
	}

	if f.hasDefault {
		d, err := f.storableDefault(f.defaultValue)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		f.defaultValue = d
	}
	return f, nil
}

// storableDefault maps a default to the string stored in the column. An exact
// stored value wins; other strings follow the field's lookup rules.
func (f *Field) storableDefault(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *types.Member:
		if v == nil {
			return nil, nil
		}
		return f.storableMember(v)
	case memberHolder:
		m := v.Member()
		if m == nil {
			return nil, nil
		}
		return f.storableMember(m)
	case []byte:
		return f.storableDefault(string(v))
	case string:
		if f.enum == nil {
			return f.Clean(v)
		}
		if m, ok := f.enum.ByValue(v); ok {
			return m.Value(), nil
		}
		m, err := f.lookup(v)
		if err != nil {
			return nil, err
		}
		return m.Value(), nil
	default:
		return nil, f.fail(value, ErrUnsupportedType)
	}
}

func (f *Field) storableMember(m *types.Member) (interface{}, error) {
	if f.enum == nil {
		return f.Clean(m.Value())
	}
	if !f.enum.Contains(m) {
		return nil, f.fail(m.Name(), ErrIncompatibleEnum)
	}
	return m.Value(), nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(e *types.Enum, opts ...Option) *Field {
	f, err := New(e, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Clone returns an independent copy of the field configuration.
func (f *Field) Clone() *Field {
	c := *f
	if f.choices != nil {
		c.choices = append(make([]Choice, 0, len(f.choices)), f.choices...)
	}
	return &c
}

func (f *Field) Name() string {
	return f.column
}

// Enum returns the bound enumeration, or nil.
func (f *Field) Enum() *types.Enum {
	return f.enum
}

func (f *Field) CaseSensitive() bool {
	return f.caseSensitive
}

func (f *Field) Null() bool {
	return f.null
}

func (f *Field) Blank() bool {
	return f.blank
}

// Default returns the stored default, always a primitive or nil.
func (f *Field) Default() interface{} {
	return f.defaultValue
}

func (f *Field) HasDefault() bool {
	return f.hasDefault
}

// MaxLength returns the explicit max length or the longest storable value.
func (f *Field) MaxLength() int {
	if f.maxLength > 0 {
		return f.maxLength
	}
	n := 1
	if f.enum != nil {
		n = max(n, f.enum.MaxLength())
	}
	for _, c := range f.choices {
		n = max(n, len(c.Value))
	}
	return n
}

// Coerce converts a member, an EnumValue or a string into a member of the bound
// enumeration. Strings match by name, then value, then label.
func (f *Field) Coerce(value interface{}) (*types.Member, error) {
	if f.enum == nil {
		return nil, f.fail(value, ErrUnbound)
	}
	switch v := value.(type) {
	case nil:
		return nil, f.nullOrFail(value)
	case *types.Member:
		if v == nil {
			return nil, f.nullOrFail(value)
		}
		if !f.enum.Contains(v) {
			return nil, f.fail(value, ErrIncompatibleEnum)
		}
		return v, nil
	case memberHolder:
		m := v.Member()
		if m == nil {
			return nil, f.nullOrFail(value)
		}
		if !f.enum.Contains(m) {
			return nil, f.fail(value, ErrIncompatibleEnum)
		}
		return m, nil
	case string:
		return f.lookup(v)
	case []byte:
		return f.lookup(string(v))
	default:
		return nil, f.fail(value, ErrUnsupportedType)
	}
}

func (f *Field) lookup(s string) (*types.Member, error) {
	m, ok := f.enum.Lookup(s, f.caseSensitive)
	if !ok {
		return nil, f.fail(s, ErrNotInEnum)
	}
	return m, nil
}

func (f *Field) nullOrFail(value interface{}) error {
	if f.null {
		return nil
	}
	return f.fail(value, ErrNull)
}

// Validate coerces the value and checks it against the manual choices, if any.
func (f *Field) Validate(value interface{}) error {
	if f.enum == nil {
		_, err := f.Clean(value)
		return err
	}
	m, err := f.Coerce(value)
	if err != nil || m == nil {
		return err
	}
	if f.choices != nil && !f.hasChoice(m.Value()) {
		return f.fail(value, ErrInvalidChoice)
	}
	return nil
}

// Clean returns the primitive stored for value: the member value, or the
// matching choice value for fields without an enumeration.
func (f *Field) Clean(value interface{}) (interface{}, error) {
	if f.enum != nil {
		m, err := f.Coerce(value)
		if err != nil || m == nil {
			return nil, err
		}
		return m.Value(), nil
	}
	var s string
	switch v := value.(type) {
	case nil:
		return nil, f.nullOrFail(value)
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, f.fail(value, ErrUnsupportedType)
	}
	equal := op.IfElse(f.caseSensitive, func(a, b string) bool { return a == b }, strings.EqualFold)
	for _, c := range f.choices {
		if equal(c.Value, s) || equal(c.Display, s) {
			return c.Value, nil
		}
	}
	return nil, f.fail(s, ErrNotInEnum)
}

// GetPrepValue returns the value to bind as a query parameter.
func (f *Field) GetPrepValue(value interface{}) (driver.Value, error) {
	v, err := f.Clean(value)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// FromDB maps a value read from the database to its member. Only exact stored
// values are accepted.
func (f *Field) FromDB(src interface{}) (*types.Member, error) {
	if f.enum == nil {
		return nil, f.fail(src, ErrUnbound)
	}
	var s string
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, f.fail(src, ErrUnsupportedType)
	}
	m, ok := f.enum.ByValue(s)
	if !ok {
		return nil, f.fail(s, ErrNotInEnum)
	}
	return m, nil
}

// DBType returns the column type for the dialect. PostgreSQL uses the native
// enum type; a field without an enumeration gets a type named after the table
// and the pluralized column.
func (f *Field) DBType(name dialect.Name, table string) *DBType {
	switch name {
	case dialect.PG:
		return NewDBType(pgTypeIdent(f.TypeName(table)))
	case dialect.MySQL:
		values := f.StoredValues()
		placeholders := strings.TrimSuffix(strings.Repeat("%s, ", len(values)), ", ")
		params := make([]interface{}, len(values))
		for i, v := range values {
			params[i] = v
		}
		return NewDBType("enum("+placeholders+")", params...)
	default:
		return NewDBType("varchar(%s)", f.MaxLength())
	}
}

// TypeName returns the PostgreSQL enum type name backing the field.
func (f *Field) TypeName(table string) string {
	if f.enum != nil {
		return f.enum.TypeName()
	}
	return fmt.Sprintf("%s_%s", table, inflection.Plural(f.column))
}

// pgTypeIdent quotes type names PostgreSQL would otherwise fold to lower case.
func pgTypeIdent(name string) string {
	plain := name != ""
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			plain = false
		}
	}
	if plain {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// StoredValues lists every value the database type must accept.
func (f *Field) StoredValues() []string {
	if f.enum != nil {
		return f.enum.Values()
	}
	values := make([]string, len(f.choices))
	for i, c := range f.choices {
		values[i] = c.Value
	}
	return values
}
