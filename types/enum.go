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

package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/m4gshm/gollections/slice"
)

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

var _ BaseEnum = (*Member)(nil)

// MemberDef declares one member of an enumeration.
type MemberDef struct {
	Name  string
	Value string
	Label string
}

// Def returns a member definition whose label defaults to its value.
func Def(name, value string) MemberDef {
	return MemberDef{Name: name, Value: value}
}

// WithLabel returns a copy of the definition with a display label.
func (d MemberDef) WithLabel(label string) MemberDef {
	d.Label = label
	return d
}

// Member is a single element of an Enum. Members are compared by identity.
type Member struct {
	enum   *Enum
	number int
	name   string
	value  string
	label  string
}

func (m *Member) IsValid() bool {
	return m != nil && m.enum != nil
}

// Number returns the 1-based position of the member in its enumeration.
func (m *Member) Number() int {
	if !m.IsValid() {
		return IllegalValue
	}
	return m.number
}

func (m *Member) Name() string {
	if !m.IsValid() {
		return IllegalName
	}
	return m.name
}

// Value returns the primitive stored in the database.
func (m *Member) Value() string {
	if m == nil {
		return ""
	}
	return m.value
}

// Label returns the display string, falling back to the stored value.
func (m *Member) Label() string {
	if m == nil {
		return ""
	}
	if m.label != "" {
		return m.label
	}
	return m.value
}

func (m *Member) Desc() string {
	if !m.IsValid() {
		return IllegalDesc
	}
	return m.Label()
}

func (m *Member) String() string {
	return m.Label()
}

// Enum returns the enumeration the member belongs to.
func (m *Member) Enum() *Enum {
	if m == nil {
		return nil
	}
	return m.enum
}

// Enum is a closed, ordered set of named, valued members.
type Enum struct {
	name     string
	typeName string
	members  []*Member
	byName   map[string]*Member
	byValue  map[string]*Member
}

// EnumOption customizes an Enum at construction.
type EnumOption func(*Enum)

// WithTypeName overrides the database type name derived from the enum name.
func WithTypeName(name string) EnumOption {
	return func(e *Enum) {
		e.typeName = name
	}
}

// NewEnum builds an enumeration from its member definitions, in order.
func NewEnum(name string, defs []MemberDef, opts ...EnumOption) (*Enum, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("enum name cannot be empty")
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("enum %s must declare at least one member", name)
	}
	e := &Enum{
		name:     name,
		typeName: strcase.ToSnake(name),
		members:  make([]*Member, 0, len(defs)),
		byName:   make(map[string]*Member, len(defs)),
		byValue:  make(map[string]*Member, len(defs)),
	}
	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("enum %s: member %d has no name", name, i+1)
		}
		if _, ok := e.byName[d.Name]; ok {
			return nil, fmt.Errorf("enum %s: duplicate member name %q", name, d.Name)
		}
		if _, ok := e.byValue[d.Value]; ok {
			return nil, fmt.Errorf("enum %s: duplicate member value %q", name, d.Value)
		}
		m := &Member{enum: e, number: i + 1, name: d.Name, value: d.Value, label: d.Label}
		e.members = append(e.members, m)
		e.byName[d.Name] = m
		e.byValue[d.Value] = m
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MustEnum is like NewEnum but panics on an invalid definition.
func MustEnum(name string, defs []MemberDef, opts ...EnumOption) *Enum {
	e, err := NewEnum(name, defs, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Enum) Name() string {
	return e.name
}

// TypeName returns the database type name, e.g. order_status.
func (e *Enum) TypeName() string {
	return e.typeName
}

// Members returns the members in definition order.
func (e *Enum) Members() []*Member {
	out := make([]*Member, len(e.members))
	copy(out, e.members)
	return out
}

// Member returns the member with the given name, or nil.
func (e *Enum) Member(name string) *Member {
	return e.byName[name]
}

// Values returns the stored values in definition order.
func (e *Enum) Values() []string {
	return slice.Convert(e.members, (*Member).Value)
}

// Contains reports whether m is a member of e.
func (e *Enum) Contains(m *Member) bool {
	return m != nil && m.enum == e
}

// MaxLength returns the length of the longest stored value.
func (e *Enum) MaxLength() int {
	n := 0
	for _, m := range e.members {
		if len(m.value) > n {
			n = len(m.value)
		}
	}
	return n
}

// Lookup finds a member by name, then by value, then by label.
func (e *Enum) Lookup(s string, caseSensitive bool) (*Member, bool) {
	if caseSensitive {
		if m, ok := e.byName[s]; ok {
			return m, true
		}
		if m, ok := e.byValue[s]; ok {
			return m, true
		}
		return slice.First(e.members, func(m *Member) bool { return m.Label() == s })
	}
	matchers := []func(*Member) string{(*Member).Name, (*Member).Value, (*Member).Label}
	for _, key := range matchers {
		if m, ok := slice.First(e.members, func(m *Member) bool { return strings.EqualFold(key(m), s) }); ok {
			return m, true
		}
	}
	return nil, false
}

// ByValue returns the member storing exactly s.
func (e *Enum) ByValue(s string) (*Member, bool) {
	m, ok := e.byValue[s]
	return m, ok
}

func (e *Enum) String() string {
	return e.name
}
