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
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Definition binds a Go type to an enumeration. Implementations are usually
// empty structs used as the type argument of EnumValue.
type Definition interface {
	Enum() *Enum
}

// EnumValue is a column type holding one member of the enumeration selected by D.
// The zero value is NULL.
type EnumValue[D Definition] struct {
	member *Member
}

// NewEnumValue wraps a member, rejecting members of other enumerations.
func NewEnumValue[D Definition](m *Member) (EnumValue[D], error) {
	var v EnumValue[D]
	if err := v.Set(m); err != nil {
		return v, err
	}
	return v, nil
}

// MustEnumValue is like NewEnumValue but panics on a foreign member.
func MustEnumValue[D Definition](m *Member) EnumValue[D] {
	v, err := NewEnumValue[D](m)
	if err != nil {
		panic(err)
	}
	return v
}

// EnumType returns the enumeration selected by D.
func (v EnumValue[D]) EnumType() *Enum {
	var d D
	return d.Enum()
}

func (v EnumValue[D]) Member() *Member {
	return v.member
}

// Set replaces the held member; nil clears it.
func (v *EnumValue[D]) Set(m *Member) error {
	if m != nil && !v.EnumType().Contains(m) {
		return fmt.Errorf("member %s does not belong to enum %s", m.Name(), v.EnumType().Name())
	}
	v.member = m
	return nil
}

func (v EnumValue[D]) IsZero() bool {
	return v.member == nil
}

func (v EnumValue[D]) String() string {
	return v.member.String()
}

// Value implements driver.Valuer for EnumValue.
func (v EnumValue[D]) Value() (driver.Value, error) {
	if v.member == nil {
		return nil, nil
	}
	if !v.EnumType().Contains(v.member) {
		return nil, fmt.Errorf("member %s does not belong to enum %s", v.member.Name(), v.EnumType().Name())
	}
	return v.member.Value(), nil
}

// Scan implements sql.Scanner for EnumValue.
func (v *EnumValue[D]) Scan(value interface{}) error {
	var s string
	switch src := value.(type) {
	case nil:
		v.member = nil
		return nil
	case string:
		s = src
	case []byte:
		s = string(src)
	default:
		return fmt.Errorf("cannot scan %T into enum %s", value, v.EnumType().Name())
	}
	m, ok := v.EnumType().ByValue(s)
	if !ok {
		return fmt.Errorf("value %q is not in enum %s", s, v.EnumType().Name())
	}
	v.member = m
	return nil
}

// MarshalJSON encodes the stored value, or null.
func (v EnumValue[D]) MarshalJSON() ([]byte, error) {
	if v.member == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.member.Value())
}

// UnmarshalJSON accepts the stored value, the member name or its label.
func (v *EnumValue[D]) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		v.member = nil
		return nil
	}
	m, ok := v.EnumType().Lookup(*s, true)
	if !ok {
		return fmt.Errorf("value %q is not in enum %s", *s, v.EnumType().Name())
	}
	v.member = m
	return nil
}
