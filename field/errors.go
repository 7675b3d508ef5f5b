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
	"errors"
	"fmt"
)

var (
	ErrNotInEnum        = errors.New("not in enumeration")
	ErrIncompatibleEnum = errors.New("incompatible enumeration")
	ErrUnsupportedType  = errors.New("not an enum member or string")
	ErrNull             = errors.New("cannot be null")
	ErrInvalidChoice    = errors.New("not a valid choice")
	ErrUnbound          = errors.New("field has neither an enumeration nor choices")
)

// ValidationError reports why a value was rejected by a field.
type ValidationError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid value %#v: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid value %#v for field %s: %v", e.Value, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (f *Field) fail(value interface{}, err error) error {
	return &ValidationError{Field: f.column, Value: value, Err: err}
}
