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
	"github.com/m4gshm/gollections/slice"

	"github.com/tomoncle/hummer-enum/types"
)

// Choice pairs the display string of a value with the value stored in the database.
type Choice struct {
	Display string `yaml:"display" json:"display"`
	Value   string `yaml:"value" json:"value"`
}

// BlankChoiceDash is the conventional placeholder for "no selection".
var BlankChoiceDash = []Choice{{Display: "---------", Value: ""}}

func memberChoice(m *types.Member) Choice {
	return Choice{Display: m.String(), Value: m.Value()}
}

func memberChoices(members []*types.Member) []Choice {
	return slice.Convert(members, memberChoice)
}

// Choices returns the manual choices, or one choice per enumeration member in
// definition order.
func (f *Field) Choices() []Choice {
	if f.choices != nil {
		return append(make([]Choice, 0, len(f.choices)), f.choices...)
	}
	if f.enum == nil {
		return nil
	}
	return memberChoices(f.enum.Members())
}

// HasManualChoices reports whether the choices were given explicitly.
func (f *Field) HasManualChoices() bool {
	return f.choices != nil
}

// GetChoices returns Choices prefixed with blank, unless blank is empty or a
// choice with an empty value already exists.
func (f *Field) GetChoices(blank []Choice) []Choice {
	choices := f.Choices()
	if len(blank) == 0 {
		return choices
	}
	if _, ok := slice.First(choices, func(c Choice) bool { return c.Value == "" }); ok {
		return choices
	}
	out := make([]Choice, 0, len(blank)+len(choices))
	out = append(out, blank...)
	return append(out, choices...)
}

func (f *Field) hasChoice(value string) bool {
	_, ok := slice.First(f.choices, func(c Choice) bool { return c.Value == value })
	return ok
}
