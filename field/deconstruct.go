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
	"reflect"
	"sort"

	"github.com/tomoncle/hummer-enum/types"
)

// Path identifies the field implementation in deconstructed configuration.
const Path = "github.com/tomoncle/hummer-enum/field.Field"

// Deconstruction is the canonical, serializable form of a field configuration.
type Deconstruction struct {
	Name   string                 `yaml:"name" json:"name"`
	Path   string                 `yaml:"path" json:"path"`
	Args   []interface{}          `yaml:"args" json:"args"`
	Kwargs map[string]interface{} `yaml:"kwargs" json:"kwargs"`
}

// EnumResolver finds an enumeration by name.
type EnumResolver func(name string) (*types.Enum, bool)

// Deconstruct returns the configuration needed to rebuild an equivalent field.
// Only settings that differ from the defaults appear in Kwargs.
func (f *Field) Deconstruct() Deconstruction {
	d := Deconstruction{
		Name:   f.column,
		Path:   Path,
		Args:   []interface{}{},
		Kwargs: map[string]interface{}{},
	}
	if f.enum != nil {
		d.Args = append(d.Args, f.enum.Name())
	}
	if f.choices != nil {
		d.Kwargs["choices"] = f.Choices()
	}
	if !f.caseSensitive {
		d.Kwargs["case_sensitive"] = false
	}
	if f.null {
		d.Kwargs["null"] = true
	}
	if f.blank {
		d.Kwargs["blank"] = true
	}
	if f.hasDefault {
		d.Kwargs["default"] = f.defaultValue
	}
	if f.maxLength > 0 {
		d.Kwargs["max_length"] = f.maxLength
	}
	return d
}

// Equal reports whether two deconstructions describe the same configuration.
func (d Deconstruction) Equal(o Deconstruction) bool {
	return reflect.DeepEqual(d, o)
}

// Reconstruct rebuilds a field from its deconstruction, including one decoded
// from YAML. A nil resolver uses the default enum registry.
func Reconstruct(d Deconstruction, resolve EnumResolver) (*Field, error) {
	if d.Path != Path {
		return nil, fmt.Errorf("unsupported field path %q", d.Path)
	}
	if resolve == nil {
		resolve = types.LookupEnum
	}

	var e *types.Enum
	if len(d.Args) > 1 {
		return nil, fmt.Errorf("field %s: expected at most one positional argument, got %d", d.Name, len(d.Args))
	}
	if len(d.Args) == 1 {
		name, ok := d.Args[0].(string)
		if !ok {
			return nil, fmt.Errorf("field %s: enum name must be a string, got %T", d.Name, d.Args[0])
		}
		if e, ok = resolve(name); !ok {
			return nil, fmt.Errorf("field %s: unknown enum %s", d.Name, name)
		}
	}

	opts := []Option{WithColumn(d.Name)}
	keys := make([]string, 0, len(d.Kwargs))
	for k := range d.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := d.Kwargs[k]
		switch k {
		case "choices":
			choices, err := decodeChoices(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", d.Name, err)
			}
			opts = append(opts, WithChoices(choices...))
		case "case_sensitive", "null", "blank":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("field %s: %s must be a bool, got %T", d.Name, k, v)
			}
			opts = append(opts, boolOption(k, b))
		case "default":
			opts = append(opts, WithDefault(v))
		case "max_length":
			n, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("field %s: max_length must be an int, got %T", d.Name, v)
			}
			opts = append(opts, WithMaxLength(n))
		default:
			return nil, fmt.Errorf("field %s: unknown option %s", d.Name, k)
		}
	}
	return New(e, opts...)
}

func boolOption(key string, b bool) Option {
	switch key {
	case "case_sensitive":
		return WithCaseSensitive(b)
	case "null":
		return WithNull(b)
	default:
		return WithBlank(b)
	}
}

// decodeChoices accepts []Choice as well as the generic shapes produced by YAML
// and JSON decoding: mappings with display/value keys or two-element sequences.
func decodeChoices(v interface{}) ([]Choice, error) {
	switch x := v.(type) {
	case []Choice:
		return append(make([]Choice, 0, len(x)), x...), nil
	case []interface{}:
		out := make([]Choice, 0, len(x))
		for i, item := range x {
			c, err := decodeChoice(item)
			if err != nil {
				return nil, fmt.Errorf("choice %d: %w", i, err)
			}
			out = append(out, c)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("choices must be a list, got %T", v)
	}
}

func decodeChoice(item interface{}) (Choice, error) {
	switch c := item.(type) {
	case Choice:
		return c, nil
	case map[string]interface{}:
		return Choice{Display: scalar(c["display"]), Value: scalar(c["value"])}, nil
	case []interface{}:
		if len(c) != 2 {
			return Choice{}, fmt.Errorf("expected a (display, value) pair, got %d items", len(c))
		}
		return Choice{Display: scalar(c[0]), Value: scalar(c[1])}, nil
	default:
		return Choice{}, fmt.Errorf("unsupported choice %T", item)
	}
}

func scalar(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
