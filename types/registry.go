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
	"fmt"
	"sort"
	"sync"
)

var defaultEnumRegistry = newEnumRegistry()

// EnumRegistry stores enumerations by name so that configuration read back from
// migration state can be bound to the live types again.
type EnumRegistry interface {
	Register(e *Enum) error
	Lookup(name string) (*Enum, bool)
	Enums() []*Enum
}

type enumRegistry struct {
	enums map[string]*Enum
	mutex sync.RWMutex
}

func newEnumRegistry() EnumRegistry {
	return &enumRegistry{
		enums: make(map[string]*Enum),
	}
}

// NewEnumRegistry returns an empty registry independent of the default one.
func NewEnumRegistry() EnumRegistry {
	return newEnumRegistry()
}

func (r *enumRegistry) Register(e *Enum) error {
	if e == nil {
		return fmt.Errorf("cannot register a nil enum")
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if prev, ok := r.enums[e.Name()]; ok && prev != e {
		return fmt.Errorf("enum %s is already registered", e.Name())
	}
	r.enums[e.Name()] = e
	return nil
}

func (r *enumRegistry) Lookup(name string) (*Enum, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	e, ok := r.enums[name]
	return e, ok
}

func (r *enumRegistry) Enums() []*Enum {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*Enum, 0, len(r.enums))
	for _, e := range r.enums {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// RegisterEnum adds an enumeration to the default registry.
func RegisterEnum(e *Enum) error {
	return defaultEnumRegistry.Register(e)
}

// LookupEnum finds an enumeration in the default registry.
func LookupEnum(name string) (*Enum, bool) {
	return defaultEnumRegistry.Lookup(name)
}

// RegisteredEnums returns all enumerations of the default registry sorted by name.
func RegisteredEnums() []*Enum {
	return defaultEnumRegistry.Enums()
}
