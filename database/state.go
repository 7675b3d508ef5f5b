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

package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/uptrace/bun/schema"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/hummer-enum/field"
)

// ColumnState is the recorded configuration of one enum column.
type ColumnState struct {
	Field  field.Deconstruction `yaml:"field" json:"field"`
	DBType string               `yaml:"db_type" json:"db_type"`
}

// MigrationState maps table -> column -> recorded configuration. It is written
// after every successful sync and read back to detect changed columns.
type MigrationState struct {
	Dialect string                            `yaml:"dialect" json:"dialect"`
	Tables  map[string]map[string]ColumnState `yaml:"tables" json:"tables"`
}

func NewMigrationState(dialect string) *MigrationState {
	return &MigrationState{Dialect: dialect, Tables: map[string]map[string]ColumnState{}}
}

func (s *MigrationState) Lookup(table, column string) (ColumnState, bool) {
	cols, ok := s.Tables[table]
	if !ok {
		return ColumnState{}, false
	}
	c, ok := cols[column]
	return c, ok
}

func (s *MigrationState) Set(table, column string, c ColumnState) {
	if s.Tables == nil {
		s.Tables = map[string]map[string]ColumnState{}
	}
	if s.Tables[table] == nil {
		s.Tables[table] = map[string]ColumnState{}
	}
	s.Tables[table][column] = c
}

// LoadState reads a state file. A missing file yields an empty state.
func LoadState(path string) (*MigrationState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewMigrationState(""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migration state: %w", err)
	}
	state := NewMigrationState("")
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse migration state %s: %w", path, err)
	}
	if state.Tables == nil {
		state.Tables = map[string]map[string]ColumnState{}
	}
	return state, nil
}

// SaveState writes the state file, creating its directory when needed.
func SaveState(path string, state *MigrationState) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create migration state directory: %w", err)
		}
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode migration state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write migration state: %w", err)
	}
	return nil
}

// CurrentState deconstructs the registered columns for the given dialect.
func CurrentState(d schema.Dialect, columns []EnumColumn) *MigrationState {
	state := NewMigrationState(d.Name().String())
	for _, c := range columns {
		state.Set(c.Table, c.Column, ColumnState{
			Field:  c.Field.Deconstruct(),
			DBType: c.Field.DBType(d.Name(), c.Table).Render(d),
		})
	}
	return state
}

type ChangeKind string

const (
	ColumnAdded   ChangeKind = "added"
	ColumnChanged ChangeKind = "changed"
	ColumnRemoved ChangeKind = "removed"
)

// FieldChange describes one column whose recorded configuration differs from
// the code. Old is nil for added columns, New is nil for removed ones.
type FieldChange struct {
	Table  string
	Column string
	Kind   ChangeKind
	Old    *ColumnState
	New    *ColumnState
}

// Autodetect compares recorded and current states. Recorded fields are rebuilt
// with resolve and deconstructed again, so a state decoded from YAML compares
// equal to the field that wrote it. Recorded fields whose enum can no longer be
// resolved are reported as changed.
func Autodetect(recorded, current *MigrationState, resolve field.EnumResolver) []FieldChange {
	var changes []FieldChange
	for _, table := range sortedKeys(current.Tables) {
		for _, column := range sortedKeys(current.Tables[table]) {
			now := current.Tables[table][column]
			old, ok := recorded.Lookup(table, column)
			if !ok {
				changes = append(changes, FieldChange{Table: table, Column: column, Kind: ColumnAdded, New: &now})
				continue
			}
			if !sameColumn(old, now, resolve) {
				changes = append(changes, FieldChange{Table: table, Column: column, Kind: ColumnChanged, Old: &old, New: &now})
			}
		}
	}
	for _, table := range sortedKeys(recorded.Tables) {
		for _, column := range sortedKeys(recorded.Tables[table]) {
			if _, ok := current.Lookup(table, column); ok {
				continue
			}
			old := recorded.Tables[table][column]
			changes = append(changes, FieldChange{Table: table, Column: column, Kind: ColumnRemoved, Old: &old})
		}
	}
	return changes
}

func sameColumn(old, now ColumnState, resolve field.EnumResolver) bool {
	if old.DBType != now.DBType {
		return false
	}
	rebuilt, err := field.Reconstruct(old.Field, resolve)
	if err != nil {
		return false
	}
	return rebuilt.Deconstruct().Equal(now.Field)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
