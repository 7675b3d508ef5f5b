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
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"

	"github.com/tomoncle/hummer-enum/field"
	"github.com/tomoncle/hummer-enum/types"
)

var defaultRegistry = NewModelRegistry()

// SQLModel is a bun model registered for table creation and enum column sync.
// Lower priorities are created first.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// EnumColumn binds a table column to the enum field that describes it.
type EnumColumn struct {
	Table  string
	Column string
	Field  *field.Field
	Model  reflect.Type
}

// ModelRegistry stores models and the enum columns discovered on them.
type ModelRegistry interface {
	Register(model SQLModel) error
	RegisterEnumField(model interface{}, column string, f *field.Field) error
	Models() []SQLModel
	EnumColumns() []EnumColumn
}

type modelRegistry struct {
	models  []SQLModel
	columns map[string]EnumColumn
	mutex   sync.RWMutex
}

// NewModelRegistry returns an empty registry.
func NewModelRegistry() ModelRegistry {
	return &modelRegistry{
		models:  make([]SQLModel, 0),
		columns: make(map[string]EnumColumn),
	}
}

func columnKey(table, column string) string {
	return table + "." + column
}

func (r *modelRegistry) Register(model SQLModel) error {
	columns, err := discoverEnumColumns(model.Instance())
	if err != nil {
		return err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
	for _, c := range columns {
		key := columnKey(c.Table, c.Column)
		if _, ok := r.columns[key]; ok {
			continue
		}
		r.columns[key] = c
	}
	return nil
}

// RegisterEnumField replaces the discovered configuration of a column, or adds
// one for columns stored as plain strings.
func (r *modelRegistry) RegisterEnumField(model interface{}, column string, f *field.Field) error {
	if f == nil {
		return fmt.Errorf("enum field for column %s cannot be nil", column)
	}
	table, err := resolveTableName(model)
	if err != nil {
		return err
	}
	if f.Name() != column {
		f = f.Clone()
		field.WithColumn(column)(f)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.columns[columnKey(table, column)] = EnumColumn{
		Table:  table,
		Column: column,
		Field:  f,
		Model:  indirectType(reflect.TypeOf(model)),
	}
	return nil
}

func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

// EnumColumns returns the registered columns ordered by table and column.
func (r *modelRegistry) EnumColumns() []EnumColumn {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]EnumColumn, 0, len(r.columns))
	for _, c := range r.columns {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Table != result[j].Table {
			return result[i].Table < result[j].Table
		}
		return result[i].Column < result[j].Column
	})
	return result
}

type ModelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct pointer and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{
		instance: instance,
		priority: priority,
	}
}

func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

func (a *ModelAdapter) Priority() int {
	return a.priority
}

// RegisterModel adds a model to the default registry.
func RegisterModel(model SQLModel) error {
	return defaultRegistry.Register(model)
}

// RegisterEnumField overrides a column's field in the default registry.
func RegisterEnumField(model interface{}, column string, f *field.Field) error {
	return defaultRegistry.RegisterEnumField(model, column, f)
}

// GetRegisteredModels returns the default registry's models by priority.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredEnumColumns returns the default registry's enum columns.
func RegisteredEnumColumns() []EnumColumn {
	return defaultRegistry.EnumColumns()
}

func RegisteredModelInstances() []interface{} {
	return modelInstances(defaultRegistry)
}

func modelInstances(r ModelRegistry) []interface{} {
	models := r.Models()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}

type enumTyped interface {
	EnumType() *types.Enum
}

var enumTypedType = reflect.TypeOf((*enumTyped)(nil)).Elem()

func indirectType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

func isBunBaseModel(f reflect.StructField) bool {
	return f.Type.Name() == "BaseModel" && strings.Contains(f.Type.PkgPath(), "uptrace/bun")
}

func resolveTableName(model interface{}) (string, error) {
	t := indirectType(reflect.TypeOf(model))
	if t == nil || t.Kind() != reflect.Struct {
		return "", fmt.Errorf("model %T is not a struct", model)
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !isBunBaseModel(f) {
			continue
		}
		for _, part := range strings.Split(f.Tag.Get("bun"), ",") {
			part = strings.TrimSpace(part)
			if name := strings.TrimPrefix(part, "table:"); name != part && name != "" {
				return name, nil
			}
		}
	}
	return inflection.Plural(strcase.ToSnake(t.Name())), nil
}

// discoverEnumColumns builds a field for every struct field whose type reports
// its enumeration through EnumType, reading bun's notnull and default tags.
func discoverEnumColumns(model interface{}) ([]EnumColumn, error) {
	table, err := resolveTableName(model)
	if err != nil {
		return nil, err
	}
	modelType := indirectType(reflect.TypeOf(model))
	var columns []EnumColumn
	if err := collectEnumColumns(modelType, table, modelType, &columns); err != nil {
		return nil, err
	}
	return columns, nil
}

func collectEnumColumns(t reflect.Type, table string, modelType reflect.Type, out *[]EnumColumn) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if isBunBaseModel(sf) || !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("bun")
		if tag == "-" {
			continue
		}
		e := enumOf(sf.Type)
		if e == nil {
			if sf.Anonymous && indirectType(sf.Type).Kind() == reflect.Struct {
				if err := collectEnumColumns(indirectType(sf.Type), table, modelType, out); err != nil {
					return err
				}
			}
			continue
		}
		column, opts := parseEnumTag(sf.Name, tag)
		f, err := field.New(e, append([]field.Option{field.WithColumn(column)}, opts...)...)
		if err != nil {
			return fmt.Errorf("enum column %s.%s: %w", table, column, err)
		}
		*out = append(*out, EnumColumn{Table: table, Column: column, Field: f, Model: modelType})
	}
	return nil
}

func enumOf(t reflect.Type) *types.Enum {
	if !t.Implements(enumTypedType) && !reflect.PointerTo(t).Implements(enumTypedType) {
		return nil
	}
	var v reflect.Value
	if t.Kind() == reflect.Ptr {
		v = reflect.New(t.Elem())
	} else {
		v = reflect.New(t)
	}
	typed, ok := v.Interface().(enumTyped)
	if !ok {
		return nil
	}
	return typed.EnumType()
}

// parseEnumTag maps `bun:"status,notnull,default:'new'"` to field options.
// Columns without notnull are nullable, matching bun's table creation.
func parseEnumTag(goName, tag string) (string, []field.Option) {
	column := strcase.ToSnake(goName)
	notNull := false
	var opts []field.Option
	for i, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case i == 0 && part != "" && !strings.Contains(part, ":"):
			column = part
		case part == "notnull" || part == "pk":
			notNull = true
		case strings.HasPrefix(part, "default:"):
			opts = append(opts, field.WithDefault(unquoteDefault(strings.TrimPrefix(part, "default:"))))
		}
	}
	opts = append(opts, field.WithNull(!notNull), field.WithBlank(!notNull))
	return column, opts
}

func unquoteDefault(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}
