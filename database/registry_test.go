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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/hummer-enum/field"
)

func TestRegisterDiscoversEnumColumns(t *testing.T) {
	registry := NewModelRegistry()
	require.NoError(t, registry.Register(NewModelAdapter((*Order)(nil), 0)))

	columns := registry.EnumColumns()
	require.Len(t, columns, 2)

	previous, status := columns[0], columns[1]
	assert.Equal(t, "orders", status.Table)
	assert.Equal(t, "status", status.Column)
	assert.Equal(t, reflect.TypeOf(Order{}), status.Model)
	assert.Same(t, orderStatus, status.Field.Enum())
	assert.False(t, status.Field.Null())
	assert.True(t, status.Field.HasDefault())
	assert.Equal(t, "pending", status.Field.Default())

	assert.Equal(t, "previous_status", previous.Column)
	assert.Same(t, orderStatus, previous.Field.Enum())
	assert.True(t, previous.Field.Null())
	assert.False(t, previous.Field.HasDefault())
}

func TestRegisterEnumFieldOverrides(t *testing.T) {
	registry := NewModelRegistry()
	require.NoError(t, registry.Register(NewModelAdapter((*Order)(nil), 0)))

	custom := field.MustNew(orderStatus, field.WithCaseSensitive(false), field.WithMaxLength(32))
	require.NoError(t, registry.RegisterEnumField((*Order)(nil), "status", custom))
	require.NoError(t, registry.RegisterEnumField(&LineItem{}, "kind", field.MustNew(channel)))

	columns := registry.EnumColumns()
	require.Len(t, columns, 3)
	assert.Equal(t, "line_items", columns[0].Table)
	assert.Equal(t, "kind", columns[0].Field.Name())

	status := columns[2]
	assert.Equal(t, "status", status.Field.Name())
	assert.False(t, status.Field.CaseSensitive())
	assert.Equal(t, 32, status.Field.MaxLength())
	assert.Empty(t, custom.Name(), "the registered field is a copy")

	assert.Error(t, registry.RegisterEnumField(&Order{}, "status", nil))
}

func TestModelsOrderedByPriority(t *testing.T) {
	registry := NewModelRegistry()
	require.NoError(t, registry.Register(NewModelAdapter((*OrderWithChannel)(nil), 10)))
	require.NoError(t, registry.Register(NewModelAdapter((*Order)(nil), 1)))

	instances := modelInstances(registry)
	require.Len(t, instances, 2)
	assert.IsType(t, (*Order)(nil), instances[0])
	assert.IsType(t, (*OrderWithChannel)(nil), instances[1])

	// the first registration of a column wins over later discoveries
	columns := registry.EnumColumns()
	assert.Equal(t, []string{"channel", "previous_status", "status"}, []string{columns[0].Column, columns[1].Column, columns[2].Column})
	assert.Equal(t, reflect.TypeOf(OrderWithChannel{}), columns[2].Model)
}

func TestResolveTableName(t *testing.T) {
	name, err := resolveTableName(&Order{})
	require.NoError(t, err)
	assert.Equal(t, "orders", name)

	name, err = resolveTableName(LineItem{})
	require.NoError(t, err)
	assert.Equal(t, "line_items", name)

	_, err = resolveTableName(42)
	assert.Error(t, err)
}

func TestParseEnumTag(t *testing.T) {
	column, opts := parseEnumTag("OrderState", `,notnull,default:'it''s'`)
	assert.Equal(t, "order_state", column)
	f, err := field.New(nil, append(opts, field.WithChoices(field.Choice{Display: "x", Value: "it's"}))...)
	require.NoError(t, err)
	assert.Equal(t, "it's", f.Default())
	assert.False(t, f.Null())
}
