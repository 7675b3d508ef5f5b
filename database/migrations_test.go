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
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/hummer-enum/field"
	"github.com/tomoncle/hummer-enum/types"
)

func newTestManager(db *bun.DB, cfg DataMigrateConfig, models ...SQLModel) (*MigrationManager, ModelRegistry, error) {
	registry := NewModelRegistry()
	for _, m := range models {
		if err := registry.Register(m); err != nil {
			return nil, nil, err
		}
	}
	mm := NewMigrationManager(db, nil, cfg)
	mm.SetRegistry(registry)
	mm.SetEnumResolver(resolveTestEnum)
	return mm, registry, nil
}

func TestRunMigrationsSQLite(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cfg := DefaultMigrateConfig()
	cfg.StateFile = filepath.Join(t.TempDir(), "state.yaml")

	mm, _, err := newTestManager(db, cfg, NewModelAdapter((*Order)(nil), 0))
	require.NoError(t, err)
	require.NoError(t, mm.RunMigrations(ctx))

	order := &Order{Status: types.MustEnumValue[orderStatusDef](shipped), Note: "first"}
	_, err = db.NewInsert().Model(order).Exec(ctx)
	require.NoError(t, err)

	var raw string
	require.NoError(t, db.NewRaw("SELECT status FROM orders WHERE id = ?", order.ID).Scan(ctx, &raw))
	assert.Equal(t, "shipped", raw)

	var loaded Order
	require.NoError(t, db.NewSelect().Model(&loaded).Where("id = ?", order.ID).Scan(ctx))
	assert.Same(t, shipped, loaded.Status.Member())
	assert.True(t, loaded.Previous == nil || loaded.Previous.IsZero())

	// tables were created with every enum column, so nothing was altered
	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	state, err := LoadState(cfg.StateFile)
	require.NoError(t, err)
	status, ok := state.Lookup("orders", "status")
	require.True(t, ok)
	assert.Equal(t, "varchar(9)", status.DBType)
	_, ok = state.Lookup("orders", "previous_status")
	assert.True(t, ok)

	// a new enum column on the existing table is added with its default
	mm2, _, err := newTestManager(db, cfg, NewModelAdapter((*OrderWithChannel)(nil), 0))
	require.NoError(t, err)
	require.NoError(t, mm2.RunMigrations(ctx))

	applied, err = mm2.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.True(t, strings.HasPrefix(applied[0].Version, "enum_sync:orders:"), applied[0].Version)

	var withChannel OrderWithChannel
	require.NoError(t, db.NewSelect().Model(&withChannel).Where("id = ?", order.ID).Scan(ctx))
	assert.Same(t, channel.Member("Web"), withChannel.Channel.Member())
	assert.Same(t, shipped, withChannel.Status.Member())

	// running again is a no-op
	require.NoError(t, mm2.RunMigrations(ctx))
	applied, err = mm2.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 1)

	state, err = LoadState(cfg.StateFile)
	require.NoError(t, err)
	_, ok = state.Lookup("orders", "channel")
	assert.True(t, ok)
	_, ok = state.Lookup("orders", "previous_status")
	assert.True(t, ok, "unregistered columns stay recorded")
}

func TestRunMigrationsKeepsStateOfSkippedChanges(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cfg := DefaultMigrateConfig()
	cfg.AllowColumnModify = true
	cfg.StateFile = filepath.Join(t.TempDir(), "state.yaml")

	mm, _, err := newTestManager(db, cfg, NewModelAdapter((*Order)(nil), 0))
	require.NoError(t, err)
	require.NoError(t, mm.RunMigrations(ctx))

	mm, registry, err := newTestManager(db, cfg, NewModelAdapter((*Order)(nil), 0))
	require.NoError(t, err)
	relaxed := field.MustNew(orderStatus, field.WithNull(true), field.WithDefault(pending))
	require.NoError(t, registry.RegisterEnumField((*Order)(nil), "status", relaxed))
	require.NoError(t, mm.RunMigrations(ctx))

	state, err := LoadState(cfg.StateFile)
	require.NoError(t, err)
	status, ok := state.Lookup("orders", "status")
	require.True(t, ok)
	_, relaxedRecorded := status.Field.Kwargs["null"]
	assert.False(t, relaxedRecorded, "sqlite cannot alter the column, the old configuration stays recorded")
}

func TestRunMigrationsWithoutStateFile(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	cfg := DefaultMigrateConfig()
	cfg.StateFile = ""

	mm, _, err := newTestManager(db, cfg, NewModelAdapter((*Order)(nil), 0))
	require.NoError(t, err)
	require.NoError(t, mm.RunMigrations(ctx))

	exists, err := db.NewSelect().Model((*Migration)(nil)).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

// A column changed A -> B -> A -> B plans the same statements twice; the
// second B must still run.
func TestRunMigrationRepeatablePlans(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	mm, _, err := newTestManager(db, DefaultMigrateConfig())
	require.NoError(t, err)
	require.NoError(t, mm.createMigrationTable(ctx))

	runs := map[string]int{}
	item := func(target string) MigrationItem {
		it := planItem("enum_sync", "orders", []string{"SELECT 1 -- " + target})
		up := it.Up
		it.Up = func(ctx context.Context, db bun.IDB) error {
			runs[target]++
			return up(ctx, db)
		}
		it.Repeatable = true
		return it
	}
	for _, target := range []string{"B", "A", "B"} {
		require.NoError(t, mm.runMigration(ctx, item(target)))
	}
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, runs)

	applied, err := mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 3)

	once := planItem("enum_type", "order_status", []string{"SELECT 2"})
	require.NoError(t, mm.runMigration(ctx, once))
	require.NoError(t, mm.runMigration(ctx, once))
	applied, err = mm.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 4, "non-repeatable plans are applied once")
}

func TestRunMigrationsNilDB(t *testing.T) {
	mm := NewMigrationManager(nil, nil, DefaultMigrateConfig())
	assert.EqualError(t, mm.RunMigrations(context.Background()), "database not initialized")
}
