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
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/hummer-enum/field"
	"github.com/tomoncle/hummer-enum/types"
)

// MigrationManager creates registered tables and keeps enum types and columns
// in line with the code.
type MigrationManager struct {
	db       *bun.DB
	logger   Logger
	config   DataMigrateConfig
	registry ModelRegistry
	resolve  field.EnumResolver
}

// Migration is an applied plan stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:hummer_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a plan executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single versioned plan.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	NoTx        bool
	// Repeatable items run whenever they are planned; each run is recorded
	// under its own version.
	Repeatable bool
}

// NewMigrationManager uses the default model registry and enum registry.
func NewMigrationManager(db *bun.DB, logger Logger, config DataMigrateConfig) *MigrationManager {
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{
		db:       db,
		logger:   logger,
		config:   config,
		registry: defaultRegistry,
		resolve:  types.LookupEnum,
	}
}

func (mm *MigrationManager) SetRegistry(r ModelRegistry) {
	mm.registry = r
}

func (mm *MigrationManager) SetEnumResolver(resolve field.EnumResolver) {
	mm.resolve = resolve
}

// RunMigrations creates the tracking table, synchronizes PostgreSQL enum types,
// creates registered tables, adds or modifies enum columns and finally records
// the resulting state.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	columns := mm.registry.EnumColumns()
	if mm.config.EnableEnumSync && mm.db.Dialect().Name() == dialect.PG {
		if err := mm.syncEnumTypes(ctx, columns); err != nil {
			return fmt.Errorf("failed to sync enum types: %w", err)
		}
	}

	if err := mm.applyColumnTypes(columns); err != nil {
		return err
	}
	if mm.config.CreateTables {
		if err := mm.createTables(ctx); err != nil {
			return err
		}
	}

	if mm.config.EnableEnumSync {
		if err := mm.syncEnumColumns(ctx, columns); err != nil {
			return fmt.Errorf("failed to sync enum columns: %w", err)
		}
	}

	mm.logger.Info("Database migrations completed!")
	return nil
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// applyColumnTypes makes bun create enum columns with the dialect's type.
func (mm *MigrationManager) applyColumnTypes(columns []EnumColumn) error {
	d := mm.db.Dialect()
	for _, c := range columns {
		if c.Model == nil {
			continue
		}
		table := mm.db.Table(c.Model)
		var target *schema.Field
		for _, f := range table.Fields {
			if f.Name == c.Column {
				target = f
				break
			}
		}
		if target == nil {
			return fmt.Errorf("model %s has no column %s", c.Model.Name(), c.Column)
		}
		target.CreateTableSQLType = c.Field.DBType(d.Name(), c.Table).Render(d)
		if target.SQLDefault == "" && c.Field.HasDefault() && c.Field.Default() != nil {
			target.SQLDefault = field.RenderParameterized(d, "%s", []interface{}{c.Field.Default()})
		}
	}
	return nil
}

func (mm *MigrationManager) createTables(ctx context.Context) error {
	for _, model := range modelInstances(mm.registry) {
		_, err := mm.db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) syncEnumTypes(ctx context.Context, columns []EnumColumn) error {
	specs, err := desiredEnumTypes(columns)
	if err != nil {
		return err
	}
	existing, err := listEnumTypes(ctx, mm.db)
	if err != nil {
		return fmt.Errorf("failed to query existing enum types: %w", err)
	}
	for _, spec := range specs {
		values, exists := existing[spec.Name]
		stmts, missing := planEnumType(mm.db.Dialect(), mm.config, spec, values, exists)
		for _, v := range missing {
			mm.logger.Warn("enum value missing from code", "type", spec.Name, "value", v)
		}
		if !exists && len(stmts) == 0 {
			mm.logger.Warn("enum type does not exist and creation is disabled", "type", spec.Name)
			continue
		}
		if len(stmts) == 0 {
			continue
		}
		// ALTER TYPE ... ADD VALUE cannot be used by later statements of the
		// same transaction.
		item := planItem("enum_type", spec.Name, stmts)
		item.NoTx = true
		if err := mm.runMigration(ctx, item); err != nil {
			return fmt.Errorf("enum type %s: %w", spec.Name, err)
		}
	}
	return nil
}

func (mm *MigrationManager) syncEnumColumns(ctx context.Context, columns []EnumColumn) error {
	d := mm.db.Dialect()
	recorded := NewMigrationState(d.Name().String())
	if mm.config.StateFile != "" {
		var err error
		if recorded, err = LoadState(mm.config.StateFile); err != nil {
			return err
		}
	}
	current := CurrentState(d, columns)
	changes := Autodetect(recorded, current, mm.resolve)

	changed := map[string]bool{}
	for _, ch := range changes {
		switch ch.Kind {
		case ColumnChanged:
			changed[columnKey(ch.Table, ch.Column)] = true
		case ColumnRemoved:
			mm.logger.Warn("enum column no longer registered, leaving it in place", "table", ch.Table, "column", ch.Column)
			current.Set(ch.Table, ch.Column, *ch.Old)
		}
	}

	byTable := map[string][]EnumColumn{}
	for _, c := range columns {
		byTable[c.Table] = append(byTable[c.Table], c)
	}
	for _, table := range sortedKeys(byTable) {
		existing, err := listExistingColumns(ctx, mm.db, table)
		if err != nil {
			return fmt.Errorf("failed to query existing columns %s: %w", table, err)
		}
		if len(existing) == 0 {
			mm.logger.Warn("table does not exist, skipping enum columns", "table", table)
			continue
		}
		var plan []string
		for _, c := range byTable[table] {
			stmts, skipped := planColumn(d, mm.config, c, existing, changed[columnKey(c.Table, c.Column)])
			if skipped {
				mm.logger.Warn("enum column change not applied", "table", c.Table, "column", c.Column)
				if old, ok := recorded.Lookup(c.Table, c.Column); ok {
					current.Set(c.Table, c.Column, old)
				} else {
					delete(current.Tables[c.Table], c.Column)
				}
				continue
			}
			plan = append(plan, stmts...)
		}
		if len(plan) == 0 {
			continue
		}
		// gated by introspection and recorded state, not by plan version
		item := planItem("enum_sync", table, plan)
		item.Repeatable = true
		if err := mm.runMigration(ctx, item); err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
	}

	if mm.config.StateFile == "" {
		return nil
	}
	return SaveState(mm.config.StateFile, current)
}

func planItem(kind, target string, stmts []string) MigrationItem {
	hash := planHash(target, stmts)
	return MigrationItem{
		Version:     fmt.Sprintf("%s:%s:%s", kind, target, hash[:16]),
		Name:        kind,
		Description: fmt.Sprintf("%s %d statements, plan hash=%s", target, len(stmts), hash),
		Up: func(ctx context.Context, db bun.IDB) error {
			for _, stmt := range stmts {
				if _, err := db.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("%s: %w", firstLine(stmt), err)
				}
			}
			return nil
		},
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// runMigration applies an item once, or on every call when it is repeatable;
// its version is recorded in the same transaction unless the item opts out.
func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	record := &Migration{
		Version:     migration.Version,
		Name:        migration.Name,
		AppliedAt:   time.Now(),
		Description: migration.Description,
	}
	if migration.Repeatable {
		record.Version = fmt.Sprintf("%s@%d", migration.Version, record.AppliedAt.UnixNano())
	} else {
		exists, err := mm.db.NewSelect().
			Model((*Migration)(nil)).
			Where("version = ?", migration.Version).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			mm.logger.Debug("skip migration (plan already applied)", "version", migration.Version)
			return nil
		}
	}

	if migration.NoTx {
		if err := migration.Up(ctx, mm.db); err != nil {
			return err
		}
		if _, err := mm.db.NewInsert().Model(record).Exec(ctx); err != nil {
			return err
		}
		mm.logger.Info("Migration executed successfully", "version", migration.Version)
		return nil
	}

	tx, err := mm.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var committed bool
	defer func(tx bun.Tx) {
		if !committed {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				mm.logger.Error("Failed to rollback transaction", "error", rollbackErr)
			}
		}
	}(tx)

	if err := migration.Up(ctx, tx); err != nil {
		return err
	}
	if _, err = tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
