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
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/m4gshm/gollections/slice"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/hummer-enum/field"
)

type columnSpec struct {
	Name    string
	Type    string
	NotNull bool
	Default string
}

// enumTypeSpec is a PostgreSQL enum type and the values the code expects.
type enumTypeSpec struct {
	Name   string
	Values []string
}

// planHash versions a list of statements so an applied plan is not repeated.
func planHash(scope string, stmts []string) string {
	sum := sha256.Sum256([]byte(scope + "|" + strings.Join(stmts, ";\n")))
	return hex.EncodeToString(sum[:])
}

// desiredEnumTypes groups registered columns by PostgreSQL type name. Two
// columns naming the same type must agree on its values.
func desiredEnumTypes(columns []EnumColumn) ([]enumTypeSpec, error) {
	byName := map[string]enumTypeSpec{}
	for _, c := range columns {
		name := c.Field.TypeName(c.Table)
		values := c.Field.StoredValues()
		if prev, ok := byName[name]; ok {
			if strings.Join(prev.Values, "\x00") != strings.Join(values, "\x00") {
				return nil, fmt.Errorf("enum type %s is declared with different values by %s.%s", name, c.Table, c.Column)
			}
			continue
		}
		byName[name] = enumTypeSpec{Name: name, Values: values}
	}
	specs := make([]enumTypeSpec, 0, len(byName))
	for _, s := range byName {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// planEnumType returns the statements bringing one PostgreSQL enum type in line
// with the code, and the database values the code no longer declares.
func planEnumType(d schema.Dialect, cfg DataMigrateConfig, spec enumTypeSpec, existing []string, exists bool) (stmts []string, missing []string) {
	if !exists {
		if cfg.AllowEnumCreate {
			stmts = append(stmts, buildCreateEnumTypeSQL(d, spec.Name, spec.Values))
		}
		return stmts, nil
	}
	if cfg.AllowEnumValueAdd {
		for _, v := range spec.Values {
			if !slices.Contains(existing, v) {
				stmts = append(stmts, buildAddEnumValueSQL(d, spec.Name, v))
			}
		}
	}
	missing = slice.Filter(existing, func(v string) bool { return !slices.Contains(spec.Values, v) })
	return stmts, missing
}

// planColumn returns the statements for one enum column. A nil plan with
// skipped set means a change was detected but is not allowed by configuration.
func planColumn(d schema.Dialect, cfg DataMigrateConfig, c EnumColumn, existing map[string]columnSpec, changed bool) (stmts []string, skipped bool) {
	if _, ok := existing[c.Column]; !ok {
		if !cfg.AllowColumnAdd {
			return nil, true
		}
		return []string{buildAddColumnSQL(d, c)}, false
	}
	if !changed {
		return nil, false
	}
	if !cfg.AllowColumnModify {
		return nil, true
	}
	stmts = buildModifyColumnSQL(d, c)
	return stmts, len(stmts) == 0
}

func quoteIdent(name dialect.Name, s string) string {
	switch name {
	case dialect.MySQL:
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("%s, ", n), ", ")
}

func toParams(values []string) []interface{} {
	return slice.Convert(values, func(v string) interface{} { return v })
}

func buildCreateEnumTypeSQL(d schema.Dialect, typeName string, values []string) string {
	return fmt.Sprintf("CREATE TYPE %s AS ENUM ", quoteIdent(d.Name(), typeName)) +
		field.RenderParameterized(d, "("+placeholders(len(values))+")", toParams(values))
}

func buildAddEnumValueSQL(d schema.Dialect, typeName, value string) string {
	return fmt.Sprintf("ALTER TYPE %s ADD VALUE IF NOT EXISTS ", quoteIdent(d.Name(), typeName)) +
		field.RenderParameterized(d, "%s", []interface{}{value})
}

// columnDefinition renders the column type followed by its default and null
// constraint. The default is appended to the descriptor's own parameters.
func columnDefinition(d schema.Dialect, c EnumColumn, forAdd bool) string {
	dbType := c.Field.DBType(d.Name(), c.Table)
	query, _ := dbType.Parameterized()
	hasDefault := c.Field.HasDefault() && c.Field.Default() != nil
	if hasDefault {
		query += " DEFAULT %s"
		dbType.AppendParams(c.Field.Default())
	}
	switch {
	case c.Field.Null():
		if d.Name() == dialect.MySQL {
			query += " NULL"
		}
	case forAdd && d.Name() == dialect.SQLite && !hasDefault:
		// SQLite cannot add a NOT NULL column without a default.
	default:
		query += " NOT NULL"
	}
	_, params := dbType.Parameterized()
	return field.RenderParameterized(d, query, params)
}

func buildAddColumnSQL(d schema.Dialect, c EnumColumn) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		quoteIdent(d.Name(), c.Table), quoteIdent(d.Name(), c.Column), columnDefinition(d, c, true))
}

// buildModifyColumnSQL returns no statements for SQLite, which cannot alter a
// column in place.
func buildModifyColumnSQL(d schema.Dialect, c EnumColumn) []string {
	table, column := quoteIdent(d.Name(), c.Table), quoteIdent(d.Name(), c.Column)
	switch d.Name() {
	case dialect.PG:
		typeName := quoteIdent(d.Name(), c.Field.TypeName(c.Table))
		stmts := []string{
			fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, column),
			fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::text::%s", table, column, typeName, column, typeName),
		}
		if c.Field.Null() {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", table, column))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", table, column))
		}
		if c.Field.HasDefault() && c.Field.Default() != nil {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT ", table, column)+
				field.RenderParameterized(d, "%s", []interface{}{c.Field.Default()}))
		}
		return stmts
	case dialect.MySQL:
		return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", table, column, columnDefinition(d, c, false))}
	default:
		return nil
	}
}

func listEnumTypes(ctx context.Context, db bun.IDB) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT t.typname, e.enumlabel FROM pg_type t JOIN pg_enum e ON e.enumtypid = t.oid ORDER BY t.typname, e.enumsortorder`)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	result := map[string][]string{}
	for rows.Next() {
		var name, label string
		if err := rows.Scan(&name, &label); err != nil {
			return nil, err
		}
		result[name] = append(result[name], label)
	}
	return result, rows.Err()
}

func listExistingColumns(ctx context.Context, db bun.IDB, table string) (map[string]columnSpec, error) {
	cols := map[string]columnSpec{}
	name := db.Dialect().Name()
	var rows *sql.Rows
	var err error
	switch name {
	case dialect.PG:
		rows, err = db.QueryContext(ctx, `SELECT column_name, udt_name, is_nullable, column_default FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`, table)
	case dialect.MySQL:
		rows, err = db.QueryContext(ctx, `SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`, table)
	default:
		rows, err = db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name, table)))
	}
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var colName, typStr, nullable string
		var defaultNS sql.NullString
		switch name {
		case dialect.PG, dialect.MySQL:
			if err := rows.Scan(&colName, &typStr, &nullable, &defaultNS); err != nil {
				return nil, err
			}
		default:
			var cid, notnull, pk int
			if err := rows.Scan(&cid, &colName, &typStr, &notnull, &defaultNS, &pk); err != nil {
				return nil, err
			}
			nullable = map[bool]string{true: "NO", false: "YES"}[notnull == 1]
		}
		cols[colName] = columnSpec{
			Name:    colName,
			Type:    typStr,
			NotNull: strings.EqualFold(nullable, "NO"),
			Default: defaultNS.String,
		}
	}
	return cols, rows.Err()
}
