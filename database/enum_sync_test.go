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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/tomoncle/hummer-enum/field"
	"github.com/tomoncle/hummer-enum/types"
)

func TestBuildAddColumnSQL(t *testing.T) {
	c := statusColumn()
	assert.Equal(t,
		`ALTER TABLE "orders" ADD COLUMN "status" order_status DEFAULT 'pending' NOT NULL`,
		buildAddColumnSQL(pgdialect.New(), c))
	assert.Equal(t,
		"ALTER TABLE `orders` ADD COLUMN `status` enum('pending', 'shipped', 'delivered') DEFAULT 'pending' NOT NULL",
		buildAddColumnSQL(mysqldialect.New(), c))
	assert.Equal(t,
		`ALTER TABLE "orders" ADD COLUMN "status" varchar(9) DEFAULT 'pending' NOT NULL`,
		buildAddColumnSQL(sqlitedialect.New(), c))
}

func TestBuildAddColumnSQLDefaultByName(t *testing.T) {
	c := EnumColumn{
		Table:  "orders",
		Column: "status",
		Field:  field.MustNew(orderStatus, field.WithColumn("status"), field.WithDefault("Shipped")),
	}
	assert.Equal(t,
		`ALTER TABLE "orders" ADD COLUMN "status" order_status DEFAULT 'shipped' NOT NULL`,
		buildAddColumnSQL(pgdialect.New(), c))
}

func TestBuildAddColumnSQLMixedCaseTypeName(t *testing.T) {
	mixed := types.MustEnum("Tier", []types.MemberDef{types.Def("Gold", "gold")}, types.WithTypeName("TierType"))
	c := EnumColumn{Table: "accounts", Column: "tier", Field: field.MustNew(mixed, field.WithColumn("tier"))}
	d := pgdialect.New()
	assert.Equal(t, `CREATE TYPE "TierType" AS ENUM ('gold')`, buildCreateEnumTypeSQL(d, c.Field.TypeName(c.Table), mixed.Values()))
	assert.Equal(t, `ALTER TABLE "accounts" ADD COLUMN "tier" "TierType" NOT NULL`, buildAddColumnSQL(d, c))
}

// Appending a default to one column's type must not leak into the next column.
func TestBuildAddColumnSQLDoesNotShareParams(t *testing.T) {
	withDefault := statusColumn()
	nullable := EnumColumn{
		Table:  "orders",
		Column: "previous_status",
		Field:  field.MustNew(orderStatus, field.WithColumn("previous_status"), field.WithNull(true)),
	}
	d := sqlitedialect.New()
	_ = buildAddColumnSQL(d, withDefault)
	assert.Equal(t, `ALTER TABLE "orders" ADD COLUMN "previous_status" varchar(9)`, buildAddColumnSQL(d, nullable))
	assert.Equal(t, "ALTER TABLE `orders` ADD COLUMN `previous_status` enum('pending', 'shipped', 'delivered') NULL",
		buildAddColumnSQL(mysqldialect.New(), nullable))
}

func TestBuildAddColumnSQLSQLiteNotNullWithoutDefault(t *testing.T) {
	c := EnumColumn{Table: "orders", Column: "status", Field: field.MustNew(orderStatus, field.WithColumn("status"))}
	assert.Equal(t, `ALTER TABLE "orders" ADD COLUMN "status" varchar(9)`, buildAddColumnSQL(sqlitedialect.New(), c))
	assert.Equal(t, `ALTER TABLE "orders" ADD COLUMN "status" order_status NOT NULL`, buildAddColumnSQL(pgdialect.New(), c))
}

func TestBuildModifyColumnSQL(t *testing.T) {
	c := statusColumn()
	assert.Equal(t, []string{
		`ALTER TABLE "orders" ALTER COLUMN "status" DROP DEFAULT`,
		`ALTER TABLE "orders" ALTER COLUMN "status" TYPE "order_status" USING "status"::text::"order_status"`,
		`ALTER TABLE "orders" ALTER COLUMN "status" SET NOT NULL`,
		`ALTER TABLE "orders" ALTER COLUMN "status" SET DEFAULT 'pending'`,
	}, buildModifyColumnSQL(pgdialect.New(), c))
	assert.Equal(t, []string{
		"ALTER TABLE `orders` MODIFY COLUMN `status` enum('pending', 'shipped', 'delivered') DEFAULT 'pending' NOT NULL",
	}, buildModifyColumnSQL(mysqldialect.New(), c))
	assert.Empty(t, buildModifyColumnSQL(sqlitedialect.New(), c))
}

func TestBuildEnumTypeSQL(t *testing.T) {
	d := pgdialect.New()
	assert.Equal(t,
		`CREATE TYPE "order_status" AS ENUM ('pending', 'shipped', 'delivered')`,
		buildCreateEnumTypeSQL(d, "order_status", orderStatus.Values()))
	assert.Equal(t,
		`ALTER TYPE "order_status" ADD VALUE IF NOT EXISTS 'it''s late'`,
		buildAddEnumValueSQL(d, "order_status", "it's late"))
}

func TestPlanEnumType(t *testing.T) {
	d := pgdialect.New()
	spec := enumTypeSpec{Name: "order_status", Values: orderStatus.Values()}
	cfg := DefaultMigrateConfig()

	stmts, missing := planEnumType(d, cfg, spec, nil, false)
	assert.Equal(t, []string{buildCreateEnumTypeSQL(d, "order_status", spec.Values)}, stmts)
	assert.Empty(t, missing)

	stmts, missing = planEnumType(d, cfg, spec, []string{"pending", "lost"}, true)
	assert.Equal(t, []string{
		`ALTER TYPE "order_status" ADD VALUE IF NOT EXISTS 'shipped'`,
		`ALTER TYPE "order_status" ADD VALUE IF NOT EXISTS 'delivered'`,
	}, stmts)
	assert.Equal(t, []string{"lost"}, missing)

	cfg.AllowEnumCreate = false
	cfg.AllowEnumValueAdd = false
	stmts, _ = planEnumType(d, cfg, spec, nil, false)
	assert.Empty(t, stmts)
	stmts, _ = planEnumType(d, cfg, spec, []string{"pending"}, true)
	assert.Empty(t, stmts)
}

func TestDesiredEnumTypes(t *testing.T) {
	choicesOnly := EnumColumn{
		Table:  "orders",
		Column: "size",
		Field:  field.MustNew(nil, field.WithColumn("size"), field.WithChoices(field.Choice{Display: "Small", Value: "s"}, field.Choice{Display: "Large", Value: "l"})),
	}
	specs, err := desiredEnumTypes([]EnumColumn{statusColumn(), choicesOnly, statusColumn()})
	require.NoError(t, err)
	assert.Equal(t, []enumTypeSpec{
		{Name: "order_status", Values: []string{"pending", "shipped", "delivered"}},
		{Name: "orders_sizes", Values: []string{"s", "l"}},
	}, specs)

	legacy := types.MustEnum("LegacyStatus", []types.MemberDef{types.Def("Open", "open")}, types.WithTypeName("order_status"))
	clash := EnumColumn{Table: "legacy_orders", Column: "status", Field: field.MustNew(legacy, field.WithColumn("status"))}
	_, err = desiredEnumTypes([]EnumColumn{statusColumn(), clash})
	assert.ErrorContains(t, err, "enum type order_status is declared with different values")
}

func TestPlanColumn(t *testing.T) {
	d := sqlitedialect.New()
	c := statusColumn()
	cfg := DefaultMigrateConfig()
	existing := map[string]columnSpec{"status": {Name: "status", Type: "varchar(9)"}}

	stmts, skipped := planColumn(d, cfg, c, map[string]columnSpec{}, false)
	assert.False(t, skipped)
	assert.Equal(t, []string{buildAddColumnSQL(d, c)}, stmts)

	stmts, skipped = planColumn(d, cfg, c, existing, false)
	assert.False(t, skipped)
	assert.Empty(t, stmts)

	_, skipped = planColumn(d, cfg, c, existing, true)
	assert.True(t, skipped, "modify disabled by default")

	cfg.AllowColumnModify = true
	_, skipped = planColumn(d, cfg, c, existing, true)
	assert.True(t, skipped, "sqlite cannot modify columns")

	stmts, skipped = planColumn(pgdialect.New(), cfg, c, existing, true)
	assert.False(t, skipped)
	assert.Len(t, stmts, 4)

	cfg.AllowColumnAdd = false
	_, skipped = planColumn(d, cfg, c, map[string]columnSpec{}, false)
	assert.True(t, skipped)
}
