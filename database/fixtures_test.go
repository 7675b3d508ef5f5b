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
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/hummer-enum/field"
	"github.com/tomoncle/hummer-enum/types"
)

var (
	orderStatus = types.MustEnum("OrderStatus", []types.MemberDef{
		types.Def("Pending", "pending"),
		types.Def("Shipped", "shipped"),
		types.Def("Delivered", "delivered"),
	})
	channel = types.MustEnum("Channel", []types.MemberDef{
		types.Def("Web", "web"),
		types.Def("Store", "store"),
	})
	pending = orderStatus.Member("Pending")
	shipped = orderStatus.Member("Shipped")
)

type orderStatusDef struct{}

func (orderStatusDef) Enum() *types.Enum { return orderStatus }

type channelDef struct{}

func (channelDef) Enum() *types.Enum { return channel }

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID       int64                            `bun:"id,pk,autoincrement"`
	Status   types.EnumValue[orderStatusDef]  `bun:"status,notnull,default:'pending'"`
	Previous *types.EnumValue[orderStatusDef] `bun:"previous_status"`
	Note     string                           `bun:"note"`
}

// OrderWithChannel maps the orders table after a channel column was added.
type OrderWithChannel struct {
	bun.BaseModel `bun:"table:orders"`

	ID      int64                           `bun:"id,pk,autoincrement"`
	Status  types.EnumValue[orderStatusDef] `bun:"status,notnull,default:'pending'"`
	Channel types.EnumValue[channelDef]     `bun:"channel,notnull,default:'web'"`
}

type LineItem struct {
	ID   int64
	Kind string
}

func resolveTestEnum(name string) (*types.Enum, bool) {
	switch name {
	case orderStatus.Name():
		return orderStatus, true
	case channel.Name():
		return channel, true
	}
	return nil, false
}

func statusColumn() EnumColumn {
	return EnumColumn{
		Table:  "orders",
		Column: "status",
		Field:  field.MustNew(orderStatus, field.WithColumn("status"), field.WithDefault(pending)),
	}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}
