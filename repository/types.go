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

package repository

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/hummer-enum/field"
	"github.com/tomoncle/hummer-enum/types"
)

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	GetOne(ctx context.Context, id any) (*T, error)

	GetAll(ctx context.Context) ([]*T, error)

	Create(ctx context.Context, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, id any) error
}

// EnumQueryRepository filters rows on an enum column. The lookup value goes
// through the field first, so members, enum values, names and labels all
// select the same rows.
type EnumQueryRepository[T any] interface {
	ListByEnum(ctx context.Context, f *field.Field, value interface{}) ([]*T, error)

	PageByEnum(ctx context.Context, f *field.Field, value interface{}, page types.PageRequest) (*types.Pagination[T], error)
}

// TransactionRepository defines write operations executed within a transaction.
type TransactionRepository[T any] interface {
	CreateWithTx(ctx context.Context, tx bun.Tx, entity ...*T) error
	UpdateWithTx(ctx context.Context, tx bun.Tx, entity *T) error
}

// Repository combines CRUD, enum filtering and transactional operations and
// exposes bun query builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	EnumQueryRepository[T]
	TransactionRepository[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
}
