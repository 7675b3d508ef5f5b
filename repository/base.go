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
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/hummer-enum/field"
	"github.com/tomoncle/hummer-enum/types"
)

type baseRepositoryImpl[T any] struct {
	db *bun.DB
}

// NewRepository returns a generic repository backed by the provided bun DB.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.db.NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	var entities []*T
	err := r.db.NewSelect().Model(&entities).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	_, err := r.db.NewInsert().Model(&entity).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	var entity T
	_, err := r.db.NewDelete().Model(&entity).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) CreateWithTx(ctx context.Context, tx bun.Tx, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	_, err := tx.NewInsert().Model(&entity).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) UpdateWithTx(ctx context.Context, tx bun.Tx, entity *T) error {
	_, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

// whereEnum adds the column condition for a coerced enum value; a null value
// matches NULL rows.
func whereEnum(q *bun.SelectQuery, f *field.Field, value interface{}) (*bun.SelectQuery, error) {
	v, err := f.GetPrepValue(value)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return q.Where("? IS NULL", bun.Ident(f.Name())), nil
	}
	return q.Where("? = ?", bun.Ident(f.Name()), v), nil
}

func (r *baseRepositoryImpl[T]) ListByEnum(ctx context.Context, f *field.Field, value interface{}) ([]*T, error) {
	var entities []*T
	query, err := whereEnum(r.db.NewSelect().Model(&entities), f, value)
	if err != nil {
		return nil, err
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) PageByEnum(ctx context.Context, f *field.Field, value interface{}, page types.PageRequest) (*types.Pagination[T], error) {
	var entities []*T
	query, err := whereEnum(r.db.NewSelect().Model(&entities), f, value)
	if err != nil {
		return nil, err
	}
	pagination := types.NewPagination[T](page)
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	err = query.
		Offset(page.GetOffset()).
		Limit(page.GetPageSize()).
		Order(page.Orders...).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %d: %w", page.GetPage(), err)
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}
