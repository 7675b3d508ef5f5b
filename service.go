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

package hummer

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/hummer-enum/database"
	"github.com/tomoncle/hummer-enum/field"
	"github.com/tomoncle/hummer-enum/repository"
	"github.com/tomoncle/hummer-enum/types"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier.
	Get(ctx context.Context, id any) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// FindByEnum returns entities whose enum column matches value, which may be
	// a member, an EnumValue or a member name, value or label.
	FindByEnum(ctx context.Context, f *field.Field, value interface{}) ([]*T, error)

	// PageByEnum is FindByEnum split into pages.
	PageByEnum(ctx context.Context, f *field.Field, value interface{}, page types.PageRequest) (*types.Pagination[T], error)

	Save(ctx context.Context, model ...*T) error

	Update(ctx context.Context, model *T) error

	Delete(ctx context.Context, id any) error

	SaveWithTx(ctx context.Context, tx bun.Tx, model ...*T) error

	// SelectBuilder returns a bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a Service backed by the global database connection,
// resolved on first use.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

// NewServiceWithDB binds the service to db instead of the global connection.
func NewServiceWithDB[T any](db *bun.DB) Service[T] {
	s := &baseServiceImpl[T]{repo: repository.NewRepository[T](db)}
	s.once.Do(func() {})
	return s
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() { s.repo = repository.NewRepository[T](database.GetDB()) })
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return s.baseRepo().GetOne(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().GetAll(ctx)
}

func (s *baseServiceImpl[T]) FindByEnum(ctx context.Context, f *field.Field, value interface{}) ([]*T, error) {
	return s.baseRepo().ListByEnum(ctx, f, value)
}

func (s *baseServiceImpl[T]) PageByEnum(ctx context.Context, f *field.Field, value interface{}, page types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().PageByEnum(ctx, f, value, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	return s.baseRepo().Create(ctx, model...)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) error {
	return s.baseRepo().Update(ctx, model)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) error {
	return s.baseRepo().Delete(ctx, id)
}

func (s *baseServiceImpl[T]) SaveWithTx(ctx context.Context, tx bun.Tx, model ...*T) error {
	return s.baseRepo().CreateWithTx(ctx, tx, model...)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}
