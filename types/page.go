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

package types

// PageRequest selects one page of rows. Orders are raw bun order expressions
// such as "id ASC".
type PageRequest struct {
	Page     int      `json:"page" yaml:"page"`
	PageSize int      `json:"page_size" yaml:"page_size"`
	Orders   []string `json:"orders,omitempty" yaml:"orders,omitempty"`
}

// NewPageRequest constructs a PageRequest; out of range values are clamped
// when the request is used.
func NewPageRequest(page, pageSize int, orders ...string) PageRequest {
	return PageRequest{Page: page, PageSize: pageSize, Orders: orders}
}

func (p PageRequest) GetPageSize() int {
	if p.PageSize < 1 {
		return 10
	}
	return p.PageSize
}

func (p PageRequest) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func (p PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// Pagination holds one page of items along with the total row count.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Items    []*T `json:"items"`
}

// NewPagination returns an empty page for the request.
func NewPagination[T any](req PageRequest) *Pagination[T] {
	return &Pagination[T]{Page: req.GetPage(), PageSize: req.GetPageSize(), Items: make([]*T, 0)}
}

// Pages is the number of pages needed for Total rows.
func (p *Pagination[T]) Pages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
