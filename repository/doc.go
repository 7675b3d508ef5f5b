// Package repository provides a generic bun repository with CRUD operations
// and queries filtered on enum columns.
package repository
