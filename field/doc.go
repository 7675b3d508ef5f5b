// Package field provides the enum-backed column configuration used by models and
// migrations: value coercion and validation, choice lists, database type
// descriptors, cloning and deconstruction into migration state.
package field
