// Package database provides connection management, configuration, logging and
// enum schema migrations built on top of bun: PostgreSQL enum types, MySQL
// inline enums and SQLite varchar columns are kept in line with the enum
// columns registered from models.
package database
