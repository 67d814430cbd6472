// Package postgres provides PostgreSQL implementations of the store
// interfaces. It maps database driver errors to the store package's
// error taxonomy so callers never depend on PostgreSQL error codes.
package postgres
