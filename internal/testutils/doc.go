// Package testutils provides shared helpers for integration tests,
// primarily database setup and transaction-scoped test isolation.
//
// Database-backed tests skip themselves unless a test database is
// configured through the DATABASE_URL or QBANK_TEST_DB_URL environment
// variable.
package testutils
