package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/stretchr/testify/require"

	"github.com/quizforge/qbank-api/internal/ciutil"
)

// schema mirrors the production tables so integration tests can run
// against a throwaway database without a separate migration step.
const schema = `
CREATE TABLE IF NOT EXISTS question_banks (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	source_file TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	fingerprint TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	question_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
	id UUID PRIMARY KEY,
	bank_id UUID NOT NULL REFERENCES question_banks(id) ON DELETE CASCADE,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	difficulty INTEGER NOT NULL,
	question_type TEXT NOT NULL,
	source_chunk_index INTEGER NOT NULL,
	source_excerpt TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// IsIntegrationTestEnvironment reports whether a test database is
// configured.
func IsIntegrationTestEnvironment() bool {
	return ciutil.GetTestDatabaseURL() != ""
}

// GetTestDB opens a connection to the configured test database and
// ensures the schema exists.
func GetTestDB() (*sql.DB, error) {
	url := ciutil.GetTestDatabaseURL()
	if url == "" {
		return nil, fmt.Errorf("no test database configured")
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping test database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create test schema: %w", err)
	}

	return db, nil
}

// GetTestDBWithT opens the test database, skipping the test when none
// is configured and failing it when the connection cannot be
// established.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	if !IsIntegrationTestEnvironment() {
		t.Skip("skipping integration test: DATABASE_URL not set")
	}

	db, err := GetTestDB()
	require.NoError(t, err, "failed to connect to test database")
	return db
}

// WithTx runs fn inside a transaction that is always rolled back,
// keeping tests isolated from each other.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin test transaction")
	defer func() {
		_ = tx.Rollback()
	}()

	fn(t, tx)
}

// AssertCloseNoError closes the database and fails the test if closing
// errors.
func AssertCloseNoError(t *testing.T, db *sql.DB) {
	t.Helper()
	require.NoError(t, db.Close(), "failed to close test database")
}
