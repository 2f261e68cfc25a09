package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := setupTestDB(t)
	var name string
	err := db.conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'job_history'`).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "job_history", name)
}
