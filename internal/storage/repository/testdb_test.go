package repository

import (
	"database/sql"
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ramonehamilton/LoR-Companion/internal/storage/migrations"
)

// setupTestDB creates an in-memory database with every up migration applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	files, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)

	for _, name := range files {
		data, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		for _, stmt := range strings.Split(string(data), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			_, err = db.Exec(stmt)
			require.NoError(t, err, "migration %s", name)
		}
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(s string) *string {
	return &s
}
