package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincatalog/catalog/internal/db"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "nested", "catalog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	s := openTemp(t)
	assert.Equal(t, db.DialectSQLite, s.Dialect())
	require.NoError(t, s.Ping(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestOpen_MissingDSN(t *testing.T) {
	_, err := Open(Config{Driver: "sqlite"})
	require.Error(t, err)

	_, err = Open(Config{Driver: "postgres"})
	require.Error(t, err)
}

func TestWaitForReady(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.WaitForReady(context.Background(), time.Second))
}

func TestWithWriteTx_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT)`))

	err := s.WithWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "b", "2"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, s.QueryRow(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 1, n, "rolled back insert must not persist")
}

func TestQuery_ErrorWrapsOp(t *testing.T) {
	s := openTemp(t)
	_, err := s.Query(context.Background(), `SELECT * FROM missing_table`)
	require.Error(t, err)

	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, db.OpSelect, dbErr.Op)
}

func TestWithSQLitePragmas(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)", withSQLitePragmas("a.db"))
	assert.Equal(t, "a.db?mode=ro&_pragma=busy_timeout(5000)", withSQLitePragmas("a.db?mode=ro"))
	assert.Equal(t, "a.db?_pragma=busy_timeout(100)", withSQLitePragmas("a.db?_pragma=busy_timeout(100)"))
}
