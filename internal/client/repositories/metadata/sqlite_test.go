package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/walletlink/internal/dbx"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T, schema string) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

const strictSchema = `CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`

func TestRepository_ApplyOverwritesAndLookup(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, strictSchema))
	ctx := context.Background()

	require.NoError(t, r.Apply(ctx, Entries{"session_token": []byte("old")}))
	require.NoError(t, r.Apply(ctx, Entries{"session_token": []byte("new")}))

	v, ok, err := r.Lookup(ctx, "session_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), v)
}

func TestRepository_LookupMissingKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, strictSchema))

	v, ok, err := r.Lookup(context.Background(), "refresh_token")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestRepository_ApplyNilRemovesKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, strictSchema))
	ctx := context.Background()

	require.NoError(t, r.Apply(ctx, Entries{
		"connection_id":      []byte("c-1"),
		"pending_connection": []byte("c-0"),
	}))
	require.NoError(t, r.Apply(ctx, Entries{
		"pending_connection": nil,
		"phone_number":       []byte("+233123456789"),
		"never_stored":       nil,
	}))

	m, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"connection_id": []byte("c-1"),
		"phone_number":  []byte("+233123456789"),
	}, m)
}

func TestRepository_LoadSelectedKeys(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, strictSchema))
	ctx := context.Background()

	require.NoError(t, r.Apply(ctx, Entries{
		"a": []byte("1"),
		"b": []byte("2"),
		"c": []byte("3"),
	}))

	m, err := r.Load(ctx, "a", "c", "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "c": []byte("3")}, m)

	m, err = r.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"b": []byte("2")}, m)
}

func TestRepository_Purge(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, strictSchema))
	ctx := context.Background()

	require.NoError(t, r.Apply(ctx, Entries{"a": []byte("1"), "b": []byte("2")}))
	require.NoError(t, r.Purge(ctx))

	m, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestRepository_ApplyInTxRollsBack(t *testing.T) {
	db := setupDB(t, `CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL CHECK (length(value) < 4));`)
	ctx := context.Background()
	require.NoError(t, NewSQLiteRepository(db).Apply(ctx, Entries{"a": []byte("old")}))

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// "a" is written first, then "b" violates the check.
		return NewSQLiteRepository(tx).Apply(ctx, Entries{"a": []byte("new"), "b": []byte("too long")})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `metadata: write "b"`)

	m, err := NewSQLiteRepository(db).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("old")}, m)
}

func TestRepository_NullValueLoadedAsNil(t *testing.T) {
	db := setupDB(t, `CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB);`)
	r := NewSQLiteRepository(db)

	_, err := db.Exec(`INSERT INTO metadata(key, value) VALUES ('bad', NULL)`)
	require.NoError(t, err)

	m, err := r.Load(context.Background())
	require.NoError(t, err)
	v, ok := m["bad"]
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestRepository_ErrorsAreWrapped(t *testing.T) {
	db := setupDB(t, strictSchema)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"lookup", func() error { _, _, err := r.Lookup(ctx, "k"); return err }, `metadata: lookup "k"`},
		{"apply", func() error { return r.Apply(ctx, Entries{"k": []byte("v")}) }, `metadata: write "k"`},
		{"purge", func() error { return r.Purge(ctx) }, "metadata: purge"},
		{"load", func() error { _, err := r.Load(ctx); return err }, "metadata: load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
