package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/walletlink/internal/dbx"
)

const (
	upsertQuery = `INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	deleteQuery = `DELETE FROM metadata WHERE key = ?`
)

// SQLiteRepository implements Repository over the metadata table. Given a
// *sql.Tx from dbx.WithTx, a whole Apply batch commits or rolls back as one.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("metadata: lookup %q: %w", key, err)
	}
	return value, true, nil
}

func (r *SQLiteRepository) Load(ctx context.Context, keys ...string) (map[string][]byte, error) {
	query := `SELECT key, value FROM metadata`
	args := make([]any, len(keys))
	if len(keys) > 0 {
		for i, k := range keys {
			args[i] = k
		}
		query += ` WHERE key IN (?` + strings.Repeat(`, ?`, len(keys)-1) + `)`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata: load: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("metadata: scan: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata: load: %w", err)
	}
	return out, nil
}

// Apply writes entries in key order. It stops at the first failure, so
// callers wanting all-or-nothing run it inside a transaction.
func (r *SQLiteRepository) Apply(ctx context.Context, entries Entries) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var err error
		if v := entries[k]; v == nil {
			_, err = r.db.ExecContext(ctx, deleteQuery, k)
		} else {
			_, err = r.db.ExecContext(ctx, upsertQuery, k, v)
		}
		if err != nil {
			return fmt.Errorf("metadata: write %q: %w", k, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Purge(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("metadata: purge: %w", err)
	}
	return nil
}
