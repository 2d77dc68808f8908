// Package sqlitedb is a keystore.Store on SQLite (modernc.org/sqlite, no cgo).
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/PolarWolf314/lockbox/internal/keystore"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed keystore.Store.
type Store struct {
	db *sql.DB
}

var _ keystore.Store = (*Store)(nil)

// Open opens or creates the database at path. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" to one database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS identity_keys (
		identity_id TEXT PRIMARY KEY,
		public_key BLOB,
		private_key BLOB
	);
	CREATE TABLE IF NOT EXISTS file_keys (
		file_id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		envelope BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS shared_keys (
		file_id TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		envelope BLOB NOT NULL,
		PRIMARY KEY (file_id, recipient_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) queryBlob(ctx context.Context, query string, args ...any) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, keystore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// A row created by the other key's upsert leaves this column NULL.
	if blob == nil {
		return nil, keystore.ErrNotFound
	}
	return blob, nil
}

func (s *Store) PutPublicKey(ctx context.Context, identityID string, blob []byte) error {
	query := `
	INSERT INTO identity_keys (identity_id, public_key) VALUES (?, ?)
	ON CONFLICT(identity_id) DO UPDATE SET public_key = excluded.public_key
	`
	_, err := s.db.ExecContext(ctx, query, identityID, blob)
	return err
}

func (s *Store) GetPublicKey(ctx context.Context, identityID string) ([]byte, error) {
	return s.queryBlob(ctx, `SELECT public_key FROM identity_keys WHERE identity_id = ?`, identityID)
}

func (s *Store) PutPrivateKey(ctx context.Context, identityID string, blob []byte) error {
	query := `
	INSERT INTO identity_keys (identity_id, private_key) VALUES (?, ?)
	ON CONFLICT(identity_id) DO UPDATE SET private_key = excluded.private_key
	`
	_, err := s.db.ExecContext(ctx, query, identityID, blob)
	return err
}

func (s *Store) GetPrivateKey(ctx context.Context, identityID string) ([]byte, error) {
	return s.queryBlob(ctx, `SELECT private_key FROM identity_keys WHERE identity_id = ?`, identityID)
}

func (s *Store) PutOwnerEnvelope(ctx context.Context, fileID, ownerID string, blob []byte) error {
	query := `
	INSERT INTO file_keys (file_id, owner_id, envelope) VALUES (?, ?, ?)
	ON CONFLICT(file_id) DO UPDATE SET
		owner_id = excluded.owner_id,
		envelope = excluded.envelope
	`
	_, err := s.db.ExecContext(ctx, query, fileID, ownerID, blob)
	return err
}

func (s *Store) GetOwnerEnvelope(ctx context.Context, fileID, ownerID string) ([]byte, error) {
	return s.queryBlob(ctx, `SELECT envelope FROM file_keys WHERE file_id = ? AND owner_id = ?`, fileID, ownerID)
}

func (s *Store) PutSharedEnvelope(ctx context.Context, fileID, recipientID string, blob []byte) error {
	query := `
	INSERT INTO shared_keys (file_id, recipient_id, envelope) VALUES (?, ?, ?)
	ON CONFLICT(file_id, recipient_id) DO UPDATE SET envelope = excluded.envelope
	`
	_, err := s.db.ExecContext(ctx, query, fileID, recipientID, blob)
	return err
}

func (s *Store) GetSharedEnvelope(ctx context.Context, fileID, recipientID string) ([]byte, error) {
	return s.queryBlob(ctx, `SELECT envelope FROM shared_keys WHERE file_id = ? AND recipient_id = ?`, fileID, recipientID)
}

func (s *Store) DeleteSharedEnvelope(ctx context.Context, fileID, recipientID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM shared_keys WHERE file_id = ? AND recipient_id = ?`, fileID, recipientID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListRecipients(ctx context.Context, fileID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT recipient_id FROM shared_keys WHERE file_id = ? ORDER BY recipient_id`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
