// Package badgerkv is a keystore.Store on BadgerDB.
//
// Key layout:
//
//	pub/<identity>                public key PEM
//	priv/<identity>               encrypted private key PEM
//	file/<file>                   owner id, NUL, owner envelope
//	share/<file>/<recipient>      shared envelope
package badgerkv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/PolarWolf314/lockbox/internal/keystore"
	logger "github.com/PolarWolf314/lockbox/internal/logging"

	"github.com/dgraph-io/badger/v4"
)

// maxConflictRetries bounds retries of read-modify-write transactions that lose a race.
const maxConflictRetries = 16

// Config configures Open.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	Logger     logger.Logger
}

// Store is a badger-backed keystore.Store.
type Store struct {
	db *badger.DB
}

var _ keystore.Store = (*Store)(nil)

// Open opens or creates the database.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = badgerLogger{cfg.Logger}
	opts.SyncWrites = cfg.SyncWrites
	opts.ValueLogFileSize = 1 << 26 // 64MB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open key store at %s: %w", cfg.Path, err)
	}
	return &Store{db: db}, nil
}

func publicKey(id string) []byte  { return []byte("pub/" + id) }
func privateKey(id string) []byte { return []byte("priv/" + id) }
func fileKey(id string) []byte    { return []byte("file/" + id) }
func sharePrefix(fileID string) []byte {
	return []byte("share/" + fileID + "/")
}
func shareKey(fileID, recipientID string) []byte {
	return append(sharePrefix(fileID), recipientID...)
}

func (s *Store) set(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (s *Store) get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, keystore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) PutPublicKey(ctx context.Context, identityID string, blob []byte) error {
	return s.set(ctx, publicKey(identityID), blob)
}

func (s *Store) GetPublicKey(ctx context.Context, identityID string) ([]byte, error) {
	return s.get(ctx, publicKey(identityID))
}

func (s *Store) PutPrivateKey(ctx context.Context, identityID string, blob []byte) error {
	return s.set(ctx, privateKey(identityID), blob)
}

func (s *Store) GetPrivateKey(ctx context.Context, identityID string) ([]byte, error) {
	return s.get(ctx, privateKey(identityID))
}

func (s *Store) PutOwnerEnvelope(ctx context.Context, fileID, ownerID string, blob []byte) error {
	value := make([]byte, 0, len(ownerID)+1+len(blob))
	value = append(value, ownerID...)
	value = append(value, 0)
	value = append(value, blob...)
	return s.set(ctx, fileKey(fileID), value)
}

func (s *Store) GetOwnerEnvelope(ctx context.Context, fileID, ownerID string) ([]byte, error) {
	value, err := s.get(ctx, fileKey(fileID))
	if err != nil {
		return nil, err
	}
	sep := bytes.IndexByte(value, 0)
	if sep < 0 {
		return nil, fmt.Errorf("corrupt owner record for file %s", fileID)
	}
	if string(value[:sep]) != ownerID {
		return nil, keystore.ErrNotFound
	}
	return value[sep+1:], nil
}

func (s *Store) PutSharedEnvelope(ctx context.Context, fileID, recipientID string, blob []byte) error {
	return s.set(ctx, shareKey(fileID, recipientID), blob)
}

func (s *Store) GetSharedEnvelope(ctx context.Context, fileID, recipientID string) ([]byte, error) {
	return s.get(ctx, shareKey(fileID, recipientID))
}

func (s *Store) DeleteSharedEnvelope(ctx context.Context, fileID, recipientID string) (bool, error) {
	key := shareKey(fileID, recipientID)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		var existed bool
		err := s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			existed = true
			return txn.Delete(key)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		if err != nil {
			return false, err
		}
		return existed, nil
	}
}

func (s *Store) ListRecipients(ctx context.Context, fileID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := sharePrefix(fileID)
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			out = append(out, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
