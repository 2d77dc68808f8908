// Package keystore defines where lockbox keeps identity keys and envelopes.
//
// A Store holds four kinds of record:
//
//	public key     identity id             -> PKIX PEM
//	private key    identity id             -> passphrase-encrypted OpenSSH PEM
//	owner envelope file id (+ owner id)    -> wrapped file key
//	shared envelope file id + recipient id -> wrapped file key
//
// Every Put is an upsert and every single-record mutation is atomic, so
// concurrent writers to the same record resolve to last-writer-wins. Gets
// return ErrNotFound when nothing is stored.
//
// Implementations live in sub-packages (badgerkv, sqlitedb) plus the in-memory
// store here; package backend picks one from the workspace configuration.
package keystore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by every Get when the record does not exist.
var ErrNotFound = errors.New("keystore: record not found")

// Store persists identity keys and wrapped file keys.
type Store interface {
	PutPublicKey(ctx context.Context, identityID string, blob []byte) error
	GetPublicKey(ctx context.Context, identityID string) ([]byte, error)

	PutPrivateKey(ctx context.Context, identityID string, blob []byte) error
	GetPrivateKey(ctx context.Context, identityID string) ([]byte, error)

	// PutOwnerEnvelope stores the file's single owner envelope, replacing any previous one.
	PutOwnerEnvelope(ctx context.Context, fileID, ownerID string, blob []byte) error
	// GetOwnerEnvelope only matches when ownerID is the stored owner.
	GetOwnerEnvelope(ctx context.Context, fileID, ownerID string) ([]byte, error)

	PutSharedEnvelope(ctx context.Context, fileID, recipientID string, blob []byte) error
	GetSharedEnvelope(ctx context.Context, fileID, recipientID string) ([]byte, error)
	// DeleteSharedEnvelope reports whether an envelope existed.
	DeleteSharedEnvelope(ctx context.Context, fileID, recipientID string) (bool, error)
	// ListRecipients returns the sorted recipient ids holding a shared envelope for the file.
	ListRecipients(ctx context.Context, fileID string) ([]string, error)

	Close() error
}
