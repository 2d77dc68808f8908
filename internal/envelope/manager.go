package envelope

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/PolarWolf314/lockbox/internal/ciphers"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keystore"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/secrets"

	"github.com/google/uuid"
)

// saltSize is the length of the per-file salt recorded with each upload.
const saltSize = 16

// Manager runs envelope operations against a key store. It is safe for concurrent use.
type Manager struct {
	store keystore.Store
	log   logger.Logger
	rand  io.Reader
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for debug tracing.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithRandom sets the source for file ids and salts. Key material always comes from crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) { m.rand = r }
}

// New returns a Manager backed by store.
func New(store keystore.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		rand:  rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Identity describes a provisioned keypair.
type Identity struct {
	ID          string
	Fingerprint string
}

// Provision generates a keypair for identityID and stores it, replacing any
// previous keypair. Envelopes wrapped for the old key become unreadable.
func (m *Manager) Provision(ctx context.Context, identityID string, passphrase []byte) (*Identity, error) {
	if identityID == "" {
		return nil, fmt.Errorf("identity id must not be empty")
	}

	m.log.Debugf("Generating RSA-%d keypair for %s", secrets.KeyBits, identityID)
	privateKey, err := secrets.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	defer secrets.WipePrivateKey(privateKey)

	pubBlob, err := secrets.MarshalPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	privBlob, err := secrets.MarshalPrivateKey(privateKey, passphrase)
	if err != nil {
		return nil, err
	}
	fingerprint, err := secrets.Fingerprint(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.store.PutPublicKey(ctx, identityID, pubBlob); err != nil {
		return nil, fmt.Errorf("failed to store public key: %w", err)
	}
	if err := m.store.PutPrivateKey(ctx, identityID, privBlob); err != nil {
		return nil, fmt.Errorf("failed to store private key: %w", err)
	}

	m.log.Debugf("Provisioned keypair %s for %s", fingerprint, identityID)
	return &Identity{ID: identityID, Fingerprint: fingerprint}, nil
}

// Lookup returns the provisioned identity, or ErrIdentityKeyMissing.
func (m *Manager) Lookup(ctx context.Context, identityID string) (*Identity, error) {
	pub, err := m.publicKey(ctx, identityID)
	if err != nil {
		return nil, err
	}
	fingerprint, err := secrets.Fingerprint(pub)
	if err != nil {
		return nil, err
	}
	return &Identity{ID: identityID, Fingerprint: fingerprint}, nil
}

// ChangePassphrase re-encrypts the identity's private key under a new passphrase.
// The keypair and every envelope wrapped for it are unchanged.
func (m *Manager) ChangePassphrase(ctx context.Context, identityID string, oldPassphrase, newPassphrase []byte) error {
	privateKey, err := m.unlock(ctx, identityID, oldPassphrase)
	if err != nil {
		return err
	}
	defer secrets.WipePrivateKey(privateKey)

	privBlob, err := secrets.MarshalPrivateKey(privateKey, newPassphrase)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.store.PutPrivateKey(ctx, identityID, privBlob); err != nil {
		return fmt.Errorf("failed to store private key: %w", err)
	}

	m.log.Debugf("Changed passphrase for %s", identityID)
	return nil
}

// UploadRequest is the input to Upload.
type UploadRequest struct {
	// FileID is generated when empty.
	FileID    string
	OwnerID   string
	Algorithm ciphers.Algorithm
	Plaintext []byte
}

// UploadResult carries everything the caller needs to persist alongside the ciphertext.
type UploadResult struct {
	FileID     string
	Algorithm  ciphers.Algorithm
	Mode       string
	Ciphertext []byte
	// IVHex is empty for stream ciphers.
	IVHex string
	// SaltHex is recorded per file but takes no part in key derivation.
	SaltHex   string
	PlainSize int
	Elapsed   time.Duration
}

// Upload encrypts the plaintext under a fresh file key and stores the owner envelope.
func (m *Manager) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if _, err := ciphers.KeySize(req.Algorithm); err != nil {
		return nil, err
	}

	fileID := req.FileID
	if fileID == "" {
		id, err := uuid.NewRandomFromReader(m.rand)
		if err != nil {
			return nil, fmt.Errorf("failed to generate file id: %w", err)
		}
		fileID = id.String()
	}

	ownerPub, err := m.publicKey(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	fileKey, err := secrets.NewFileKey()
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe(fileKey)

	key, err := secrets.KeyFor(req.Algorithm, fileKey)
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe(key)

	c, err := ciphers.New(req.Algorithm, key)
	if err != nil {
		return nil, err
	}
	defer c.Destroy()

	ciphertext, iv, elapsed, err := c.Encrypt(req.Plaintext)
	if err != nil {
		return nil, err
	}
	m.log.Debugf("Encrypted file %s with %s in %s", fileID, req.Algorithm, elapsed)

	wrapped, err := secrets.WrapKey(ownerPub, fileKey)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(m.rand, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.store.PutOwnerEnvelope(ctx, fileID, req.OwnerID, wrapped); err != nil {
		return nil, fmt.Errorf("failed to store owner envelope: %w", err)
	}
	m.log.Debugf("Stored owner envelope for file %s", fileID)

	result := &UploadResult{
		FileID:     fileID,
		Algorithm:  req.Algorithm,
		Mode:       ciphers.Mode(req.Algorithm),
		Ciphertext: ciphertext,
		SaltHex:    hex.EncodeToString(salt),
		PlainSize:  len(req.Plaintext),
		Elapsed:    elapsed,
	}
	if iv != nil {
		result.IVHex = hex.EncodeToString(iv)
	}
	return result, nil
}

// GrantRequest is the input to Grant.
type GrantRequest struct {
	FileID      string
	OwnerID     string
	Passphrase  []byte
	RecipientID string
}

// GrantResult reports the outcome of a grant.
type GrantResult struct {
	FileID      string
	RecipientID string
	// Replaced is true when the recipient already held an envelope for the file.
	Replaced bool
}

// Grant gives the recipient a shared envelope for the file. Granting again
// replaces the envelope with a fresh wrap of the same key.
func (m *Manager) Grant(ctx context.Context, req GrantRequest) (*GrantResult, error) {
	if req.RecipientID == req.OwnerID {
		return nil, kerrors.ErrSelfGrant
	}

	results, err := m.GrantMany(ctx, GrantManyRequest{
		FileID:       req.FileID,
		OwnerID:      req.OwnerID,
		Passphrase:   req.Passphrase,
		RecipientIDs: []string{req.RecipientID},
	})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// GrantManyRequest grants one file to several recipients with a single unlock.
type GrantManyRequest struct {
	FileID       string
	OwnerID      string
	Passphrase   []byte
	RecipientIDs []string
}

// GrantMany grants the file to each recipient in order. It stops at the first
// failure and returns the grants completed before it alongside the error.
func (m *Manager) GrantMany(ctx context.Context, req GrantManyRequest) ([]GrantResult, error) {
	for _, r := range req.RecipientIDs {
		if r == req.OwnerID {
			return nil, kerrors.ErrSelfGrant
		}
	}

	fileKey, err := m.openEnvelope(ctx, req.FileID, req.OwnerID, req.Passphrase, RoleOwner)
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe(fileKey)

	results := make([]GrantResult, 0, len(req.RecipientIDs))
	for _, recipientID := range req.RecipientIDs {
		res, err := m.share(ctx, req.FileID, recipientID, fileKey)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

func (m *Manager) share(ctx context.Context, fileID, recipientID string, fileKey []byte) (*GrantResult, error) {
	recipientPub, err := m.publicKey(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	wrapped, err := secrets.WrapKey(recipientPub, fileKey)
	if err != nil {
		return nil, err
	}

	replaced, err := m.HasAccess(ctx, fileID, recipientID)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.store.PutSharedEnvelope(ctx, fileID, recipientID, wrapped); err != nil {
		return nil, fmt.Errorf("failed to store shared envelope: %w", err)
	}

	m.log.Debugf("Stored shared envelope for file %s, recipient %s", fileID, recipientID)
	return &GrantResult{FileID: fileID, RecipientID: recipientID, Replaced: replaced}, nil
}

// Role selects which envelope Decrypt opens.
type Role int

const (
	// RoleOwner opens the owner envelope.
	RoleOwner Role = iota
	// RoleDelegate opens the requester's shared envelope.
	RoleDelegate
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleDelegate:
		return "delegate"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// DecryptRequest is the input to Decrypt.
type DecryptRequest struct {
	FileID      string
	RequesterID string
	Passphrase  []byte
	Role        Role
	Algorithm   ciphers.Algorithm
	Ciphertext  []byte
	// IV is ignored for stream ciphers.
	IV []byte
}

// DecryptResult is the output of Decrypt.
type DecryptResult struct {
	Plaintext []byte
	Elapsed   time.Duration
}

// Decrypt opens the requester's envelope and decrypts the ciphertext.
func (m *Manager) Decrypt(ctx context.Context, req DecryptRequest) (*DecryptResult, error) {
	if _, err := ciphers.KeySize(req.Algorithm); err != nil {
		return nil, err
	}

	fileKey, err := m.openEnvelope(ctx, req.FileID, req.RequesterID, req.Passphrase, req.Role)
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe(fileKey)

	key, err := secrets.KeyFor(req.Algorithm, fileKey)
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe(key)

	c, err := ciphers.New(req.Algorithm, key)
	if err != nil {
		return nil, err
	}
	defer c.Destroy()

	plaintext, elapsed, err := c.Decrypt(req.Ciphertext, req.IV)
	if err != nil {
		return nil, err
	}

	m.log.Debugf("Decrypted file %s as %s in %s", req.FileID, req.Role, elapsed)
	return &DecryptResult{Plaintext: plaintext, Elapsed: elapsed}, nil
}

// Revoke deletes the recipient's shared envelope. ErrEnvelopeMissing means there was none.
func (m *Manager) Revoke(ctx context.Context, fileID, recipientID string) error {
	existed, err := m.store.DeleteSharedEnvelope(ctx, fileID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to delete shared envelope: %w", err)
	}
	if !existed {
		return fmt.Errorf("%w: file %s, recipient %s", kerrors.ErrEnvelopeMissing, fileID, recipientID)
	}
	m.log.Debugf("Revoked file %s from %s", fileID, recipientID)
	return nil
}

// HasAccess reports whether identityID holds a shared envelope for the file.
func (m *Manager) HasAccess(ctx context.Context, fileID, identityID string) (bool, error) {
	_, err := m.store.GetSharedEnvelope(ctx, fileID, identityID)
	if errors.Is(err, keystore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Recipients lists the identities holding a shared envelope for the file.
func (m *Manager) Recipients(ctx context.Context, fileID string) ([]string, error) {
	return m.store.ListRecipients(ctx, fileID)
}

// openEnvelope unlocks identityID's private key and unwraps the envelope the
// role selects. The caller must wipe the returned key.
func (m *Manager) openEnvelope(ctx context.Context, fileID, identityID string, passphrase []byte, role Role) ([]byte, error) {
	privateKey, err := m.unlock(ctx, identityID, passphrase)
	if err != nil {
		return nil, err
	}
	defer secrets.WipePrivateKey(privateKey)

	var wrapped []byte
	switch role {
	case RoleOwner:
		wrapped, err = m.store.GetOwnerEnvelope(ctx, fileID, identityID)
	case RoleDelegate:
		wrapped, err = m.store.GetSharedEnvelope(ctx, fileID, identityID)
	default:
		return nil, fmt.Errorf("unknown role %s", role)
	}
	if errors.Is(err, keystore.ErrNotFound) {
		return nil, fmt.Errorf("%w: file %s, %s %s", kerrors.ErrEnvelopeMissing, fileID, role, identityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read envelope: %w", err)
	}

	fileKey, err := secrets.UnwrapKey(privateKey, wrapped)
	if err != nil {
		return nil, err
	}
	m.log.Debugf("Unwrapped %s envelope for file %s", role, fileID)
	return fileKey, nil
}

// unlock loads and decrypts the identity's private key. The caller must wipe it.
func (m *Manager) unlock(ctx context.Context, identityID string, passphrase []byte) (*rsa.PrivateKey, error) {
	blob, err := m.store.GetPrivateKey(ctx, identityID)
	if errors.Is(err, keystore.ErrNotFound) {
		return nil, fmt.Errorf("%w: no private key for %s", kerrors.ErrIdentityKeyMissing, identityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	privateKey, err := secrets.ParsePrivateKey(blob, passphrase)
	if err != nil {
		return nil, err
	}
	m.log.Debugf("Unlocked private key for %s", identityID)
	return privateKey, nil
}

func (m *Manager) publicKey(ctx context.Context, identityID string) (*rsa.PublicKey, error) {
	blob, err := m.store.GetPublicKey(ctx, identityID)
	if errors.Is(err, keystore.ErrNotFound) {
		return nil, fmt.Errorf("%w: no public key for %s", kerrors.ErrIdentityKeyMissing, identityID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	return secrets.ParsePublicKey(blob)
}
