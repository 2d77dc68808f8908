package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/PolarWolf314/lockbox/internal/ciphers"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// MaxWrapSize is the largest payload WrapKey accepts for the given key.
func MaxWrapSize(publicKey *rsa.PublicKey) int {
	return publicKey.Size() - 2*sha256.Size - 2
}

// WrapKey encrypts a key payload to the public key with RSA-OAEP (SHA-256, empty label).
// The output differs on every call.
func WrapKey(publicKey *rsa.PublicKey, payload []byte) ([]byte, error) {
	if publicKey == nil {
		return nil, kerrors.ErrInvalidPublicKey
	}
	if limit := MaxWrapSize(publicKey); len(payload) > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", kerrors.ErrPayloadTooLarge, len(payload), limit)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap key: %w", err)
	}
	return wrapped, nil
}

// UnwrapKey reverses WrapKey. Every failure is reported as errors.ErrUnwrapFailure.
func UnwrapKey(privateKey *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, kerrors.ErrUnwrapFailure
	}
	payload, err := rsa.DecryptOAEP(sha256.New(), nil, privateKey, wrapped, nil)
	if err != nil {
		return nil, kerrors.ErrUnwrapFailure
	}
	return payload, nil
}

// NewFileKey generates a random file key of ciphers.MaxKeySize bytes.
func NewFileKey() ([]byte, error) {
	key := make([]byte, ciphers.MaxKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate file key: %w", err)
	}
	return key, nil
}

// KeyFor returns a copy of the prefix of fileKey the algorithm uses.
func KeyFor(alg ciphers.Algorithm, fileKey []byte) ([]byte, error) {
	size, err := ciphers.KeySize(alg)
	if err != nil {
		return nil, err
	}
	if len(fileKey) < size {
		return nil, fmt.Errorf("%w: %s needs %d bytes, file key has %d", kerrors.ErrInvalidKey, alg, size, len(fileKey))
	}
	return append([]byte(nil), fileKey[:size]...), nil
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
