package ciphers

import (
	"crypto/rc4" // #nosec G503 -- RC4 is one of the selectable file ciphers.
	"fmt"
	"time"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

type rc4Cipher struct {
	key []byte
}

func newRC4(key []byte) (*rc4Cipher, error) {
	if len(key) != 16 {
		return nil, fmt.Errorf("%w: RC4 requires a 16-byte key, got %d bytes", kerrors.ErrInvalidKey, len(key))
	}
	return &rc4Cipher{key: append([]byte(nil), key...)}, nil
}

func (c *rc4Cipher) Algorithm() Algorithm { return RC4 }

// Encrypt never returns an IV. Each call starts a fresh keystream.
func (c *rc4Cipher) Encrypt(plaintext []byte) ([]byte, []byte, time.Duration, error) {
	start := time.Now()
	out, err := c.xor(plaintext)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}
	return out, nil, time.Since(start), nil
}

// Decrypt ignores iv.
func (c *rc4Cipher) Decrypt(ciphertext, _ []byte) ([]byte, time.Duration, error) {
	start := time.Now()
	out, err := c.xor(ciphertext)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", kerrors.ErrDecryptFailed, err)
	}
	return out, time.Since(start), nil
}

func (c *rc4Cipher) xor(in []byte) ([]byte, error) {
	stream, err := rc4.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	defer stream.Reset()

	out := make([]byte, len(in))
	stream.XORKeyStream(out, in)
	return out, nil
}

func (c *rc4Cipher) Destroy() {
	wipe(c.key)
}
