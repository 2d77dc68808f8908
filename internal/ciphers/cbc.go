package ciphers

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// cbcCipher runs a block cipher in CBC mode with PKCS#7 padding.
type cbcCipher struct {
	alg   Algorithm
	key   []byte
	block func(key []byte) (cipher.Block, error)
}

func newAES(key []byte) (*cbcCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: AES requires a 32-byte key, got %d bytes", kerrors.ErrInvalidKey, len(key))
	}
	return &cbcCipher{
		alg:   AES,
		key:   append([]byte(nil), key...),
		block: aes.NewCipher,
	}, nil
}

// newDES truncates or zero-pads the key to 8 bytes rather than rejecting it.
func newDES(key []byte) (*cbcCipher, error) {
	k := make([]byte, 8)
	copy(k, key)
	return &cbcCipher{
		alg:   DES,
		key:   k,
		block: des.NewCipher,
	}, nil
}

func (c *cbcCipher) Algorithm() Algorithm { return c.alg }

func (c *cbcCipher) Encrypt(plaintext []byte) ([]byte, []byte, time.Duration, error) {
	start := time.Now()

	block, err := c.block(c.key)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %s cipher setup failed", kerrors.ErrEncryptFailed, c.alg)
	}

	iv := make([]byte, block.BlockSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, 0, fmt.Errorf("generating IV: %w", err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return ciphertext, iv, time.Since(start), nil
}

func (c *cbcCipher) Decrypt(ciphertext, iv []byte) ([]byte, time.Duration, error) {
	start := time.Now()

	block, err := c.block(c.key)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s cipher setup failed", kerrors.ErrDecryptFailed, c.alg)
	}

	bs := block.BlockSize()
	if len(iv) != bs {
		return nil, 0, fmt.Errorf("%w: %s expects a %d-byte IV, got %d", kerrors.ErrDecryptFailed, c.alg, bs, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, 0, fmt.Errorf("%w: ciphertext is not a multiple of the %s block size", kerrors.ErrDecryptFailed, c.alg)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, bs)
	if err != nil {
		wipe(padded)
		return nil, 0, fmt.Errorf("%w: %v", kerrors.ErrDecryptFailed, err)
	}

	return plaintext, time.Since(start), nil
}

func (c *cbcCipher) Destroy() {
	wipe(c.key)
}
