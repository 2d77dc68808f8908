package ciphers

import (
	"fmt"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// Algorithm identifies a symmetric cipher. It is recorded per file and never changes.
type Algorithm string

const (
	AES Algorithm = "AES"
	DES Algorithm = "DES"
	RC4 Algorithm = "RC4"
)

// MaxKeySize is the length of a generated file key. Every algorithm's key is a prefix of it.
const MaxKeySize = 32

// Algorithms lists the supported algorithms in display order.
var Algorithms = []Algorithm{AES, DES, RC4}

// Cipher encrypts and decrypts whole buffers with a fixed key.
type Cipher interface {
	Algorithm() Algorithm
	// Encrypt returns the ciphertext and the IV used, or a nil IV for stream ciphers.
	Encrypt(plaintext []byte) (ciphertext, iv []byte, elapsed time.Duration, err error)
	Decrypt(ciphertext, iv []byte) (plaintext []byte, elapsed time.Duration, err error)
	// Destroy zeroes the cipher's copy of the key. The cipher is unusable afterwards.
	Destroy()
}

// ParseAlgorithm resolves a case-insensitive algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToUpper(strings.TrimSpace(name)))
	switch alg {
	case AES, DES, RC4:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: %q", kerrors.ErrUnknownAlgorithm, name)
	}
}

// KeySize returns the key length in bytes the algorithm uses.
func KeySize(alg Algorithm) (int, error) {
	switch alg {
	case AES:
		return 32, nil
	case DES:
		return 8, nil
	case RC4:
		return 16, nil
	default:
		return 0, fmt.Errorf("%w: %q", kerrors.ErrUnknownAlgorithm, string(alg))
	}
}

// Mode returns the block mode recorded alongside a file, or "" for stream ciphers.
func Mode(alg Algorithm) string {
	switch alg {
	case AES, DES:
		return "CBC"
	default:
		return ""
	}
}

// New constructs a cipher for alg. The key is copied.
func New(alg Algorithm, key []byte) (Cipher, error) {
	switch alg {
	case AES:
		return newAES(key)
	case DES:
		return newDES(key)
	case RC4:
		return newRC4(key)
	default:
		return nil, fmt.Errorf("%w: %q", kerrors.ErrUnknownAlgorithm, string(alg))
	}
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
