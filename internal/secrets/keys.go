package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"

	"golang.org/x/crypto/ssh"
)

// KeyBits is the modulus size of generated identity keys.
const KeyBits = 2048

// GenerateKeyPair creates a new RSA identity key pair.
func GenerateKeyPair() (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, nil
}

// MarshalPrivateKey encodes the private key as a passphrase-encrypted OpenSSH PEM.
func MarshalPrivateKey(privateKey *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: passphrase must not be empty", kerrors.ErrBadPassphrase)
	}

	block, err := ssh.MarshalPrivateKeyWithPassphrase(privateKey, "", passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}
	return pem.EncodeToMemory(block), nil
}

// MarshalPublicKey encodes the public key as a PKIX PEM block.
func MarshalPublicKey(publicKey *rsa.PublicKey) ([]byte, error) {
	pubASN1, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubASN1,
	}), nil
}

// ParsePrivateKey decrypts an OpenSSH private key blob with the passphrase.
// A wrong or empty passphrase yields errors.ErrBadPassphrase.
func ParsePrivateKey(blob, passphrase []byte) (*rsa.PrivateKey, error) {
	if len(passphrase) == 0 {
		return nil, kerrors.ErrBadPassphrase
	}

	key, err := ssh.ParseRawPrivateKeyWithPassphrase(blob, passphrase)
	if err != nil {
		if errors.Is(err, x509.IncorrectPasswordError) {
			return nil, kerrors.ErrBadPassphrase
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}

	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, nil
	default:
		return nil, fmt.Errorf("%w: not an RSA key (got %T)", kerrors.ErrInvalidPrivateKey, key)
	}
}

// ParsePublicKey accepts a PKIX "PUBLIC KEY" PEM or an ssh-rsa authorized key line.
func ParsePublicKey(blob []byte) (*rsa.PublicKey, error) {
	if block, _ := pem.Decode(blob); block != nil {
		if block.Type != "PUBLIC KEY" {
			return nil, fmt.Errorf("%w: unexpected PEM type %q", kerrors.ErrInvalidPublicKey, block.Type)
		}
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA public key", kerrors.ErrInvalidPublicKey)
		}
		return rsaPub, nil
	}

	sshPub, _, _, _, err := ssh.ParseAuthorizedKey(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: neither PEM nor OpenSSH format", kerrors.ErrInvalidPublicKey)
	}
	cryptoPub, ok := sshPub.(ssh.CryptoPublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported SSH key", kerrors.ErrInvalidPublicKey)
	}
	rsaPub, ok := cryptoPub.CryptoPublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key (got %s)", kerrors.ErrInvalidPublicKey, sshPub.Type())
	}
	return rsaPub, nil
}

// Fingerprint returns the SHA256 fingerprint of the key as ssh-keygen prints it.
func Fingerprint(publicKey *rsa.PublicKey) (string, error) {
	sshPub, err := ssh.NewPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}
	return ssh.FingerprintSHA256(sshPub), nil
}

// WipePrivateKey zeroes the secret parts of the key in place. The key is unusable afterwards.
func WipePrivateKey(privateKey *rsa.PrivateKey) {
	if privateKey == nil {
		return
	}
	wipeInt(privateKey.D)
	for _, p := range privateKey.Primes {
		wipeInt(p)
	}
	wipeInt(privateKey.Precomputed.Dp)
	wipeInt(privateKey.Precomputed.Dq)
	wipeInt(privateKey.Precomputed.Qinv)
	for _, crt := range privateKey.Precomputed.CRTValues {
		wipeInt(crt.Exp)
		wipeInt(crt.Coeff)
		wipeInt(crt.R)
	}
}

func wipeInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
}
