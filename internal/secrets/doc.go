// Package secrets holds the asymmetric half of lockbox's envelope encryption.
//
// # Encryption Architecture
//
// Lockbox uses a hybrid scheme:
//
//  1. A random 32-byte file key encrypts the file contents (see package ciphers)
//  2. The owner's RSA public key wraps the full file key into an owner envelope
//  3. Granting access unwraps the owner envelope and re-wraps the key for the recipient
//
// Wrapping is RSA-OAEP with SHA-256 for both the hash and MGF1 and an empty
// label. A 2048-bit key can wrap at most 190 bytes.
//
// # Key Custody
//
// Identity keys are RSA-2048 with e = 65537. Public keys are stored as PKIX
// PEM. Private keys are only ever stored as passphrase-encrypted OpenSSH
// private keys (bcrypt-pbkdf, aes256-ctr). A wrong passphrase is reported as
// errors.ErrBadPassphrase.
//
// # Wiping
//
// File keys and decrypted private keys should be wiped with Wipe and
// WipePrivateKey as soon as the operation using them is done. Go cannot
// guarantee no copies remain, so this is best effort.
package secrets
