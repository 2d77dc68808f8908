// Package errors provides typed error values for lockbox.
//
// Sentinel errors let callers branch on specific conditions with errors.Is()
// instead of matching message text.
//
// # Error Categories
//
//   - Key custody: ErrBadPassphrase, ErrIdentityKeyMissing, ErrInvalidPrivateKey
//   - Envelopes: ErrEnvelopeMissing, ErrUnwrapFailure, ErrSelfGrant
//   - Ciphers: ErrInvalidKey, ErrUnknownAlgorithm, ErrDecryptFailed
//   - Workspace: ErrWorkspaceNotInitialized, ErrFileNotFound
//   - Access: ErrNotOwner, ErrUserNotFound
//
// None of these are transient. They describe caller mistakes or integrity
// problems and are never retried.
//
// # Usage
//
// Wrap with context so the message stays readable while errors.Is keeps working:
//
//	return fmt.Errorf("loading owner key for %s: %w", ownerID, errors.ErrIdentityKeyMissing)
//
// Messages must never include key bytes, passphrases or decrypted content.
//
// In the CLI layer:
//
//	if errors.Is(err, kerrors.ErrBadPassphrase) {
//	    // Tell the user their password was wrong.
//	}
package errors
