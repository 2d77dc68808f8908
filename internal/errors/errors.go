package errors

import "errors"

// Key custody errors indicate problems with an identity's keypair.
var (
	// ErrBadPassphrase indicates a private key could not be unlocked with the supplied passphrase.
	ErrBadPassphrase = errors.New("incorrect password: unable to unlock private key")

	// ErrIdentityKeyMissing indicates no keypair has been provisioned for an identity.
	ErrIdentityKeyMissing = errors.New("identity keys not provisioned")

	// ErrIdentityExists indicates an identity already has a keypair.
	ErrIdentityExists = errors.New("identity keys already exist")

	// ErrInvalidPrivateKey indicates the private key is malformed or unsupported.
	ErrInvalidPrivateKey = errors.New("invalid or unsupported private key format")

	// ErrInvalidPublicKey indicates the public key is malformed or unsupported.
	ErrInvalidPublicKey = errors.New("invalid or unsupported public key format")
)

// Envelope errors indicate failures wrapping, unwrapping or locating file keys.
var (
	// ErrEnvelopeMissing indicates no wrapped file key is recorded for a file and identity.
	ErrEnvelopeMissing = errors.New("no key envelope recorded for this file")

	// ErrUnwrapFailure indicates a wrapped key could not be opened.
	// The cause is deliberately not reported.
	ErrUnwrapFailure = errors.New("failed to unwrap file key")

	// ErrPayloadTooLarge indicates the payload does not fit in one RSA-OAEP block.
	ErrPayloadTooLarge = errors.New("payload too large to wrap")

	// ErrSelfGrant indicates an owner attempted to grant access to themselves.
	ErrSelfGrant = errors.New("cannot grant access to yourself")
)

// Cipher errors indicate failures in the symmetric cipher suite.
var (
	// ErrInvalidKey indicates the symmetric key has the wrong length for the algorithm.
	ErrInvalidKey = errors.New("invalid symmetric key")

	// ErrUnknownAlgorithm indicates an unsupported cipher name.
	ErrUnknownAlgorithm = errors.New("unknown encryption algorithm")

	// ErrEncryptFailed indicates file encryption failed.
	ErrEncryptFailed = errors.New("failed to encrypt file")

	// ErrDecryptFailed indicates file decryption failed.
	ErrDecryptFailed = errors.New("failed to decrypt file")
)

// Workspace errors indicate issues with workspace state or records.
var (
	// ErrWorkspaceNotInitialized indicates no .lockbox directory was found.
	ErrWorkspaceNotInitialized = errors.New("workspace has not been initialized")

	// ErrWorkspaceAlreadyInitialized indicates the workspace has already been set up.
	ErrWorkspaceAlreadyInitialized = errors.New("workspace has already been initialized")

	// ErrInvalidConfig indicates the configuration is malformed.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrFileNotFound indicates a file record or blob could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrInvalidDateFormat indicates a date filter is not in YYYY-MM-DD format.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Access errors indicate the caller is not entitled to the operation.
var (
	// ErrNotOwner indicates the caller does not own the file.
	ErrNotOwner = errors.New("only the file owner can do this")

	// ErrUserNotFound indicates the specified user is not known to the workspace.
	ErrUserNotFound = errors.New("user not found")
)
