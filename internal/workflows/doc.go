// Package workflows provides high-level orchestration for lockbox commands.
//
// Workflows coordinate multiple operations across packages (configs,
// envelope, blobs, audit) to implement complete user-facing features. Each
// workflow handles a single command's business logic, independent of CLI
// concerns like flag parsing, spinners, passphrase prompts and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Reads passphrases
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Loading configuration (user and workspace)
//   - Opening and closing the key store
//   - Deciding whether the current user may perform the operation
//   - Performing the core operation through the envelope manager
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Init: Initializes a new workspace and its key store
//   - CreateIdentity: Creates the current user's passphrase-protected keypair
//   - ChangePassphrase: Re-encrypts the private key under a new passphrase
//   - ShowIdentity: Reports the current user's identity
//   - Upload: Encrypts files, each under a fresh file key
//   - List: Lists files and whether the current user can decrypt them
//   - Grant: Shares a file with other users
//   - Revoke: Removes a user's access to a file
//   - Access: Lists who can decrypt a file
//   - Decrypt: Decrypts a file the current user owns or was granted
//   - Log, Stats: Read the audit log
//
// # Access Decisions
//
// Grant and Revoke require the current user to own the file, and Grant
// rejects recipients that are the owner or not workspace members. Decrypt
// opens the owner envelope for the owner and the shared envelope for
// everyone else.
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Decrypt(ctx, opts)
//	if errors.Is(err, kerrors.ErrBadPassphrase) {
//	    // Show a wrong password message
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// This enables cancellation, timeouts, and passing request-scoped values.
package workflows
