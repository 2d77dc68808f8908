// Package utils provides shared utility functions for lockbox.
//
// # Filesystem Utilities
//
//   - FindWorkspaceRoot: walks up directories to find .lockbox
//   - GetWorkspaceName: returns the workspace directory's name
//
// # System Utilities
//
//   - GetUsername, GetHostname: identify the local account
//   - SanitizeName, GenerateUserName, UniqueName: derive workspace user names
//
// # String Utilities
//
//   - FormatPaths: formats file paths for human-readable output
//   - FormatSize: renders byte counts
//   - IsValidUserName: validates workspace user names
//
// # I/O and Terminal Utilities
//
//   - ReadStdin: reads file contents piped to a command
//   - ResolvePassphrase, ResolveNewPassphrase: read a passphrase from
//     LOCKBOX_PASSPHRASE or the terminal without echo
package utils
