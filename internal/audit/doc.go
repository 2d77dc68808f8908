// Package audit provides the audit trail and performance log for lockbox.
//
// Every significant operation (upload, grant, revoke, decrypt, etc.) is
// recorded in a workspace-level audit log. Upload and decrypt entries also
// carry the algorithm, data size and cipher execution time, which feed the
// algorithm comparison shown by "lockbox log --stats".
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	.lockbox/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - User name and UUID
//   - Operation name and whether it succeeded
//   - Operation-specific details (file, algorithm, timing, target user)
//
// Entries never contain key material, passphrases or file contents.
//
// # Usage
//
//	entry := audit.Entry{User: name, UserUUID: userUUID, Operation: audit.OpUpload}
//	entry.FileID = result.FileID
//	entry.ExecutionTime = audit.Seconds(result.Elapsed)
//	entry.Success = true
//	audit.Log(entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
package audit
