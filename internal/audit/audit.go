package audit

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/PolarWolf314/lockbox/internal/configs"
)

// Operation names recorded in the log.
const (
	OpInit    = "init"
	OpCreate  = "create"
	OpPasswd  = "passwd"
	OpUpload  = "upload"
	OpGrant   = "grant"
	OpRevoke  = "revoke"
	OpDecrypt = "decrypt"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Name of user performing action.
	UserUUID  string `json:"uuid"` // UUID of user performing action.
	Operation string `json:"op"`   // Operation name.
	Success   bool   `json:"success"`

	// Optional fields depending on operation.
	FileID        string  `json:"file_id,omitempty"`        // For upload/grant/revoke/decrypt.
	FileName      string  `json:"file_name,omitempty"`      // For upload/grant/revoke/decrypt.
	Algorithm     string  `json:"algorithm,omitempty"`      // For upload/decrypt.
	DataSize      int64   `json:"data_size,omitempty"`      // Plaintext bytes, for upload/decrypt.
	ExecutionTime float64 `json:"execution_time,omitempty"` // Cipher seconds, for upload/decrypt.
	TargetUser    string  `json:"target_user,omitempty"`    // For grant/revoke.
	TargetUUID    string  `json:"target_uuid,omitempty"`    // For grant/revoke.
	Error         string  `json:"error,omitempty"`          // For failed operations.
	WorkspaceName string  `json:"workspace_name,omitempty"` // For init.
	WorkspaceUUID string  `json:"workspace_uuid,omitempty"` // For init.
	Fingerprint   string  `json:"fingerprint,omitempty"`    // For create.
}

// mu serializes appends from concurrent uploads within one process.
var mu sync.Mutex

// Log appends an entry to the audit log.
// If logging fails, it does not return an error.
// Operations should not fail just because audit logging failed.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if logPath == "" {
		// Workspace not initialized, skip logging.
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	// #nosec G302 -- audit log should be readable by workspace members.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// Seconds converts a duration to the fractional seconds stored in ExecutionTime.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// LogPath returns the path to the audit log file.
// Returns empty string if the workspace is not initialized.
func LogPath() string {
	if !configs.WorkspaceLockboxSettings.Initialized() {
		return ""
	}
	return configs.WorkspaceLockboxSettings.AuditLogPath
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
