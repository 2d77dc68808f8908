package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/configs"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

const auditTimestampFormat = "2006-01-02T15:04:05.000000Z"

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// User filters entries by user name.
	User string

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// File filters entries by file id or file name.
	File string

	// Since filters entries after this date (YYYY-MM-DD format).
	Since string

	// Until filters entries before this date (YYYY-MM-DD format).
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log.
//
// Returns ErrWorkspaceNotInitialized if there is no enclosing workspace.
// Returns ErrNoFilesFound if no audit log exists.
// Returns ErrInvalidDateFormat if the date format is invalid.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	entries, err := readAuditLog()
	if err != nil {
		return nil, err
	}

	result := &LogResult{
		TotalEntriesBeforeFilter: len(entries),
	}

	if len(entries) == 0 {
		result.Entries = entries
		return result, nil
	}

	// Apply filters.
	filtered := entries

	if opts.User != "" {
		filtered = filterByUser(filtered, opts.User)
	}

	if opts.Operations != "" {
		ops := strings.Split(opts.Operations, ",")
		for i := range ops {
			ops[i] = strings.TrimSpace(ops[i])
		}
		filtered = filterByOperations(filtered, ops)
	}

	if opts.File != "" {
		filtered = filterByFile(filtered, opts.File)
	}

	if opts.Since != "" {
		sinceTime, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		filtered = filterSince(filtered, sinceTime)
	}

	if opts.Until != "" {
		untilTime, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		// Include the entire day by setting to end of day.
		untilTime = untilTime.Add(24*time.Hour - time.Nanosecond)
		filtered = filterUntil(filtered, untilTime)
	}

	// Apply ordering.
	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// Apply limit.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			// When reversed, limit takes first N (most recent).
			filtered = filtered[:opts.Limit]
		} else {
			// When not reversed, limit takes last N (most recent).
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

// StatsOptions configures the stats workflow.
type StatsOptions struct {
	// User selects whose activity is summarized. Empty means the current user.
	User string
}

// StatsResult summarizes the audit log and the workspace's stored files.
type StatsResult struct {
	UserName string          `json:"user"`
	User     audit.UserStats `json:"activity"`

	// Timings compare average cipher time per algorithm across all users.
	Timings []audit.AlgorithmTiming `json:"timings"`

	// Sizes compare ciphertext overhead per algorithm across stored files.
	Sizes []audit.AlgorithmSize `json:"sizes"`
}

// Stats computes per-user activity and per-algorithm performance figures.
//
// Returns ErrWorkspaceNotInitialized if there is no enclosing workspace.
// Returns ErrUserNotFound if User is not a workspace member.
func Stats(ctx context.Context, opts StatsOptions) (*StatsResult, error) {
	entries, err := readAuditLog()
	if err != nil && !errors.Is(err, kerrors.ErrNoFilesFound) {
		return nil, err
	}

	workspaceConfig, err := configs.LoadWorkspaceConfig()
	if err != nil {
		return nil, err
	}

	var userUUID, userName string
	if opts.User != "" {
		id, ok := workspaceConfig.GetUserUUIDByName(opts.User)
		if !ok {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrUserNotFound, opts.User)
		}
		userUUID, userName = id, opts.User
	} else {
		userConfig, err := configs.EnsureUserConfig()
		if err != nil {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
		userUUID = userConfig.User.UUID
		userName = workspaceConfig.UserName(userUUID)
	}

	return &StatsResult{
		UserName: userName,
		User:     audit.Stats(entries, userUUID),
		Timings:  audit.CompareAlgorithms(entries),
		Sizes:    audit.CompareSizes(workspaceConfig.Files),
	}, nil
}

// readAuditLog loads every entry of the current workspace's audit log.
func readAuditLog() ([]audit.Entry, error) {
	if err := configs.InitWorkspaceSettings(); err != nil {
		return nil, fmt.Errorf("initializing workspace settings: %w", err)
	}

	if !configs.WorkspaceLockboxSettings.Initialized() {
		return nil, kerrors.ErrWorkspaceNotInitialized
	}

	if _, err := os.Stat(audit.LogPath()); os.IsNotExist(err) {
		return nil, kerrors.ErrNoFilesFound
	}

	entries, err := audit.ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	return entries, nil
}

// filterByUser filters entries by user name (case-insensitive).
func filterByUser(entries []audit.Entry, user string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if strings.EqualFold(e.User, user) {
			result = append(result, e)
		}
	}
	return result
}

// filterByOperations filters entries by operation types.
func filterByOperations(entries []audit.Entry, ops []string) []audit.Entry {
	opSet := make(map[string]bool)
	for _, op := range ops {
		opSet[strings.ToLower(op)] = true
	}

	var result []audit.Entry
	for _, e := range entries {
		if opSet[strings.ToLower(e.Operation)] {
			result = append(result, e)
		}
	}
	return result
}

// filterByFile filters entries by file id or file name.
func filterByFile(entries []audit.Entry, file string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if e.FileID == file || e.FileName == file {
			result = append(result, e)
		}
	}
	return result
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(auditTimestampFormat, ts)
	if err != nil {
		// Try alternate format.
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err
}

// filterSince filters entries to only include those at or after the given time.
func filterSince(entries []audit.Entry, since time.Time) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, err := parseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		if !t.Before(since) {
			result = append(result, e)
		}
	}
	return result
}

// filterUntil filters entries to only include those at or before the given time.
func filterUntil(entries []audit.Entry, until time.Time) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, err := parseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		if !t.After(until) {
			result = append(result, e)
		}
	}
	return result
}

// FormatDateTime formats a timestamp string to YYYY-MM-DD HH:MM:SS format.
func FormatDateTime(ts string) string {
	t, err := parseTimestamp(ts)
	if err != nil {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails formats the details for a log entry.
func FormatDetails(e audit.Entry) string {
	var details string
	switch e.Operation {
	case audit.OpUpload, audit.OpDecrypt:
		details = e.FileName
		if e.Algorithm != "" {
			details += fmt.Sprintf(" (%s, %s, %.6fs)", e.Algorithm, utils.FormatSize(e.DataSize), e.ExecutionTime)
		}
	case audit.OpGrant, audit.OpRevoke:
		details = fmt.Sprintf("%s -> %s", e.FileName, e.TargetUser)
	case audit.OpInit:
		details = e.WorkspaceName
	case audit.OpCreate:
		details = e.Fingerprint
	}

	if !e.Success && e.Error != "" {
		if details != "" {
			details += ": "
		}
		details += e.Error
	}
	return details
}
