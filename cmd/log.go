package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PolarWolf314/lockbox/internal/audit"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/utils"
	"github.com/PolarWolf314/lockbox/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logReverse   bool
	logUser      string
	logOperation string
	logFile      string
	logSince     string
	logUntil     string
	logJSON      bool
	logStats     bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logUser, "user", "", "filter by user name")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().StringVar(&logFile, "file", "", "filter by file id or name")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
	logCmd.Flags().BoolVar(&logStats, "stats", false, "summarize activity and compare algorithms")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logUser = ""
	logOperation = ""
	logFile = ""
	logSince = ""
	logUntil = ""
	logJSON = false
	logStats = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log of lockbox operations.

Shows who performed what operation on which file and how long the cipher
took. Use filters to narrow down the results, or --stats for a summary of
your activity and a comparison of the algorithms.

Examples:
  lockbox log                              # View full log
  lockbox log -n 10                        # Last 10 entries
  lockbox log --reverse                    # Most recent first
  lockbox log --user alice                 # Filter by user
  lockbox log --operation upload,decrypt   # Filter by operation
  lockbox log --file report.pdf            # Filter by file
  lockbox log --since 2024-01-01           # Filter by date
  lockbox log --stats                      # Activity and algorithm summary
  lockbox log --json                       # JSON output`,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	if logStats {
		return runStats()
	}

	spinner, cleanup := startSpinner("Loading audit log...")
	defer cleanup()

	opts := workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		User:       logUser,
		Operations: logOperation,
		File:       logFile,
		Since:      logSince,
		Until:      logUntil,
	}

	result, err := workflows.Log(context.Background(), opts)
	if err != nil {
		spinner.FinalMSG = formatLogError(err)
		if isLogUnexpectedError(err) {
			return errSilent
		}
		return nil
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	if len(result.Entries) == 0 {
		if result.TotalEntriesBeforeFilter == 0 {
			spinner.FinalMSG = "No audit log entries found."
		} else {
			spinner.FinalMSG = "No audit log entries found matching the filters."
		}
		return nil
	}

	if logJSON {
		out, err := outputLogJSON(result.Entries)
		if err != nil {
			return err
		}
		spinner.FinalMSG = out
		return nil
	}

	spinner.FinalMSG = outputLogDefault(result.Entries)
	return nil
}

func runStats() error {
	spinner, cleanup := startSpinner("Computing statistics...")
	defer cleanup()

	result, err := workflows.Stats(context.Background(), workflows.StatsOptions{User: logUser})
	if err != nil {
		spinner.FinalMSG = formatLogError(err)
		if isLogUnexpectedError(err) {
			return errSilent
		}
		return nil
	}

	if logJSON {
		out, err := outputLogJSON(result)
		if err != nil {
			return err
		}
		spinner.FinalMSG = out
		return nil
	}

	out, err := outputStats(result)
	if err != nil {
		return err
	}
	spinner.FinalMSG = out
	return nil
}

// formatLogError formats a log error for display to the user.
func formatLogError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Info.Sprint("ℹ") + " No audit log found. Operations will be logged after running any lockbox command."

	case errors.Is(err, kerrors.ErrWorkspaceNotInitialized),
		errors.Is(err, kerrors.ErrInvalidDateFormat),
		errors.Is(err, kerrors.ErrUserNotFound):
		return formatError(err)

	default:
		return ui.Error.Sprint("✗") + " Failed to read audit log: " + err.Error()
	}
}

// isLogUnexpectedError returns true if the error is unexpected and should cause a non-zero exit.
func isLogUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrWorkspaceNotInitialized),
		errors.Is(err, kerrors.ErrNoFilesFound),
		errors.Is(err, kerrors.ErrInvalidDateFormat):
		return false
	default:
		return true
	}
}

func outputLogJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	return string(data), nil
}

func outputLogDefault(entries []audit.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		datetime := workflows.FormatDateTime(e.Timestamp)
		details := workflows.FormatDetails(e)
		status := ""
		if !e.Success {
			status = ui.Error.Sprint(" ✗")
		}
		fmt.Fprintf(&b, "%-19s  %-20s  %-8s  %s%s\n", datetime, e.User, e.Operation, details, status)
	}
	return b.String()
}

func outputStats(result *workflows.StatsResult) (string, error) {
	var b strings.Builder

	u := result.User
	fmt.Fprintf(&b, "%s %s\n", ui.Info.Sprint("Activity for"), ui.Highlight.Sprint(result.UserName))
	fmt.Fprintf(&b, "  Uploads:   %d (%s encrypted)\n", u.Uploads, utils.FormatSize(u.BytesEncrypted))
	fmt.Fprintf(&b, "  Decrypts:  %d (%s decrypted)\n", u.Decrypts, utils.FormatSize(u.BytesDecrypted))
	fmt.Fprintf(&b, "  Grants:    %d\n", u.Grants)
	fmt.Fprintf(&b, "  Revokes:   %d\n", u.Revokes)
	fmt.Fprintf(&b, "  Failures:  %d\n\n", u.Failures)

	b.WriteString(ui.Info.Sprint("Cipher time per operation") + "\n")
	timingRows := make([][]string, 0, len(result.Timings))
	for _, t := range result.Timings {
		timingRows = append(timingRows, []string{
			t.Algorithm,
			fmt.Sprintf("%d", t.EncryptCount),
			fmt.Sprintf("%.6fs", t.AvgEncryptSeconds),
			fmt.Sprintf("%d", t.DecryptCount),
			fmt.Sprintf("%.6fs", t.AvgDecryptSeconds),
		})
	}
	if err := ui.Table(&b, []string{"algorithm", "encrypts", "avg encrypt", "decrypts", "avg decrypt"}, timingRows); err != nil {
		return "", err
	}

	b.WriteString("\n" + ui.Info.Sprint("Ciphertext size per file") + "\n")
	sizeRows := make([][]string, 0, len(result.Sizes))
	for _, s := range result.Sizes {
		sizeRows = append(sizeRows, []string{
			s.Algorithm,
			fmt.Sprintf("%d", s.Count),
			utils.FormatSize(int64(s.AvgPlainSize)),
			utils.FormatSize(int64(s.AvgCipherSize)),
			fmt.Sprintf("%.1f%%", s.OverheadPercent),
		})
	}
	if err := ui.Table(&b, []string{"algorithm", "files", "avg plain", "avg cipher", "overhead"}, sizeRows); err != nil {
		return "", err
	}

	return b.String(), nil
}
