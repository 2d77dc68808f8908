package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/PolarWolf314/lockbox/internal/configs"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

// setupTestEnvironment moves into a fresh workspace directory with its own
// user config directory and restores the previous state when the test ends.
// The passphrase prompt is answered through LOCKBOX_PASSPHRASE.
func setupTestEnvironment(t *testing.T, passphrase string) string {
	t.Helper()

	tempDir := t.TempDir()
	tempUserDir := t.TempDir()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	originalUserSettings := configs.UserLockboxSettings
	originalWorkspaceSettings := configs.WorkspaceLockboxSettings
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		configs.UserLockboxSettings = originalUserSettings
		configs.WorkspaceLockboxSettings = originalWorkspaceSettings
		ResetGlobalState()
	})

	configs.UserLockboxSettings = &configs.UserSettings{
		UserConfigsPath: tempUserDir,
		Username:        "testuser",
	}
	configs.WorkspaceLockboxSettings = &configs.WorkspaceSettings{}
	t.Setenv(utils.PassphraseEnv, passphrase)
	t.Setenv("NO_COLOR", "1")

	return tempDir
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)
	collect := func(r io.Reader) {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outputChan <- buf.String()
	}
	go collect(stdoutReader)
	go collect(stderrReader)

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	stdout := <-outputChan
	stderr := <-outputChan

	return stdout + stderr, err
}

// runCLI executes the root command with args and returns everything it printed.
func runCLI(args ...string) (string, error) {
	ResetGlobalState()
	Logger = logger.Logger{}
	RootCmd.SetArgs(args)
	return captureOutput(func() error {
		return RootCmd.Execute()
	})
}
