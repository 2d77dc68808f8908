package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/utils"

	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// readPassphrase reads the passphrase for the current user's private key.
// It must be called before the spinner starts.
func readPassphrase() ([]byte, error) {
	passphrase, err := utils.ResolvePassphrase("Enter passphrase: ")
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Read passphrase (%d bytes)", len(passphrase))
	return passphrase, nil
}

// readNewPassphrase reads and confirms a passphrase being set.
func readNewPassphrase(prompt string) ([]byte, error) {
	passphrase, err := utils.ResolveNewPassphrase(prompt)
	if err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, kerrors.ErrBadPassphrase
	}
	return passphrase, nil
}

// wipe zeroes a passphrase once a command is done with it.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// formatError turns a workflow error into the message shown to the user.
func formatError(err error) string {
	fail := ui.Error.Sprint("✗") + " "
	hint := "\n" + ui.Info.Sprint("→") + " "

	switch {
	case errors.Is(err, kerrors.ErrWorkspaceNotInitialized):
		return fail + "lockbox has not been initialized" +
			hint + "Run " + ui.Code.Sprint("lockbox init") + " first"

	case errors.Is(err, kerrors.ErrWorkspaceAlreadyInitialized):
		return fail + "lockbox has already been initialized in this directory"

	case errors.Is(err, kerrors.ErrBadPassphrase):
		return fail + "Wrong password" +
			hint + "The passphrase did not unlock your private key"

	case errors.Is(err, kerrors.ErrIdentityKeyMissing):
		return fail + "No keypair found" +
			hint + "Every user needs to run " + ui.Code.Sprint("lockbox identity create") + " before uploading or receiving files"

	case errors.Is(err, kerrors.ErrIdentityExists):
		return fail + "You already have a keypair" +
			hint + "Use " + ui.Flag.Sprint("--force") + " to replace it. Files shared with you will need to be shared again"

	case errors.Is(err, kerrors.ErrEnvelopeMissing):
		return fail + "You do not have access to this file" +
			hint + "Ask the owner to run " + ui.Code.Sprint("lockbox files grant")

	case errors.Is(err, kerrors.ErrUnwrapFailure):
		return fail + "Your key could not open this file" +
			hint + "Your keypair has changed since access was granted; ask the owner to grant it again"

	case errors.Is(err, kerrors.ErrNotOwner),
		errors.Is(err, kerrors.ErrSelfGrant),
		errors.Is(err, kerrors.ErrUserNotFound),
		errors.Is(err, kerrors.ErrFileNotFound),
		errors.Is(err, kerrors.ErrUnknownAlgorithm),
		errors.Is(err, kerrors.ErrInvalidDateFormat),
		errors.Is(err, kerrors.ErrInvalidConfig):
		return fail + err.Error()

	case errors.Is(err, kerrors.ErrNoFilesFound):
		return fail + "No matching files found"

	case errors.Is(err, os.ErrExist):
		return fail + err.Error()

	default:
		return fail + "Failed: " + err.Error()
	}
}

// isUnexpectedError returns true if the error should cause a non-zero exit
// in addition to the formatted message.
func isUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrWorkspaceNotInitialized),
		errors.Is(err, kerrors.ErrWorkspaceAlreadyInitialized),
		errors.Is(err, kerrors.ErrIdentityExists),
		errors.Is(err, kerrors.ErrNoFilesFound):
		return false
	default:
		return true
	}
}

// finishWithError sets the spinner's final message for err and returns the
// error the command should exit with.
func finishWithError(s *spinner.Spinner, err error) error {
	Logger.Debugf("Command failed: %v", err)
	s.FinalMSG = formatError(err)
	if isUnexpectedError(err) {
		return errSilent
	}
	return nil
}

// errSilent makes the command exit non-zero after its message was already printed.
var errSilent = errors.New("")
