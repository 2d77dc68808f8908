package utils

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"
)

// PassphraseEnv names the environment variable that supplies the passphrase non-interactively.
const PassphraseEnv = "LOCKBOX_PASSPHRASE"

// ReadPassphrase prompts the user for a passphrase without echoing input.
// Returns an error if stdin is not a terminal.
func ReadPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("cannot read passphrase: stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	return passphrase, nil
}

// ReadPassphraseFromTTY prompts the user for a passphrase from /dev/tty (or CON on Windows).
// This is useful when stdin is being used for other input (e.g., piping file contents).
func ReadPassphraseFromTTY(prompt string) ([]byte, error) {
	ttyPath := "/dev/tty"
	if runtime.GOOS == "windows" {
		ttyPath = "CON"
	}

	tty, err := os.Open(ttyPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s for passphrase input: %w", ttyPath, err)
	}
	defer tty.Close()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not a terminal", ttyPath)
	}

	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	return passphrase, nil
}

// ResolvePassphrase returns the passphrase from LOCKBOX_PASSPHRASE if set,
// otherwise prompts on stdin, falling back to the TTY when stdin is piped.
func ResolvePassphrase(prompt string) ([]byte, error) {
	if v, ok := os.LookupEnv(PassphraseEnv); ok {
		return []byte(v), nil
	}
	if IsTerminal() {
		return ReadPassphrase(prompt)
	}
	return ReadPassphraseFromTTY(prompt)
}

// ResolveNewPassphrase is ResolvePassphrase for a passphrase being set.
// Interactive input is asked for twice and must match.
func ResolveNewPassphrase(prompt string) ([]byte, error) {
	if v, ok := os.LookupEnv(PassphraseEnv); ok {
		return []byte(v), nil
	}

	first, err := ResolvePassphrase(prompt)
	if err != nil {
		return nil, err
	}
	second, err := ResolvePassphrase("Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	defer wipe(second)

	if !bytes.Equal(first, second) {
		wipe(first)
		return nil, fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTerminal returns true if stdout is a terminal.
func IsStdoutTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
