package workflows

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/ciphers"
	"github.com/PolarWolf314/lockbox/internal/envelope"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

// StdoutOutput as DecryptOptions.Output returns the plaintext instead of writing a file.
const StdoutOutput = "-"

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// FileRef is the file id or original filename.
	FileRef string

	// Passphrase unlocks the current user's private key.
	Passphrase []byte

	// Output is the destination path. Empty writes the original filename
	// into the working directory; StdoutOutput returns the plaintext in the result.
	Output string

	// Force overwrites an existing output file.
	Force bool

	// Logger receives progress output.
	Logger logger.Logger
}

// DecryptResult contains the outcome of a decrypt operation.
type DecryptResult struct {
	FileID   string
	FileName string

	// Role is the envelope that was opened.
	Role envelope.Role

	// OutputPath is where the plaintext was written. Empty for StdoutOutput.
	OutputPath string

	// Plaintext is only set for StdoutOutput.
	Plaintext []byte

	Size    int64
	Elapsed time.Duration
}

// Decrypt opens the current user's envelope for a file and decrypts its blob.
//
// Owners open the owner envelope; everyone else opens their shared envelope.
//
// Returns ErrFileNotFound if no file matches FileRef or its blob is missing.
// Returns ErrEnvelopeMissing if the user has not been granted access.
// Returns ErrBadPassphrase if the passphrase does not unlock the user's key.
// Returns ErrUnwrapFailure if the envelope was wrapped for a replaced keypair.
func Decrypt(ctx context.Context, opts DecryptOptions) (*DecryptResult, error) {
	s, err := openSession(opts.Logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	fileID, record, err := s.config.ResolveFile(opts.FileRef)
	if err != nil {
		return nil, err
	}

	outputPath := ""
	if opts.Output != StdoutOutput {
		outputPath = opts.Output
		if outputPath == "" {
			outputPath = filepath.Base(record.Name)
		}
		if _, err := os.Stat(outputPath); err == nil && !opts.Force {
			return nil, fmt.Errorf("%s already exists (use --force to overwrite): %w", outputPath, os.ErrExist)
		}
	}

	role := envelope.RoleDelegate
	if record.OwnerUUID == s.userUUID() {
		role = envelope.RoleOwner
	}

	alg, err := ciphers.ParseAlgorithm(record.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: file %s", err, fileID)
	}

	var iv []byte
	if record.IV != "" {
		iv, err = hex.DecodeString(record.IV)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed iv for file %s", kerrors.ErrInvalidConfig, fileID)
		}
	}

	auditEntry := s.auditEntry(audit.OpDecrypt)
	auditEntry.FileID = fileID
	auditEntry.FileName = record.Name
	auditEntry.Algorithm = record.Algorithm
	fail := func(err error) (*DecryptResult, error) {
		auditEntry.Error = err.Error()
		audit.Log(auditEntry)
		return nil, err
	}

	if !s.blobs.Exists(record.Blob) {
		return fail(fmt.Errorf("%w: stored data for %s", kerrors.ErrFileNotFound, record.Name))
	}
	ciphertext, err := s.blobs.Read(record.Blob)
	if err != nil {
		return fail(err)
	}

	res, err := s.manager.Decrypt(ctx, envelope.DecryptRequest{
		FileID:      fileID,
		RequesterID: s.userUUID(),
		Passphrase:  opts.Passphrase,
		Role:        role,
		Algorithm:   alg,
		Ciphertext:  ciphertext,
		IV:          iv,
	})
	if err != nil {
		return fail(err)
	}

	result := &DecryptResult{
		FileID:     fileID,
		FileName:   record.Name,
		Role:       role,
		OutputPath: outputPath,
		Size:       int64(len(res.Plaintext)),
		Elapsed:    res.Elapsed,
	}

	if outputPath == "" {
		result.Plaintext = res.Plaintext
	} else {
		// #nosec G306 -- decrypted output is readable by the owner only.
		if err := os.WriteFile(outputPath, res.Plaintext, 0600); err != nil {
			return fail(fmt.Errorf("writing %s: %w", outputPath, err))
		}
		s.log.Debugf("Wrote %d bytes to %s", result.Size, outputPath)
	}

	auditEntry.Success = true
	auditEntry.DataSize = result.Size
	auditEntry.ExecutionTime = audit.Seconds(res.Elapsed)
	audit.Log(auditEntry)

	return result, nil
}
