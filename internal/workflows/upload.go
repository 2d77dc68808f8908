package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/blobs"
	"github.com/PolarWolf314/lockbox/internal/ciphers"
	"github.com/PolarWolf314/lockbox/internal/configs"
	"github.com/PolarWolf314/lockbox/internal/envelope"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/utils"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// uploadConcurrency bounds the number of files encrypted at once.
const uploadConcurrency = 4

// UploadOptions configures the upload workflow.
type UploadOptions struct {
	// Patterns are file paths or doublestar globs, relative to the working directory.
	Patterns []string

	// Data uploads a single in-memory file instead of Patterns when non-nil.
	Data []byte

	// DataName is the original filename recorded for Data.
	DataName string

	// Algorithm is the cipher name: AES, DES or RC4.
	Algorithm string

	// Logger receives progress output.
	Logger logger.Logger
}

// UploadedFile describes one stored file.
type UploadedFile struct {
	FileID     string
	Name       string
	Source     string
	Algorithm  string
	PlainSize  int64
	CipherSize int64
	Elapsed    time.Duration
}

// UploadResult contains the outcome of an upload operation.
type UploadResult struct {
	// Files lists the stored files in the order their sources were resolved.
	Files []UploadedFile
}

type uploadSource struct {
	path string
	name string
	data []byte
}

// Upload encrypts files with a fresh key each and records them in the workspace.
//
// Files are encrypted concurrently. Each upload is independent: when one
// fails, files already stored are still recorded and the first error is returned.
//
// Returns ErrUnknownAlgorithm if the algorithm is not supported.
// Returns ErrNoFilesFound if the patterns match nothing.
// Returns ErrIdentityKeyMissing if the current user has no keypair.
func Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	alg, err := ciphers.ParseAlgorithm(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	s, err := openSession(opts.Logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var sources []uploadSource
	if opts.Data != nil {
		name := opts.DataName
		if name == "" {
			name = "stdin"
		}
		sources = []uploadSource{{name: filepath.Base(name), data: opts.Data}}
	} else {
		paths, err := resolveUploadFiles(opts.Patterns)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			sources = append(sources, uploadSource{path: p, name: filepath.Base(p)})
		}
	}
	if len(sources) == 0 {
		return nil, kerrors.ErrNoFilesFound
	}

	ownerUUID := s.userUUID()
	if _, err := s.manager.Lookup(ctx, ownerUUID); err != nil {
		return nil, err
	}

	uploaded := make([]*UploadedFile, len(sources))
	records := make([]*configs.FileRecord, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			file, record, err := s.uploadOne(gctx, src, alg, ownerUUID)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", src.name, err)
			}
			uploaded[i] = file
			records[i] = record
			return nil
		})
	}
	groupErr := g.Wait()

	result := &UploadResult{}
	for i := range sources {
		if uploaded[i] == nil {
			continue
		}
		s.config.Files[uploaded[i].FileID] = *records[i]
		result.Files = append(result.Files, *uploaded[i])
	}

	if len(result.Files) > 0 {
		if err := configs.SaveWorkspaceConfig(s.config); err != nil {
			for _, record := range records {
				if record == nil {
					continue
				}
				if rmErr := s.blobs.Remove(record.Blob); rmErr != nil {
					s.log.WarnfAlways("Failed to remove orphaned blob %s: %v", record.Blob, rmErr)
				}
			}
			return nil, fmt.Errorf("saving workspace config: %w", err)
		}
	}

	return result, groupErr
}

// uploadOne encrypts a single source, writes its blob and builds its record.
func (s *session) uploadOne(ctx context.Context, src uploadSource, alg ciphers.Algorithm, ownerUUID string) (*UploadedFile, *configs.FileRecord, error) {
	auditEntry := s.auditEntry(audit.OpUpload)
	auditEntry.FileName = src.name
	auditEntry.Algorithm = string(alg)
	fail := func(err error) (*UploadedFile, *configs.FileRecord, error) {
		auditEntry.Error = err.Error()
		audit.Log(auditEntry)
		return nil, nil, err
	}

	data := src.data
	if data == nil {
		var err error
		data, err = os.ReadFile(src.path)
		if err != nil {
			return fail(fmt.Errorf("reading file: %w", err))
		}
	}

	res, err := s.manager.Upload(ctx, envelope.UploadRequest{
		OwnerID:   ownerUUID,
		Algorithm: alg,
		Plaintext: data,
	})
	if err != nil {
		return fail(err)
	}
	auditEntry.FileID = res.FileID

	handle := blobs.Handle(src.name)
	if err := s.blobs.Write(handle, res.Ciphertext); err != nil {
		return fail(err)
	}
	s.log.Debugf("Wrote blob %s for file %s", handle, res.FileID)

	record := &configs.FileRecord{
		OwnerUUID:      ownerUUID,
		Name:           src.name,
		Blob:           handle,
		Algorithm:      string(res.Algorithm),
		Mode:           res.Mode,
		IV:             res.IVHex,
		Salt:           res.SaltHex,
		PlainSize:      int64(res.PlainSize),
		CipherSize:     int64(len(res.Ciphertext)),
		EncryptSeconds: audit.Seconds(res.Elapsed),
		UploadedAt:     time.Now().UTC(),
	}

	auditEntry.Success = true
	auditEntry.DataSize = record.PlainSize
	auditEntry.ExecutionTime = record.EncryptSeconds
	audit.Log(auditEntry)

	return &UploadedFile{
		FileID:     res.FileID,
		Name:       src.name,
		Source:     src.path,
		Algorithm:  record.Algorithm,
		PlainSize:  record.PlainSize,
		CipherSize: record.CipherSize,
		Elapsed:    res.Elapsed,
	}, record, nil
}

// resolveUploadFiles expands globs and checks plain paths exist.
// Directories are skipped and duplicates removed.
func resolveUploadFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(p string) error {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, p)
			}
			return err
		}
		clean := filepath.Clean(p)
		if info.IsDir() || inWorkspaceDir(clean) {
			return nil
		}
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
		return nil
	}

	for _, pattern := range patterns {
		if !isGlob(pattern) {
			if err := add(pattern); err != nil {
				return nil, err
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if err := add(m); err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

// inWorkspaceDir reports whether p lies inside a .lockbox directory.
func inWorkspaceDir(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == utils.WorkspaceDirName {
			return true
		}
	}
	return false
}

func isGlob(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
