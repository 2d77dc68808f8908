package workflows

import (
	"context"
	"fmt"
	"time"

	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

// ListOptions configures the list workflow.
type ListOptions struct {
	// Accessible limits the listing to files the current user can decrypt.
	Accessible bool

	// Logger receives progress output.
	Logger logger.Logger
}

// FileInfo describes one file in the workspace.
type FileInfo struct {
	FileID     string
	Name       string
	Owner      string
	Algorithm  string
	PlainSize  int64
	CipherSize int64
	UploadedAt time.Time

	// Owned is true when the current user uploaded the file.
	Owned bool

	// Shared is true when the file has been shared with the current user.
	Shared bool
}

// CanDecrypt reports whether the current user holds an envelope for the file.
func (f FileInfo) CanDecrypt() bool {
	return f.Owned || f.Shared
}

// ListResult contains the outcome of a list operation.
type ListResult struct {
	WorkspaceName string

	// Files are sorted by upload time, oldest first.
	Files []FileInfo
}

// List reports the workspace's files and whether the current user can decrypt each.
//
// Returns ErrWorkspaceNotInitialized if there is no enclosing workspace.
func List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	s, err := openSession(opts.Logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	userUUID := s.userUUID()
	result := &ListResult{WorkspaceName: s.config.Workspace.Name}

	for _, fileID := range s.config.FileIDs() {
		record := s.config.Files[fileID]
		info := FileInfo{
			FileID:     fileID,
			Name:       record.Name,
			Owner:      s.config.UserName(record.OwnerUUID),
			Algorithm:  record.Algorithm,
			PlainSize:  record.PlainSize,
			CipherSize: record.CipherSize,
			UploadedAt: record.UploadedAt,
			Owned:      record.OwnerUUID == userUUID,
		}
		if !info.Owned {
			shared, err := s.manager.HasAccess(ctx, fileID, userUUID)
			if err != nil {
				return nil, fmt.Errorf("checking access to %s: %w", fileID, err)
			}
			info.Shared = shared
		}

		if opts.Accessible && !info.CanDecrypt() {
			continue
		}
		result.Files = append(result.Files, info)
	}

	return result, nil
}
