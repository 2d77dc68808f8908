package workflows

import (
	"context"
	"fmt"
	"sort"

	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

// AccessOptions configures the access workflow.
type AccessOptions struct {
	// FileRef is the file id or original filename.
	FileRef string

	// Logger receives progress output.
	Logger logger.Logger
}

// UserAccess describes one user who can decrypt a file.
type UserAccess struct {
	Name string
	UUID string
}

// AccessResult lists who can decrypt a file.
type AccessResult struct {
	FileID    string
	FileName  string
	Algorithm string
	Owner     UserAccess

	// Recipients hold a shared envelope, sorted by name.
	Recipients []UserAccess
}

// Access reports the owner and the recipients of a file.
//
// Returns ErrFileNotFound if no file matches FileRef.
func Access(ctx context.Context, opts AccessOptions) (*AccessResult, error) {
	s, err := openSession(opts.Logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	fileID, record, err := s.config.ResolveFile(opts.FileRef)
	if err != nil {
		return nil, err
	}

	recipients, err := s.manager.Recipients(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", err)
	}

	result := &AccessResult{
		FileID:    fileID,
		FileName:  record.Name,
		Algorithm: record.Algorithm,
		Owner: UserAccess{
			Name: s.config.UserName(record.OwnerUUID),
			UUID: record.OwnerUUID,
		},
	}
	for _, id := range recipients {
		result.Recipients = append(result.Recipients, UserAccess{
			Name: s.config.UserName(id),
			UUID: id,
		})
	}
	sort.Slice(result.Recipients, func(i, j int) bool {
		return result.Recipients[i].Name < result.Recipients[j].Name
	})

	return result, nil
}
