package workflows

import (
	"context"

	"github.com/PolarWolf314/lockbox/internal/audit"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

// RevokeOptions configures the revoke workflow.
type RevokeOptions struct {
	// FileRef is the file id or original filename.
	FileRef string

	// User is the workspace user name (or UUID) losing access.
	User string

	// Logger receives progress output.
	Logger logger.Logger
}

// RevokeResult contains the outcome of a revoke operation.
type RevokeResult struct {
	FileID   string
	FileName string
	UserName string
	UserUUID string
}

// Revoke removes a user's shared envelope for a file the current user owns.
//
// The file key is not rotated: a user who decrypted the file before
// revocation keeps what they decrypted.
//
// Returns ErrNotOwner if the current user does not own the file.
// Returns ErrUserNotFound if the user is not a workspace member.
// Returns ErrEnvelopeMissing if the user had no access to the file.
func Revoke(ctx context.Context, opts RevokeOptions) (*RevokeResult, error) {
	s, err := openSession(opts.Logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	fileID, record, err := s.ownedFile(opts.FileRef)
	if err != nil {
		return nil, err
	}

	userUUID, userName, err := s.resolveUser(opts.User)
	if err != nil {
		return nil, err
	}

	auditEntry := s.auditEntry(audit.OpRevoke)
	auditEntry.FileID = fileID
	auditEntry.FileName = record.Name
	auditEntry.TargetUser = userName
	auditEntry.TargetUUID = userUUID

	if err := s.manager.Revoke(ctx, fileID, userUUID); err != nil {
		auditEntry.Error = err.Error()
		audit.Log(auditEntry)
		return nil, err
	}

	auditEntry.Success = true
	audit.Log(auditEntry)

	return &RevokeResult{
		FileID:   fileID,
		FileName: record.Name,
		UserName: userName,
		UserUUID: userUUID,
	}, nil
}
