package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/envelope"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

// GrantOptions configures the grant workflow.
type GrantOptions struct {
	// FileRef is the file id or original filename.
	FileRef string

	// Users are the workspace user names (or UUIDs) to grant access to.
	Users []string

	// Passphrase unlocks the owner's private key.
	Passphrase []byte

	// Logger receives progress output.
	Logger logger.Logger
}

// GrantedUser describes one recipient of a grant.
type GrantedUser struct {
	Name string
	UUID string

	// Replaced is true when the user already had access and their envelope was rewrapped.
	Replaced bool
}

// GrantResult contains the outcome of a grant operation.
type GrantResult struct {
	FileID   string
	FileName string

	// Granted lists recipients in the order given. On failure it holds the
	// grants that completed before the error.
	Granted []GrantedUser
}

// Grant lets other workspace users decrypt a file the current user owns.
//
// The owner's private key is unlocked once and the file key is rewrapped for
// each recipient's public key. Granting to a user who already has access
// replaces their envelope.
//
// Returns ErrNotOwner if the current user does not own the file.
// Returns ErrUserNotFound if a recipient is not a workspace member.
// Returns ErrSelfGrant if a recipient is the current user.
// Returns ErrIdentityKeyMissing if a recipient has not created their keypair.
// Returns ErrBadPassphrase if the passphrase does not unlock the owner's key.
func Grant(ctx context.Context, opts GrantOptions) (*GrantResult, error) {
	if len(opts.Users) == 0 {
		return nil, fmt.Errorf("%w: no recipients given", kerrors.ErrUserNotFound)
	}

	s, err := openSession(opts.Logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	fileID, record, err := s.ownedFile(opts.FileRef)
	if err != nil {
		return nil, err
	}

	var recipientIDs []string
	names := make(map[string]string)
	for _, ref := range opts.Users {
		id, name, err := s.resolveUser(ref)
		if err != nil {
			return nil, err
		}
		if id == s.userUUID() {
			return nil, kerrors.ErrSelfGrant
		}
		if _, dup := names[id]; dup {
			continue
		}
		names[id] = name
		recipientIDs = append(recipientIDs, id)
	}

	results, grantErr := s.manager.GrantMany(ctx, envelope.GrantManyRequest{
		FileID:       fileID,
		OwnerID:      s.userUUID(),
		Passphrase:   opts.Passphrase,
		RecipientIDs: recipientIDs,
	})

	result := &GrantResult{FileID: fileID, FileName: record.Name}
	for _, r := range results {
		result.Granted = append(result.Granted, GrantedUser{
			Name:     names[r.RecipientID],
			UUID:     r.RecipientID,
			Replaced: r.Replaced,
		})

		auditEntry := s.auditEntry(audit.OpGrant)
		auditEntry.FileID = fileID
		auditEntry.FileName = record.Name
		auditEntry.TargetUser = names[r.RecipientID]
		auditEntry.TargetUUID = r.RecipientID
		auditEntry.Success = true
		audit.Log(auditEntry)
	}

	if grantErr != nil {
		auditEntry := s.auditEntry(audit.OpGrant)
		auditEntry.FileID = fileID
		auditEntry.FileName = record.Name
		if failed := len(results); failed < len(recipientIDs) {
			auditEntry.TargetUser = names[recipientIDs[failed]]
			auditEntry.TargetUUID = recipientIDs[failed]
		}
		auditEntry.Error = grantErr.Error()
		audit.Log(auditEntry)
		return result, grantErr
	}

	return result, nil
}
