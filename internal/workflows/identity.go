package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/configs"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

// CreateIdentityOptions configures the identity create workflow.
type CreateIdentityOptions struct {
	// Passphrase protects the new private key. Must not be empty.
	Passphrase []byte

	// UserName registers the user under this name if they are not yet a
	// workspace member. Ignored for existing members.
	UserName string

	// Force replaces an existing keypair. Every envelope wrapped for the
	// old key becomes unreadable.
	Force bool

	// Logger receives progress output.
	Logger logger.Logger
}

// CreateIdentityResult contains the outcome of an identity create operation.
type CreateIdentityResult struct {
	// UserName is the user's name in the workspace.
	UserName string

	// UserUUID is the identity id the keypair is stored under.
	UserUUID string

	// Fingerprint is the SHA256 fingerprint of the new public key.
	Fingerprint string

	// Replaced is true when an existing keypair was overwritten.
	Replaced bool

	// Registered is true when the user was added to the workspace.
	Registered bool
}

// CreateIdentity generates and stores a passphrase-protected keypair for the
// current user, registering them with the workspace if needed.
//
// Returns ErrWorkspaceNotInitialized if there is no enclosing workspace.
// Returns ErrIdentityExists if the user already has a keypair and Force is false.
// Returns ErrBadPassphrase if the passphrase is empty.
func CreateIdentity(ctx context.Context, opts CreateIdentityOptions) (*CreateIdentityResult, error) {
	s, err := openSession(opts.Logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	userUUID := s.userUUID()
	result := &CreateIdentityResult{UserUUID: userUUID}

	_, err = s.manager.Lookup(ctx, userUUID)
	switch {
	case err == nil && !opts.Force:
		return nil, kerrors.ErrIdentityExists
	case err == nil:
		result.Replaced = true
	case !errors.Is(err, kerrors.ErrIdentityKeyMissing):
		return nil, fmt.Errorf("checking existing identity: %w", err)
	}

	userName, registered, err := s.registerUser(opts.UserName)
	if err != nil {
		return nil, err
	}
	result.UserName = userName
	result.Registered = registered

	auditEntry := s.auditEntry(audit.OpCreate)
	identity, err := s.manager.Provision(ctx, userUUID, opts.Passphrase)
	if err != nil {
		auditEntry.Error = err.Error()
		audit.Log(auditEntry)
		return nil, err
	}
	result.Fingerprint = identity.Fingerprint

	if registered {
		if err := configs.SaveWorkspaceConfig(s.config); err != nil {
			return nil, fmt.Errorf("saving workspace config: %w", err)
		}
	}

	auditEntry.User = userName
	auditEntry.Success = true
	auditEntry.Fingerprint = identity.Fingerprint
	audit.Log(auditEntry)

	return result, nil
}

// registerUser adds the current user to the in-memory workspace config if
// they are not already a member. The caller saves the config.
func (s *session) registerUser(requested string) (string, bool, error) {
	userUUID := s.userUUID()
	if name, ok := s.config.Users[userUUID]; ok {
		return name, false, nil
	}

	name := requested
	if name == "" {
		name = s.user.User.Name
	}
	existing := s.config.UserNames()
	if name == "" {
		name = utils.GenerateUserName(existing)
	} else if requested == "" {
		name = utils.UniqueName(name, existing)
	} else if _, taken := s.config.GetUserUUIDByName(name); taken {
		return "", false, fmt.Errorf("%w: user name %q is already taken", kerrors.ErrInvalidConfig, name)
	}
	if !utils.IsValidUserName(name) {
		return "", false, fmt.Errorf("%w: invalid user name %q", kerrors.ErrInvalidConfig, name)
	}

	s.config.Users[userUUID] = name
	s.log.Infof("Registering %s with workspace %s", name, s.config.Workspace.Name)
	return name, true, nil
}

// ChangePassphraseOptions configures the identity passwd workflow.
type ChangePassphraseOptions struct {
	// OldPassphrase unlocks the current private key.
	OldPassphrase []byte

	// NewPassphrase replaces it. Must not be empty.
	NewPassphrase []byte

	// Logger receives progress output.
	Logger logger.Logger
}

// ChangePassphrase re-encrypts the current user's private key under a new passphrase.
//
// Returns ErrIdentityKeyMissing if the user has no keypair.
// Returns ErrBadPassphrase if the old passphrase is wrong or the new one is empty.
func ChangePassphrase(ctx context.Context, opts ChangePassphraseOptions) error {
	s, err := openSession(opts.Logger)
	if err != nil {
		return err
	}
	defer s.Close()

	auditEntry := s.auditEntry(audit.OpPasswd)
	if err := s.manager.ChangePassphrase(ctx, s.userUUID(), opts.OldPassphrase, opts.NewPassphrase); err != nil {
		auditEntry.Error = err.Error()
		audit.Log(auditEntry)
		return err
	}

	auditEntry.Success = true
	audit.Log(auditEntry)
	return nil
}

// ShowIdentityOptions configures the identity show workflow.
type ShowIdentityOptions struct {
	// Logger receives progress output.
	Logger logger.Logger
}

// ShowIdentityResult describes the current user within the workspace.
type ShowIdentityResult struct {
	UserName      string
	UserUUID      string
	WorkspaceName string

	// Provisioned is false until CreateIdentity has run.
	Provisioned bool
	Fingerprint string

	// OwnedFiles counts files the user uploaded.
	OwnedFiles int

	// SharedFiles counts files shared with the user.
	SharedFiles int
}

// ShowIdentity reports the current user's identity and file counts.
//
// Returns ErrWorkspaceNotInitialized if there is no enclosing workspace.
func ShowIdentity(ctx context.Context, opts ShowIdentityOptions) (*ShowIdentityResult, error) {
	s, err := openSession(opts.Logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	userUUID := s.userUUID()
	result := &ShowIdentityResult{
		UserName:      s.userName(),
		UserUUID:      userUUID,
		WorkspaceName: s.config.Workspace.Name,
		OwnedFiles:    len(s.config.FilesOwnedBy(userUUID)),
	}

	identity, err := s.manager.Lookup(ctx, userUUID)
	switch {
	case err == nil:
		result.Provisioned = true
		result.Fingerprint = identity.Fingerprint
	case errors.Is(err, kerrors.ErrIdentityKeyMissing):
		return result, nil
	default:
		return nil, err
	}

	for _, fileID := range s.config.FileIDs() {
		if s.config.Files[fileID].OwnerUUID == userUUID {
			continue
		}
		ok, err := s.manager.HasAccess(ctx, fileID, userUUID)
		if err != nil {
			return nil, fmt.Errorf("checking access to %s: %w", fileID, err)
		}
		if ok {
			result.SharedFiles++
		}
	}

	return result, nil
}
