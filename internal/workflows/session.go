package workflows

import (
	"fmt"

	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/blobs"
	"github.com/PolarWolf314/lockbox/internal/configs"
	"github.com/PolarWolf314/lockbox/internal/envelope"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keystore"
	"github.com/PolarWolf314/lockbox/internal/keystore/backend"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

// session bundles what a workflow needs once it is inside a workspace.
// The key store is opened for the duration of one command.
type session struct {
	root    string
	user    *configs.UserConfig
	config  *configs.WorkspaceConfig
	store   keystore.Store
	manager *envelope.Manager
	blobs   *blobs.Store
	log     logger.Logger
}

// openSession locates the workspace, loads both configs and opens the key store.
// The caller must Close the session.
func openSession(log logger.Logger) (*session, error) {
	if err := configs.InitWorkspaceSettings(); err != nil {
		return nil, fmt.Errorf("initializing workspace settings: %w", err)
	}

	settings := configs.WorkspaceLockboxSettings
	if !settings.Initialized() {
		return nil, kerrors.ErrWorkspaceNotInitialized
	}

	userConfig, err := configs.EnsureUserConfig()
	if err != nil {
		return nil, fmt.Errorf("loading user config: %w", err)
	}

	workspaceConfig, err := configs.LoadWorkspaceConfig()
	if err != nil {
		return nil, err
	}

	store, err := backend.Open(workspaceConfig.Store, settings.WorkspacePath, log)
	if err != nil {
		return nil, fmt.Errorf("opening key store: %w", err)
	}

	return &session{
		root:    settings.WorkspacePath,
		user:    userConfig,
		config:  workspaceConfig,
		store:   store,
		manager: envelope.New(store, envelope.WithLogger(log)),
		blobs:   blobs.New(settings.BlobsPath),
		log:     log,
	}, nil
}

// Close releases the key store.
func (s *session) Close() error {
	return s.store.Close()
}

// userUUID is the identity id of the current user.
func (s *session) userUUID() string {
	return s.user.User.UUID
}

// userName is the current user's name in this workspace.
func (s *session) userName() string {
	if name, ok := s.config.Users[s.userUUID()]; ok {
		return name
	}
	return s.user.User.Name
}

// resolveUser maps a workspace user name, or a UUID, to its UUID.
func (s *session) resolveUser(ref string) (string, string, error) {
	if name, ok := s.config.Users[ref]; ok {
		return ref, name, nil
	}
	if id, ok := s.config.GetUserUUIDByName(ref); ok {
		return id, ref, nil
	}
	return "", "", fmt.Errorf("%w: %s", kerrors.ErrUserNotFound, ref)
}

// ownedFile resolves ref and checks the current user owns it.
func (s *session) ownedFile(ref string) (string, configs.FileRecord, error) {
	fileID, record, err := s.config.ResolveFile(ref)
	if err != nil {
		return "", configs.FileRecord{}, err
	}
	if record.OwnerUUID != s.userUUID() {
		return "", configs.FileRecord{}, fmt.Errorf("%w: %s is owned by %s", kerrors.ErrNotOwner, record.Name, s.config.UserName(record.OwnerUUID))
	}
	return fileID, record, nil
}

// auditEntry starts an audit entry for the current user.
func (s *session) auditEntry(op string) audit.Entry {
	return audit.Entry{
		User:      s.userName(),
		UserUUID:  s.userUUID(),
		Operation: op,
	}
}
