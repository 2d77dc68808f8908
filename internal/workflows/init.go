package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/configs"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keystore/backend"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// WorkspaceName is the name for the workspace. If empty, uses the directory name.
	WorkspaceName string

	// UserName is the current user's name in the workspace. If empty, the
	// name from the user config is used, or one is derived from the system username.
	UserName string

	// Store selects the key store backend. A zero value selects the default.
	Store configs.StoreConfig

	// Logger receives progress output.
	Logger logger.Logger
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// WorkspaceName is the name of the initialized workspace.
	WorkspaceName string

	// WorkspaceUUID is the unique identifier assigned to the workspace.
	WorkspaceUUID string

	// WorkspacePath is the root path of the workspace.
	WorkspacePath string

	// UserName is the name the current user was registered under.
	UserName string

	// Backend is the key store backend written to the config.
	Backend string
}

// Init initializes a new lockbox workspace in the current directory.
//
// It creates the .lockbox directory, writes the workspace config, creates
// the key store and registers the current user as the first member. The
// user's keypair is created separately by CreateIdentity.
//
// Returns ErrWorkspaceAlreadyInitialized if a .lockbox directory already exists.
// Returns ErrInvalidConfig if the user name or store backend is invalid.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	lockboxDir := filepath.Join(wd, utils.WorkspaceDirName)
	if _, err := os.Stat(lockboxDir); err == nil {
		return nil, kerrors.ErrWorkspaceAlreadyInitialized
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking workspace directory: %w", err)
	}

	userConfig, err := configs.EnsureUserConfig()
	if err != nil {
		return nil, fmt.Errorf("ensuring user config: %w", err)
	}

	userName := opts.UserName
	if userName == "" {
		userName = userConfig.User.Name
	}
	if userName == "" {
		userName = utils.GenerateUserName(nil)
	}
	if !utils.IsValidUserName(userName) {
		return nil, fmt.Errorf("%w: invalid user name %q", kerrors.ErrInvalidConfig, userName)
	}

	workspaceName := opts.WorkspaceName
	if workspaceName == "" {
		workspaceName = filepath.Base(wd)
	}

	store := opts.Store
	if store.Backend == "" {
		store.Backend = configs.DefaultStoreConfig().Backend
	}

	cleanupNeeded := false
	defer func() {
		if cleanupNeeded {
			os.RemoveAll(lockboxDir)
		}
	}()

	if err := os.MkdirAll(lockboxDir, 0700); err != nil {
		return nil, fmt.Errorf("creating .lockbox folder: %w", err)
	}
	cleanupNeeded = true

	workspaceConfig := &configs.WorkspaceConfig{
		Workspace: configs.Workspace{
			UUID:      configs.GenerateWorkspaceUUID(),
			Name:      workspaceName,
			CreatedAt: time.Now().UTC(),
		},
		Store: store,
		Users: map[string]string{
			userConfig.User.UUID: userName,
		},
		Files: make(map[string]configs.FileRecord),
	}

	configs.WorkspaceLockboxSettings = configs.NewWorkspaceSettings(wd)
	if err := configs.SaveWorkspaceConfig(workspaceConfig); err != nil {
		return nil, fmt.Errorf("saving workspace config: %w", err)
	}

	// Opening the store once creates it and validates the backend.
	ks, err := backend.Open(store, wd, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating key store: %w", err)
	}
	if err := ks.Close(); err != nil {
		return nil, fmt.Errorf("closing key store: %w", err)
	}
	opts.Logger.Debugf("Created %s key store", store.Backend)

	if userConfig.User.Name == "" {
		userConfig.User.Name = userName
	}
	userConfig.Workspaces[workspaceConfig.Workspace.UUID] = wd
	if err := configs.SaveUserConfig(userConfig); err != nil {
		return nil, fmt.Errorf("updating user config with workspace: %w", err)
	}

	audit.Log(audit.Entry{
		User:          userName,
		UserUUID:      userConfig.User.UUID,
		Operation:     audit.OpInit,
		Success:       true,
		WorkspaceName: workspaceName,
		WorkspaceUUID: workspaceConfig.Workspace.UUID,
	})

	cleanupNeeded = false

	return &InitResult{
		WorkspaceName: workspaceName,
		WorkspaceUUID: workspaceConfig.Workspace.UUID,
		WorkspacePath: wd,
		UserName:      userName,
		Backend:       store.Backend,
	}, nil
}
