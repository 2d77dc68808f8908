package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/lockbox/internal/utils"
)

type UserSettings struct {
	UserConfigsPath string
	Username        string
}

type WorkspaceSettings struct {
	WorkspaceName string
	WorkspacePath string
	ConfigPath    string
	BlobsPath     string
	AuditLogPath  string
}

var (
	UserLockboxSettings      *UserSettings
	WorkspaceLockboxSettings *WorkspaceSettings
)

func init() {
	// os.UserConfigDir honours XDG_CONFIG_HOME.
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.TempDir(), "lockbox-config")
	}

	username, err := utils.GetUsername()
	if err != nil {
		username = ""
	}

	// This is independent of which workspace you are in, so it is ok to init here
	UserLockboxSettings = &UserSettings{
		UserConfigsPath: filepath.Join(configDir, "lockbox"),
		Username:        username,
	}
	WorkspaceLockboxSettings = &WorkspaceSettings{}
}

// NewWorkspaceSettings derives the workspace paths for the workspace rooted at root.
func NewWorkspaceSettings(root string) *WorkspaceSettings {
	lockboxDir := filepath.Join(root, utils.WorkspaceDirName)
	return &WorkspaceSettings{
		WorkspaceName: utils.GetWorkspaceName(root),
		WorkspacePath: root,
		ConfigPath:    filepath.Join(lockboxDir, "config.toml"),
		BlobsPath:     filepath.Join(lockboxDir, "blobs"),
		AuditLogPath:  filepath.Join(lockboxDir, "audit.jsonl"),
	}
}

// InitWorkspaceSettings locates the enclosing workspace and populates WorkspaceLockboxSettings.
// WorkspacePath is left empty when the working directory is not inside a workspace.
func InitWorkspaceSettings() error {
	root, err := utils.FindWorkspaceRoot()
	if err != nil {
		return fmt.Errorf("error getting workspace root: %w", err)
	}

	if root == "" {
		WorkspaceLockboxSettings = &WorkspaceSettings{}
		return nil
	}

	WorkspaceLockboxSettings = NewWorkspaceSettings(root)
	return nil
}

// Initialized reports whether the settings point at a workspace.
func (w *WorkspaceSettings) Initialized() bool {
	return w != nil && w.WorkspacePath != ""
}
