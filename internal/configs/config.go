package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"

	"github.com/google/uuid"
)

// Key store backends selectable in [store].
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

type UserConfig struct {
	User       User              `toml:"user"`
	Workspaces map[string]string `toml:"workspaces"`
}

type User struct {
	Name string `toml:"name"`
	UUID string `toml:"user_uuid"`
}

type WorkspaceConfig struct {
	Workspace Workspace             `toml:"workspace"`
	Store     StoreConfig           `toml:"store"`
	Users     map[string]string     `toml:"users"`
	Files     map[string]FileRecord `toml:"files"`
}

type Workspace struct {
	UUID      string    `toml:"workspace_uuid"`
	Name      string    `toml:"name"`
	CreatedAt time.Time `toml:"created_at"`
}

// StoreConfig selects and locates the key store.
type StoreConfig struct {
	Backend    string `toml:"backend"`
	Path       string `toml:"path,omitempty"`
	SyncWrites bool   `toml:"sync_writes,omitempty"`
}

// FileRecord describes one uploaded file. The wrapped keys live in the key store.
type FileRecord struct {
	OwnerUUID      string    `toml:"owner_uuid"`
	Name           string    `toml:"name"`
	Blob           string    `toml:"blob"`
	Algorithm      string    `toml:"algorithm"`
	Mode           string    `toml:"mode,omitempty"`
	IV             string    `toml:"iv,omitempty"`
	Salt           string    `toml:"salt"`
	PlainSize      int64     `toml:"plain_size"`
	CipherSize     int64     `toml:"cipher_size"`
	EncryptSeconds float64   `toml:"encrypt_seconds"`
	UploadedAt     time.Time `toml:"uploaded_at"`
}

// DefaultStoreConfig is written by init when no backend is requested.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{Backend: BackendSQLite}
}

// ResolvePath returns the key store location for a workspace rooted at root.
// Relative paths are taken relative to the workspace root.
func (s StoreConfig) ResolvePath(root string) string {
	p := s.Path
	if p == "" {
		switch s.Backend {
		case BackendBadger:
			p = filepath.Join(".lockbox", "keystore")
		default:
			p = filepath.Join(".lockbox", "keystore.db")
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// GenerateUserUUID generates a new UUID for the user.
func GenerateUserUUID() string {
	return uuid.New().String()
}

// GenerateWorkspaceUUID generates a new UUID for the workspace.
func GenerateWorkspaceUUID() string {
	return uuid.New().String()
}

func userConfigPath() string {
	return filepath.Join(UserLockboxSettings.UserConfigsPath, "config.toml")
}

// LoadUserConfig loads the user configuration from the config file.
func LoadUserConfig() (*UserConfig, error) {
	configPath := userConfigPath()

	config := &UserConfig{
		Workspaces: make(map[string]string),
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if config.Workspaces == nil {
		config.Workspaces = make(map[string]string)
	}

	return config, nil
}

// SaveUserConfig saves the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	if err := SaveTOML(userConfigPath(), config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}
	return nil
}

// EnsureUserConfig ensures the user configuration exists and has a UUID.
func EnsureUserConfig() (*UserConfig, error) {
	config, err := LoadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if config.User.UUID == "" {
		config.User.UUID = GenerateUserUUID()
		if err := SaveUserConfig(config); err != nil {
			return nil, fmt.Errorf("failed to save user config: %w", err)
		}
	}

	return config, nil
}

// LoadWorkspaceConfig loads the workspace configuration.
// Note: Caller should ensure InitWorkspaceSettings is called before calling this function.
func LoadWorkspaceConfig() (*WorkspaceConfig, error) {
	if !WorkspaceLockboxSettings.Initialized() {
		return nil, kerrors.ErrWorkspaceNotInitialized
	}

	config := &WorkspaceConfig{}
	if err := LoadTOML(WorkspaceLockboxSettings.ConfigPath, config); err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.ErrWorkspaceNotInitialized
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
	}

	if config.Users == nil {
		config.Users = make(map[string]string)
	}
	if config.Files == nil {
		config.Files = make(map[string]FileRecord)
	}
	if config.Store.Backend == "" {
		config.Store = DefaultStoreConfig()
	}

	return config, nil
}

// SaveWorkspaceConfig saves the workspace configuration.
// Note: Caller should ensure InitWorkspaceSettings is called before calling this function.
func SaveWorkspaceConfig(config *WorkspaceConfig) error {
	if !WorkspaceLockboxSettings.Initialized() {
		return kerrors.ErrWorkspaceNotInitialized
	}
	if err := SaveTOML(WorkspaceLockboxSettings.ConfigPath, config); err != nil {
		return fmt.Errorf("failed to save workspace config: %w", err)
	}
	return nil
}

// GetUserUUIDByName looks up a user UUID by name in the workspace config.
func (wc *WorkspaceConfig) GetUserUUIDByName(name string) (string, bool) {
	for id, userName := range wc.Users {
		if userName == name {
			return id, true
		}
	}
	return "", false
}

// UserName returns the display name for a user UUID, or the UUID itself if unknown.
func (wc *WorkspaceConfig) UserName(userUUID string) string {
	if name, ok := wc.Users[userUUID]; ok && name != "" {
		return name
	}
	return userUUID
}

// UserNames returns all registered user names.
func (wc *WorkspaceConfig) UserNames() []string {
	names := make([]string, 0, len(wc.Users))
	for _, name := range wc.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileIDs returns all file ids sorted by upload time, oldest first.
func (wc *WorkspaceConfig) FileIDs() []string {
	ids := make([]string, 0, len(wc.Files))
	for id := range wc.Files {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := wc.Files[ids[i]], wc.Files[ids[j]]
		if !a.UploadedAt.Equal(b.UploadedAt) {
			return a.UploadedAt.Before(b.UploadedAt)
		}
		return ids[i] < ids[j]
	})
	return ids
}

// FilesOwnedBy returns the ids of files owned by userUUID.
func (wc *WorkspaceConfig) FilesOwnedBy(userUUID string) []string {
	var ids []string
	for _, id := range wc.FileIDs() {
		if wc.Files[id].OwnerUUID == userUUID {
			ids = append(ids, id)
		}
	}
	return ids
}

// ResolveFile finds a file by id or by original name. A name shared by several
// files must be disambiguated by id.
func (wc *WorkspaceConfig) ResolveFile(ref string) (string, FileRecord, error) {
	if rec, ok := wc.Files[ref]; ok {
		return ref, rec, nil
	}

	var matches []string
	for _, id := range wc.FileIDs() {
		if wc.Files[id].Name == ref {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", FileRecord{}, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, ref)
	case 1:
		return matches[0], wc.Files[matches[0]], nil
	default:
		return "", FileRecord{}, fmt.Errorf("%d files are named %q, use the file id instead", len(matches), ref)
	}
}
