package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/lockbox/internal/configs"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

func TestInit_CreatesWorkspace(t *testing.T) {
	env := newTestEnv(t)
	env.as("alice")

	result, err := Init(context.Background(), InitOptions{})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if result.WorkspaceName != filepath.Base(env.root) {
		t.Errorf("WorkspaceName = %q, want directory name %q", result.WorkspaceName, filepath.Base(env.root))
	}
	if result.UserName != "alice" {
		t.Errorf("UserName = %q, want alice", result.UserName)
	}
	if result.Backend != configs.BackendSQLite {
		t.Errorf("Backend = %q, want %q", result.Backend, configs.BackendSQLite)
	}

	for _, rel := range []string{".lockbox/config.toml", ".lockbox/keystore.db", ".lockbox/audit.jsonl"} {
		if _, err := os.Stat(filepath.Join(env.root, rel)); err != nil {
			t.Errorf("Expected %s to exist: %v", rel, err)
		}
	}

	cfg, err := configs.LoadWorkspaceConfig()
	if err != nil {
		t.Fatalf("LoadWorkspaceConfig failed: %v", err)
	}
	if cfg.Workspace.UUID != result.WorkspaceUUID {
		t.Errorf("config UUID = %q, want %q", cfg.Workspace.UUID, result.WorkspaceUUID)
	}
	if cfg.Users[env.uuidOf("alice")] != "alice" {
		t.Errorf("alice not registered: %v", cfg.Users)
	}

	userCfg, err := configs.LoadUserConfig()
	if err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}
	if userCfg.Workspaces[result.WorkspaceUUID] != env.root {
		t.Errorf("user config workspaces = %v", userCfg.Workspaces)
	}
}

func TestInit_BadgerBackend(t *testing.T) {
	env := newTestEnv(t)
	env.as("alice")

	_, err := Init(context.Background(), InitOptions{
		Store: configs.StoreConfig{Backend: configs.BackendBadger},
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if info, err := os.Stat(filepath.Join(env.root, ".lockbox", "keystore")); err != nil || !info.IsDir() {
		t.Errorf("Expected badger directory: %v", err)
	}
}

func TestInit_AlreadyInitialized(t *testing.T) {
	env := newTestEnv(t)
	env.as("alice")

	if _, err := Init(context.Background(), InitOptions{}); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	_, err := Init(context.Background(), InitOptions{})
	if !errors.Is(err, kerrors.ErrWorkspaceAlreadyInitialized) {
		t.Errorf("Expected ErrWorkspaceAlreadyInitialized, got %v", err)
	}
}

func TestInit_InvalidInputCleansUp(t *testing.T) {
	tests := []struct {
		name string
		opts InitOptions
	}{
		{"unknown backend", InitOptions{Store: configs.StoreConfig{Backend: "etcd"}}},
		{"invalid user name", InitOptions{UserName: "-bad name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.as("alice")

			_, err := Init(context.Background(), tt.opts)
			if !errors.Is(err, kerrors.ErrInvalidConfig) {
				t.Fatalf("Expected ErrInvalidConfig, got %v", err)
			}
			if _, err := os.Stat(filepath.Join(env.root, ".lockbox")); !os.IsNotExist(err) {
				t.Errorf("Expected .lockbox to be removed after failure")
			}
		})
	}
}

func TestWorkflows_OutsideWorkspace(t *testing.T) {
	env := newTestEnv(t)
	env.as("alice")
	ctx := context.Background()

	if _, err := List(ctx, ListOptions{}); !errors.Is(err, kerrors.ErrWorkspaceNotInitialized) {
		t.Errorf("List: expected ErrWorkspaceNotInitialized, got %v", err)
	}
	if _, err := CreateIdentity(ctx, CreateIdentityOptions{Passphrase: passphrase("alice")}); !errors.Is(err, kerrors.ErrWorkspaceNotInitialized) {
		t.Errorf("CreateIdentity: expected ErrWorkspaceNotInitialized, got %v", err)
	}
	if _, err := Log(ctx, LogOptions{}); !errors.Is(err, kerrors.ErrWorkspaceNotInitialized) {
		t.Errorf("Log: expected ErrWorkspaceNotInitialized, got %v", err)
	}
}
