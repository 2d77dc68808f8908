package workflows

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/lockbox/internal/configs"
)

// testEnv is a workspace in a temp directory shared by several users.
// Each user has their own user config directory; as switches between them.
type testEnv struct {
	t        *testing.T
	root     string
	userDirs map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	originalUserPath := configs.UserLockboxSettings.UserConfigsPath
	originalWorkspace := configs.WorkspaceLockboxSettings
	t.Cleanup(func() {
		_ = os.Chdir(originalWd)
		configs.UserLockboxSettings.UserConfigsPath = originalUserPath
		configs.WorkspaceLockboxSettings = originalWorkspace
	})

	return &testEnv{t: t, root: root, userDirs: make(map[string]string)}
}

// as switches the current user, creating their user config on first use.
func (e *testEnv) as(name string) {
	e.t.Helper()

	dir, ok := e.userDirs[name]
	if !ok {
		dir = e.t.TempDir()
		e.userDirs[name] = dir
		configs.UserLockboxSettings.UserConfigsPath = dir
		if err := configs.SaveUserConfig(&configs.UserConfig{
			User: configs.User{Name: name, UUID: configs.GenerateUserUUID()},
		}); err != nil {
			e.t.Fatalf("Failed to save user config for %s: %v", name, err)
		}
	}
	configs.UserLockboxSettings.UserConfigsPath = dir
}

// uuidOf returns the identity id of a user created with as.
func (e *testEnv) uuidOf(name string) string {
	e.t.Helper()
	current := configs.UserLockboxSettings.UserConfigsPath
	defer func() { configs.UserLockboxSettings.UserConfigsPath = current }()

	e.as(name)
	cfg, err := configs.LoadUserConfig()
	if err != nil {
		e.t.Fatalf("Failed to load user config for %s: %v", name, err)
	}
	return cfg.User.UUID
}

func (e *testEnv) writeFile(rel, content string) {
	e.t.Helper()
	p := filepath.Join(e.root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		e.t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

func passphrase(name string) []byte {
	return []byte(name + "-passphrase")
}

// setupWorkspace initializes a workspace as alice and provisions each named user.
func setupWorkspace(t *testing.T, users ...string) *testEnv {
	t.Helper()
	ctx := context.Background()
	env := newTestEnv(t)

	env.as("alice")
	if _, err := Init(ctx, InitOptions{WorkspaceName: "test-workspace"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	for _, name := range append([]string{"alice"}, users...) {
		env.as(name)
		if _, err := CreateIdentity(ctx, CreateIdentityOptions{Passphrase: passphrase(name)}); err != nil {
			t.Fatalf("CreateIdentity for %s failed: %v", name, err)
		}
	}

	env.as("alice")
	return env
}

// uploadAs uploads a single in-memory file as the named user and returns its id.
func (e *testEnv) uploadAs(name, fileName, content, algorithm string) string {
	e.t.Helper()
	e.as(name)
	result, err := Upload(context.Background(), UploadOptions{
		Data:      []byte(content),
		DataName:  fileName,
		Algorithm: algorithm,
	})
	if err != nil {
		e.t.Fatalf("Upload of %s as %s failed: %v", fileName, name, err)
	}
	if len(result.Files) != 1 {
		e.t.Fatalf("Expected 1 uploaded file, got %d", len(result.Files))
	}
	return result.Files[0].FileID
}

// decryptAs decrypts a file to memory as the named user.
func (e *testEnv) decryptAs(name, fileRef string) (*DecryptResult, error) {
	e.t.Helper()
	e.as(name)
	return Decrypt(context.Background(), DecryptOptions{
		FileRef:    fileRef,
		Passphrase: passphrase(name),
		Output:     StdoutOutput,
	})
}
