// Package backend opens the keystore.Store a workspace is configured to use.
package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/lockbox/internal/configs"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keystore"
	"github.com/PolarWolf314/lockbox/internal/keystore/badgerkv"
	"github.com/PolarWolf314/lockbox/internal/keystore/sqlitedb"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

// Open creates a Store from the [store] section of the workspace config.
// root is the workspace root, used to resolve relative paths.
func Open(cfg configs.StoreConfig, root string, log logger.Logger) (keystore.Store, error) {
	switch cfg.Backend {
	case configs.BackendSQLite, "":
		path := cfg.ResolvePath(root)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create key store directory: %w", err)
		}
		log.Debugf("Opening sqlite key store at %s", path)
		return sqlitedb.Open(path)
	case configs.BackendBadger:
		path := cfg.ResolvePath(root)
		log.Debugf("Opening badger key store at %s", path)
		return badgerkv.Open(badgerkv.Config{
			Path:       path,
			SyncWrites: cfg.SyncWrites,
			Logger:     log,
		})
	case configs.BackendMemory:
		log.Warnf("Using in-memory key store; keys will not be persisted")
		return keystore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: unknown key store backend %q", kerrors.ErrInvalidConfig, cfg.Backend)
	}
}
