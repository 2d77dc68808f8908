// Package configs manages user and workspace configuration for lockbox.
//
// Configuration is stored in TOML at two levels:
//
//   - User config: $XDG_CONFIG_HOME/lockbox/config.toml (identity name and UUID)
//   - Workspace config: .lockbox/config.toml (workspace identity, key store
//     settings, registered users and file records)
//
// # Workspace Configuration
//
// The workspace config stores:
//   - [workspace]: UUID, name, creation time
//   - [store]: key store backend ("sqlite", "badger" or "memory") and path
//   - [users]: user UUID -> name
//   - [files.<id>]: one FileRecord per uploaded file
//
// A FileRecord holds the owner, original name, blob handle, algorithm, mode,
// IV and sizes. Wrapped keys are never written here; they live in the key
// store.
//
// # Settings
//
// Global settings are initialized at startup:
//   - UserLockboxSettings: path to the user config directory
//   - WorkspaceLockboxSettings: current workspace's paths
//
// Call InitWorkspaceSettings() before accessing WorkspaceLockboxSettings.
// It walks up the directory tree to find the nearest .lockbox directory.
package configs
