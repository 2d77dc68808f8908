package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// WorkspaceDirName is the directory that marks a workspace root.
const WorkspaceDirName = ".lockbox"

// FindWorkspaceRoot traverses up from the working directory to find the workspace root.
// Returns the path to the workspace root if found, empty string otherwise.
func FindWorkspaceRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return FindWorkspaceRootFrom(currentDir)
}

// FindWorkspaceRootFrom traverses up from start looking for a .lockbox directory.
// Stops searching one level above the user's home directory.
func FindWorkspaceRootFrom(start string) (string, error) {
	currentDir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	for {
		if currentDir == path.Join(homeDir, "..") {
			return "", nil
		}

		lockboxDir := filepath.Join(currentDir, WorkspaceDirName)
		fileInfo, err := os.Stat(lockboxDir)
		if err == nil {
			if fileInfo.IsDir() {
				return currentDir, nil
			}
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking for %s directory at %s: %w", WorkspaceDirName, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

// GetWorkspaceName returns the directory name of the workspace root.
func GetWorkspaceName(root string) string {
	if root == "" {
		return ""
	}
	return filepath.Base(root)
}
