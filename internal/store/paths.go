package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFileName is the run database file inside the aisim directory.
const DBFileName = "runs.db"

// GlobalAisimPath returns the path to the global .aisim directory.
// On Unix: ~/.aisim
// On Windows: %USERPROFILE%\.aisim
func GlobalAisimPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".aisim"), nil
}

// DefaultDBPath returns the default run database path, ~/.aisim/runs.db.
func DefaultDBPath() (string, error) {
	dir, err := GlobalAisimPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFileName), nil
}

// EnsureGlobalAisimDir creates the global .aisim directory if it doesn't exist.
func EnsureGlobalAisimDir() error {
	globalPath, err := GlobalAisimPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(globalPath, 0755); err != nil {
		return fmt.Errorf("failed to create global .aisim directory: %w", err)
	}

	return nil
}
