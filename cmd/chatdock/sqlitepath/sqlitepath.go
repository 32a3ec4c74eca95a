// Package sqlitepath resolves the default chatdock SQLite database location.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveSQLitePath returns explicit when set, otherwise the default
// ~/.chatdock/chatdock.db, creating the directory if needed.
func ResolveSQLitePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	dir := filepath.Join(home, ".chatdock")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}

	return filepath.Join(dir, "chatdock.db"), nil
}
