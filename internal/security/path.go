package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilePath rejects operator-supplied paths containing directory
// traversal components or NUL bytes. Absolute paths are allowed: config
// files and database files routinely live outside the working directory.
func ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("path contains NUL byte")
	}

	cleanPath := filepath.Clean(path)

	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) ||
		strings.Contains(cleanPath, string(filepath.Separator)+".."+string(filepath.Separator)) ||
		strings.HasSuffix(cleanPath, string(filepath.Separator)+"..") {
		return fmt.Errorf("path contains directory traversal: %s", path)
	}

	return nil
}
