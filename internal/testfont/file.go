package testfont

import (
	"os"
	"path/filepath"
)

// WriteFile writes font data to dir/name and returns the file path.
func WriteFile(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
