package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jsh-team/precache/internal/utils/logger"
)

// WriteFile writes content to path, creating parent directories first.
func WriteFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// EmptyDirectory removes everything inside dir, keeping dir itself.
func EmptyDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}

	logger.Debug("Emptied output directory %s", dir)
	return nil
}

// ListFiles returns every regular file below dir as sorted forward-slash
// paths relative to dir.
func ListFiles(dir string) ([]string, error) {
	var names []string
	err := filepath.Walk(dir, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// IsDirEmpty checks if a directory is empty
func IsDirEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == nil {
		return false, nil // Directory has at least one entry
	}

	return true, nil // Directory is empty
}

// IsValidPath checks if a path exists
func IsValidPath(path string) error {
	_, err := os.Stat(path)
	if err != nil {
		return err
	}
	return nil
}
