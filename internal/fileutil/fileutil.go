// Package fileutil holds the small file helpers used when saving processed
// results: atomic writes and collision-free naming.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteAtomic streams from fill into path via a temporary sibling file and a
// final rename, so a partially downloaded result never lands under the final
// name. The temporary file is removed on any failure.
func WriteAtomic(path string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".partial-*")
	if err != nil {
		return fmt.Errorf("create partial file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close partial file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("finalize file: %w", err)
	}
	return nil
}

// UniquePath returns path unchanged when it is free, otherwise the first
// "name (n).ext" variant that does not exist yet.
func UniquePath(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for n := 1; n < 1000; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no free name for %s after 999 attempts", path)
}

// SanitizeFilename strips path separators and control characters from a
// server-provided filename so it cannot escape the download directory.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return -1
		case r == '/' || r == '\\' || r == ':':
			return '_'
		default:
			return r
		}
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "download"
	}
	return cleaned
}
