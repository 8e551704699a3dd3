package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediacraft/internal/tasks"
)

// Limits bound what a single batch may contain. Zero values disable the
// corresponding check.
type Limits struct {
	MaxFileSize   int64
	MaxFiles      int
	MinMergeFiles int
	AllowedTypes  []string
}

// extension-to-MIME table for the formats the service accepts. The stdlib
// mime package does not know video/x-matroska on every platform, so the
// mapping is explicit.
var videoTypes = map[string]string{
	".mp4": "video/mp4",
	".m4v": "video/mp4",
	".mov": "video/quicktime",
	".avi": "video/x-msvideo",
	".mkv": "video/x-matroska",
}

// ContentType returns the MIME type the service would see for a filename,
// or an empty string for unrecognized extensions.
func ContentType(path string) string {
	return videoTypes[strings.ToLower(filepath.Ext(path))]
}

// ValidateBatch checks a merge-style batch of paths against the limits
// before any byte is uploaded. It returns the first violation found.
func (l Limits) ValidateBatch(taskType tasks.TaskType, paths []string) error {
	if l.MaxFiles > 0 && len(paths) > l.MaxFiles {
		return fmt.Errorf("%w: %d files exceeds limit of %d", tasks.ErrTooManyFiles, len(paths), l.MaxFiles)
	}
	if taskType == tasks.TypeVideoMerge && l.MinMergeFiles > 0 && len(paths) < l.MinMergeFiles {
		return fmt.Errorf("%w: merging requires at least %d files, got %d", tasks.ErrTooFewFiles, l.MinMergeFiles, len(paths))
	}
	for _, path := range paths {
		if err := l.ValidateFile(path); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFile checks one file's existence, size, and type.
func (l Limits) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", filepath.Base(path), err)
	}
	if info.IsDir() {
		return fmt.Errorf("inspect %s: is a directory", filepath.Base(path))
	}
	if l.MaxFileSize > 0 && info.Size() > l.MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", tasks.ErrFileTooLarge, filepath.Base(path), info.Size(), l.MaxFileSize)
	}
	if len(l.AllowedTypes) > 0 {
		contentType := ContentType(path)
		if contentType == "" || !l.allows(contentType) {
			return fmt.Errorf("%w: %s", tasks.ErrUnsupportedType, filepath.Base(path))
		}
	}
	return nil
}

func (l Limits) allows(contentType string) bool {
	for _, allowed := range l.AllowedTypes {
		if strings.EqualFold(allowed, contentType) {
			return true
		}
	}
	return false
}
