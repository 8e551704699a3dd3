package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"mediacraft/internal/api"
	"mediacraft/internal/logging"
	"mediacraft/internal/tasks"
)

// Uploader is the slice of the API client the coordinator needs.
type Uploader interface {
	UploadFile(ctx context.Context, taskID, path string, progress api.ProgressFunc) (*api.UploadResult, error)
}

// FileProgress reports per-file progress during a batch: the zero-based
// index of the file in the batch, its base name, and a whole percentage.
type FileProgress func(index int, filename string, percent int)

// FileError identifies which file of a batch failed.
type FileError struct {
	Filename string
	Index    int
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Filename, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Coordinator uploads a batch of files to one task.
type Coordinator struct {
	uploader Uploader
	limits   Limits
	logger   *slog.Logger
}

// NewCoordinator builds a coordinator around an uploader and batch limits.
func NewCoordinator(uploader Uploader, limits Limits, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		uploader: uploader,
		limits:   limits,
		logger:   logging.NewComponentLogger(logger, "upload"),
	}
}

// Run validates the batch and uploads the files in order. Files are sent
// one at a time; the next upload starts only after the server acknowledged
// the previous one. The first failure aborts the rest of the batch and the
// returned error names the failed file. The returned slice holds the
// acknowledgments for files that completed before the failure.
func (c *Coordinator) Run(ctx context.Context, taskType tasks.TaskType, taskID string, paths []string, progress FileProgress) ([]api.UploadResult, error) {
	if err := c.limits.ValidateBatch(taskType, paths); err != nil {
		return nil, err
	}

	results := make([]api.UploadResult, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		index, name := i, filepath.Base(path)
		var perFile api.ProgressFunc
		if progress != nil {
			progress(index, name, 0)
			perFile = func(percent int) {
				progress(index, name, percent)
			}
		}

		result, err := c.uploader.UploadFile(ctx, taskID, path, perFile)
		if err != nil {
			c.logger.Error("upload failed",
				logging.String(logging.FieldTaskID, taskID),
				logging.String("filename", name),
				logging.Int("file_index", index),
				logging.Error(err),
			)
			return results, &FileError{Filename: name, Index: index, Err: err}
		}

		c.logger.Info("file uploaded",
			logging.String(logging.FieldTaskID, taskID),
			logging.String("filename", name),
			logging.Int("file_index", index),
			logging.Int("file_count", len(paths)),
		)
		results = append(results, *result)
	}
	return results, nil
}
