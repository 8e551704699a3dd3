package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"mediacraft/internal/api"
	"mediacraft/internal/fileutil"
)

// downloadResult streams a completed task's output into the download
// directory and returns the final path. Server-provided filenames are
// sanitized and never overwrite an existing file.
func downloadResult(ctx context.Context, client *api.Client, taskID, downloadDir string) (string, error) {
	target, err := fileutil.UniquePath(filepath.Join(downloadDir, taskID+".mp4"))
	if err != nil {
		return "", err
	}

	var serverName string
	err = fileutil.WriteAtomic(target, func(w io.Writer) error {
		name, err := client.Download(ctx, taskID, w)
		serverName = name
		return err
	})
	if err != nil {
		return "", err
	}

	// Prefer the filename the server advertised, when there is one.
	if serverName != "" {
		named := filepath.Join(downloadDir, fileutil.SanitizeFilename(serverName))
		if named != target {
			if named, err = fileutil.UniquePath(named); err == nil {
				if os.Rename(target, named) == nil {
					return named, nil
				}
			}
		}
	}
	return target, nil
}
