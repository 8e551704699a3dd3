package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"mediacraft/internal/logging"
)

// ProgressFunc receives upload progress as a whole percentage (0-100).
// It is invoked on the uploading goroutine; callbacks must be cheap.
type ProgressFunc func(percent int)

// uploadMultipart streams a single file plus form fields to path and decodes
// the enveloped response into out. The body is piped rather than buffered so
// a 500 MB upload does not live in memory.
func (c *Client) uploadMultipart(ctx context.Context, path string, fields map[string]string, filePath string, progress ProgressFunc, out any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat upload file: %w", err)
	}

	// Uploads are a session suspension point like any other task call.
	c.EnsureSession(ctx)

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeMultipartBody(writer, fields, file, info.Size(), progress)
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, pr, writer.FormDataContentType())
	if err != nil {
		return err
	}
	resp, err := c.transferClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", filepath.Base(filePath), err)
	}
	if err := decodeEnvelope(resp, out); err != nil {
		return err
	}

	c.logger.Debug("file uploaded",
		logging.String("filename", filepath.Base(filePath)),
		logging.Int64("size_bytes", info.Size()),
	)
	return nil
}

func writeMultipartBody(writer *multipart.Writer, fields map[string]string, file *os.File, size int64, progress ProgressFunc) error {
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write form field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile("file", NormalizeFilename(file.Name()))
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}

	reader := io.Reader(file)
	var tracker *progressReader
	if progress != nil {
		tracker = &progressReader{reader: file, total: size, report: progress}
		reader = tracker
	}
	if _, err := io.Copy(part, reader); err != nil {
		return fmt.Errorf("stream file: %w", err)
	}
	if tracker != nil && tracker.last != 100 {
		tracker.last = 100
		progress(100)
	}
	return nil
}

// NormalizeFilename returns the NFC-normalized base name of a path. Files
// dragged in from macOS arrive NFD-decomposed and would otherwise mismatch
// the keys the server stores in the task config.
func NormalizeFilename(path string) string {
	return norm.NFC.String(filepath.Base(path))
}

// progressReader reports whole-percent progress while the wrapped reader is
// consumed. Repeated percentages are suppressed.
type progressReader struct {
	reader io.Reader
	total  int64
	read   int64
	last   int
	report ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		percent := int(p.read * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.report(percent)
		}
	}
	return n, err
}
