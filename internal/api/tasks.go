package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mediacraft/internal/tasks"
)

// CreateTaskResult is the payload of POST /api/tasks/create.
type CreateTaskResult struct {
	TaskID   string         `json:"task_id"`
	Status   tasks.Status   `json:"status"`
	TaskType tasks.TaskType `json:"task_type"`
}

// CreateTask registers a new empty task of the given type.
func (c *Client) CreateTask(ctx context.Context, taskType tasks.TaskType, taskName string) (*CreateTaskResult, error) {
	payload := map[string]string{
		"task_type": string(taskType),
		"task_name": strings.TrimSpace(taskName),
	}
	var result CreateTaskResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/tasks/create", payload, &result); err != nil {
		return nil, err
	}
	if result.TaskID == "" {
		return nil, &StatusError{Message: "create task: response missing task_id"}
	}
	return &result, nil
}

// SubmitResult is the payload of POST /api/tasks/submit.
type SubmitResult struct {
	TaskID  string       `json:"task_id"`
	Status  tasks.Status `json:"status"`
	Message string       `json:"message"`
}

// SubmitTask creates a task and uploads its single source file in one call.
// This is the watermark-removal entry point; the response uses the historical
// bare shape rather than the canonical envelope.
func (c *Client) SubmitTask(ctx context.Context, taskType tasks.TaskType, filePath string, progress ProgressFunc) (*SubmitResult, error) {
	fields := map[string]string{"task_type": string(taskType)}

	var result SubmitResult
	if err := c.uploadMultipart(ctx, "/api/tasks/submit", fields, filePath, progress, &result); err != nil {
		return nil, err
	}
	if result.TaskID == "" {
		return nil, &StatusError{Message: "submit task: response missing task_id"}
	}
	return &result, nil
}

// UploadResult is the payload of POST /api/tasks/{id}/upload.
type UploadResult struct {
	TaskID           string       `json:"task_id"`
	Status           tasks.Status `json:"status"`
	OriginalFilename string       `json:"original_filename"`
	FileSize         int64        `json:"file_size"`
}

// UploadFile adds one source file to an existing task, reporting progress
// while the body streams.
func (c *Client) UploadFile(ctx context.Context, taskID, filePath string, progress ProgressFunc) (*UploadResult, error) {
	var result UploadResult
	path := "/api/tasks/" + url.PathEscape(taskID) + "/upload"
	if err := c.uploadMultipart(ctx, path, nil, filePath, progress, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TaskStatus fetches the current server snapshot of a task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*tasks.Task, error) {
	var task tasks.Task
	path := "/api/tasks/" + url.PathEscape(taskID) + "/status"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListOptions filter and page the task list.
type ListOptions struct {
	Page   int
	Limit  int
	Status tasks.Status
	Type   tasks.TaskType
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// TaskList is the payload of GET /api/tasks/list.
type TaskList struct {
	Tasks      []tasks.Task `json:"tasks"`
	Pagination Pagination   `json:"pagination"`
}

// ListTasks returns a page of the session's tasks.
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*TaskList, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Status != "" {
		query.Set("status", string(opts.Status))
	}
	if opts.Type != "" {
		query.Set("type", string(opts.Type))
	}
	path := "/api/tasks/list"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list TaskList
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// StartMerge submits the segment plan and asks the server to begin merging.
func (c *Client) StartMerge(ctx context.Context, taskID string, segments []tasks.Segment) error {
	payload := map[string]any{
		"config": map[string]any{"segments": segments},
		"action": "start_processing",
	}
	path := "/api/tasks/" + url.PathEscape(taskID) + "/config"
	return c.doJSON(ctx, http.MethodPost, path, payload, nil)
}

// Frame is one extracted preview frame.
type Frame struct {
	Index       int     `json:"index"`
	FrameNumber int     `json:"frame_number"`
	Timestamp   float64 `json:"timestamp"`
	ImageData   string  `json:"image_data"`
}

// VideoInfo reports source metadata alongside extracted frames.
type VideoInfo struct {
	TotalFrames int     `json:"total_frames"`
	FPS         float64 `json:"fps"`
	Duration    float64 `json:"duration"`
}

// FrameSet is the payload of GET /api/tasks/{id}/frames.
type FrameSet struct {
	Frames    []Frame   `json:"frames"`
	VideoInfo VideoInfo `json:"video_info"`
}

// Frames fetches count evenly spaced preview frames for frame selection.
func (c *Client) Frames(ctx context.Context, taskID string, count int) (*FrameSet, error) {
	path := "/api/tasks/" + url.PathEscape(taskID) + "/frames"
	if count > 0 {
		path += "?count=" + strconv.Itoa(count)
	}
	var set FrameSet
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// SelectFrame records the reference frame used for region selection.
func (c *Client) SelectFrame(ctx context.Context, taskID string, frameNumber int) error {
	payload := map[string]any{"selected_frame": frameNumber}
	path := "/api/tasks/" + url.PathEscape(taskID)
	return c.doJSON(ctx, http.MethodPut, path, payload, nil)
}

// SubmitRegions sends the watermark regions and starts processing.
func (c *Client) SubmitRegions(ctx context.Context, taskID string, regions []tasks.Region) error {
	payload := map[string]any{
		"regions": regions,
		"action":  "start_processing",
	}
	path := "/api/tasks/" + url.PathEscape(taskID)
	return c.doJSON(ctx, http.MethodPut, path, payload, nil)
}

// UpdateSegment replaces one segment's time range.
func (c *Client) UpdateSegment(ctx context.Context, taskID string, index int, startTime, endTime float64) error {
	payload := map[string]float64{
		"start_time": startTime,
		"end_time":   endTime,
	}
	path := "/api/tasks/" + url.PathEscape(taskID) + "/segments/" + strconv.Itoa(index)
	return c.doJSON(ctx, http.MethodPut, path, payload, nil)
}

// DeleteSegment removes one segment from the merge plan.
func (c *Client) DeleteSegment(ctx context.Context, taskID string, index int) error {
	path := "/api/tasks/" + url.PathEscape(taskID) + "/segments/" + strconv.Itoa(index)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ReorderSegments submits the full new merge order as segment indices.
func (c *Client) ReorderSegments(ctx context.Context, taskID string, order []int) error {
	payload := map[string]any{"order": order}
	path := "/api/tasks/" + url.PathEscape(taskID) + "/segments/order"
	return c.doJSON(ctx, http.MethodPut, path, payload, nil)
}

// CancelTask asks the server to cancel a not-yet-processing task.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	path := "/api/tasks/" + url.PathEscape(taskID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// Download streams the processed result into dst and returns the filename
// advertised by the server, or an empty string when none was provided.
func (c *Client) Download(ctx context.Context, taskID string, dst io.Writer) (string, error) {
	c.EnsureSession(ctx)

	path := "/api/tasks/" + url.PathEscape(taskID) + "/download"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.transferClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download result: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &StatusError{HTTPStatus: resp.StatusCode, Message: errorMessage(body)}
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return "", fmt.Errorf("stream result: %w", err)
	}
	return attachmentFilename(resp.Header.Get("Content-Disposition")), nil
}

func attachmentFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
