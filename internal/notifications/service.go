package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediacraft/internal/config"
	"mediacraft/internal/tasks"
)

const userAgent = "MediaCraft-CLI/0.1.0"

// Service defines the notification surface exposed to the task flows.
type Service interface {
	NotifyTaskCompleted(ctx context.Context, task *tasks.Task) error
	NotifyTaskFailed(ctx context.Context, task *tasks.Task) error
	NotifyUploadFailed(ctx context.Context, taskID, filename string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func taskLabel(task *tasks.Task) string {
	if task == nil {
		return "unknown task"
	}
	if name := strings.TrimSpace(task.OriginalFilename); name != "" {
		return name
	}
	return task.TaskID
}

func (n *ntfyService) NotifyTaskCompleted(ctx context.Context, task *tasks.Task) error {
	kind := "Processing"
	if task != nil && task.TaskType == tasks.TypeVideoMerge {
		kind = "Merge"
	} else if task != nil && task.TaskType == tasks.TypeWatermarkRemoval {
		kind = "Watermark removal"
	}
	data := payload{
		title:    "MediaCraft - Complete",
		message:  fmt.Sprintf("%s complete: %s", kind, taskLabel(task)),
		tags:     []string{"mediacraft", "task", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, task *tasks.Task) error {
	message := fmt.Sprintf("Task failed: %s", taskLabel(task))
	if task != nil {
		if reason := strings.TrimSpace(task.ErrorMessage); reason != "" {
			message = fmt.Sprintf("%s\nReason: %s", message, reason)
		}
	}
	data := payload{
		title:    "MediaCraft - Failed",
		message:  message,
		tags:     []string{"mediacraft", "task", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, taskID, filename string, cause error) error {
	var builder strings.Builder
	builder.WriteString("Upload failed")
	if filename = strings.TrimSpace(filename); filename != "" {
		builder.WriteString(": ")
		builder.WriteString(filename)
	}
	if taskID = strings.TrimSpace(taskID); taskID != "" {
		builder.WriteString(" (task ")
		builder.WriteString(taskID)
		builder.WriteString(")")
	}
	if cause != nil {
		builder.WriteString("\n")
		builder.WriteString(strings.TrimSpace(cause.Error()))
	}
	data := payload{
		title:    "MediaCraft - Upload Failed",
		message:  builder.String(),
		tags:     []string{"mediacraft", "upload", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "MediaCraft - Test",
		message:  "Notification system test",
		tags:     []string{"mediacraft", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTaskCompleted(context.Context, *tasks.Task) error { return nil }
func (noopService) NotifyTaskFailed(context.Context, *tasks.Task) error    { return nil }
func (noopService) NotifyUploadFailed(context.Context, string, string, error) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
