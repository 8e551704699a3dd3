package tasks

import (
	"strings"
	"time"
)

// Status represents the server-authoritative lifecycle of a task.
type Status string

const (
	StatusCreated    Status = "created"
	StatusUploaded   Status = "uploaded"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{
	StatusCreated,
	StatusUploaded,
	StatusQueued,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// TaskType identifies the processing pipeline a task runs through.
type TaskType string

const (
	TypeWatermarkRemoval TaskType = "watermark_removal"
	TypeVideoMerge       TaskType = "video_merge"
)

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[normalized]; ok {
		return normalized, true
	}
	return "", false
}

// ParseTaskType converts a string into a known TaskType.
func ParseTaskType(value string) (TaskType, bool) {
	switch TaskType(strings.ToLower(strings.TrimSpace(value))) {
	case TypeWatermarkRemoval:
		return TypeWatermarkRemoval, true
	case TypeVideoMerge:
		return TypeVideoMerge, true
	default:
		return "", false
	}
}

// IsTerminal reports whether a status ends polling permanently.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsProcessing reports whether the server is actively working on the task.
func (s Status) IsProcessing() bool {
	return s == StatusQueued || s == StatusProcessing
}

// ConfigFile describes one uploaded source file as reported in the task config.
type ConfigFile struct {
	Filename string  `json:"filename"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration,omitempty"`
}

// Config is the task-type-specific settings bag attached to a task.
// Fields not relevant to a task type are left zero.
type Config struct {
	Files         []ConfigFile `json:"files,omitempty"`
	Segments      []Segment    `json:"segments,omitempty"`
	Regions       []Region     `json:"regions,omitempty"`
	SelectedFrame *int         `json:"selected_frame,omitempty"`
}

// Task is the client's cached copy of a server-owned processing job.
// The client never mutates Status directly; it only requests transitions
// (upload, start processing, cancel) and refreshes the snapshot.
type Task struct {
	TaskID             string     `json:"task_id"`
	TaskType           TaskType   `json:"task_type"`
	Status             Status     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	ProgressMessage    string     `json:"progress_message,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	OriginalFilename   string     `json:"original_filename,omitempty"`
	FileSize           int64      `json:"file_size,omitempty"`
	CreatedAt          time.Time  `json:"created_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Config             Config     `json:"config,omitempty"`
}

// IsTerminal reports whether the task has reached a terminal status.
func (t *Task) IsTerminal() bool {
	if t == nil {
		return false
	}
	return t.Status.IsTerminal()
}

// Downloadable reports whether the processed result can be fetched.
func (t *Task) Downloadable() bool {
	return t != nil && t.Status == StatusCompleted
}
