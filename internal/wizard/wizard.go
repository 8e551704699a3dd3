// Package wizard drives the multi-step task flows. Each flow is a small
// state machine: a step only advances after the server acknowledged the work
// that step represents, so an interrupted run can always resume from the
// server's view of the task.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mediacraft/internal/api"
	"mediacraft/internal/logging"
	"mediacraft/internal/polling"
	"mediacraft/internal/tasks"
)

// Step names a position in a task flow.
type Step string

const (
	StepCreate        Step = "create"
	StepUpload        Step = "upload"
	StepEditSegments  Step = "edit_segments"
	StepSelectFrame   Step = "select_frame"
	StepSelectRegions Step = "select_regions"
	StepProcessing    Step = "processing"
	StepDone          Step = "done"
	StepFailed        Step = "failed"
)

// ErrWrongStep is returned when an operation is invoked out of order.
var ErrWrongStep = errors.New("operation not valid in current step")

// Client is the full API surface the wizards drive.
type Client interface {
	CreateTask(ctx context.Context, taskType tasks.TaskType, taskName string) (*api.CreateTaskResult, error)
	SubmitTask(ctx context.Context, taskType tasks.TaskType, filePath string, progress api.ProgressFunc) (*api.SubmitResult, error)
	UploadFile(ctx context.Context, taskID, path string, progress api.ProgressFunc) (*api.UploadResult, error)
	TaskStatus(ctx context.Context, taskID string) (*tasks.Task, error)
	Frames(ctx context.Context, taskID string, count int) (*api.FrameSet, error)
	SelectFrame(ctx context.Context, taskID string, frameNumber int) error
	SubmitRegions(ctx context.Context, taskID string, regions []tasks.Region) error
	UpdateSegment(ctx context.Context, taskID string, index int, startTime, endTime float64) error
	DeleteSegment(ctx context.Context, taskID string, index int) error
	ReorderSegments(ctx context.Context, taskID string, order []int) error
	StartMerge(ctx context.Context, taskID string, segments []tasks.Segment) error
}

// flow carries the state shared by both wizards.
type flow struct {
	client   Client
	pollOpts polling.Options
	logger   *slog.Logger

	taskID string
	step   Step
	final  *tasks.Task
}

func (f *flow) require(step Step) error {
	if f.step != step {
		return fmt.Errorf("%w: at %q, need %q", ErrWrongStep, f.step, step)
	}
	return nil
}

// Step returns the current position in the flow.
func (f *flow) Step() Step { return f.step }

// TaskID returns the server task ID, or an empty string before creation.
func (f *flow) TaskID() string { return f.taskID }

// Result returns the final task snapshot once the flow has finished.
func (f *flow) Result() *tasks.Task { return f.final }

// waitForCompletion polls until the task is terminal and records the outcome.
// Cancellation leaves the flow at the processing step so it can be resumed.
func (f *flow) waitForCompletion(ctx context.Context, onUpdate polling.Update) (*tasks.Task, error) {
	if err := f.require(StepProcessing); err != nil {
		return nil, err
	}

	poller := polling.New(f.client, f.pollOpts, f.logger)
	task, err := poller.Wait(ctx, f.taskID, onUpdate)
	if err != nil {
		return nil, err
	}

	f.final = task
	if task.Status == tasks.StatusCompleted {
		f.step = StepDone
	} else {
		f.step = StepFailed
	}
	f.logger.Info("flow finished",
		logging.String(logging.FieldTaskID, f.taskID),
		logging.String("status", string(task.Status)),
	)
	return task, nil
}
