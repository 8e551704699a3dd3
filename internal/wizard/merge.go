package wizard

import (
	"context"
	"fmt"
	"log/slog"

	"mediacraft/internal/editor"
	"mediacraft/internal/logging"
	"mediacraft/internal/polling"
	"mediacraft/internal/tasks"
	"mediacraft/internal/upload"
)

// MergeWizard walks a video-merge task through create, upload, segment
// editing, and processing.
type MergeWizard struct {
	flow
	limits upload.Limits
	editor *editor.SegmentEditor
}

// NewMergeWizard starts a merge flow at the create step.
func NewMergeWizard(client Client, limits upload.Limits, pollOpts polling.Options, logger *slog.Logger) *MergeWizard {
	return &MergeWizard{
		flow: flow{
			client:   client,
			pollOpts: pollOpts,
			logger:   logging.NewComponentLogger(logger, "wizard"),
			step:     StepCreate,
		},
		limits: limits,
	}
}

// Create registers the task on the server and advances to the upload step.
func (w *MergeWizard) Create(ctx context.Context, taskName string) error {
	if err := w.require(StepCreate); err != nil {
		return err
	}
	result, err := w.client.CreateTask(ctx, tasks.TypeVideoMerge, taskName)
	if err != nil {
		return err
	}
	w.taskID = result.TaskID
	w.step = StepUpload
	w.logger.Info("merge task created", logging.String(logging.FieldTaskID, w.taskID))
	return nil
}

// Upload validates and uploads the source files in order, then seeds the
// segment editor from the server's view of the uploaded files. The step only
// advances when every file has been acknowledged.
func (w *MergeWizard) Upload(ctx context.Context, paths []string, progress upload.FileProgress) error {
	if err := w.require(StepUpload); err != nil {
		return err
	}

	coordinator := upload.NewCoordinator(w.client, w.limits, w.logger)
	if _, err := coordinator.Run(ctx, tasks.TypeVideoMerge, w.taskID, paths, progress); err != nil {
		return err
	}

	task, err := w.client.TaskStatus(ctx, w.taskID)
	if err != nil {
		return fmt.Errorf("fetch task after upload: %w", err)
	}
	if len(task.Config.Files) == 0 {
		return fmt.Errorf("server reports no uploaded files for task %s", w.taskID)
	}

	w.editor = editor.NewSegmentEditor(w.client, w.taskID, task.Config.Files, w.logger)
	w.step = StepEditSegments
	return nil
}

// Editor exposes the segment editor during the editing step.
func (w *MergeWizard) Editor() (*editor.SegmentEditor, error) {
	if err := w.require(StepEditSegments); err != nil {
		return nil, err
	}
	return w.editor, nil
}

// StartProcessing submits the merge plan and moves the flow to processing.
func (w *MergeWizard) StartProcessing(ctx context.Context) error {
	if err := w.require(StepEditSegments); err != nil {
		return err
	}
	if err := w.editor.Start(ctx); err != nil {
		return err
	}
	w.step = StepProcessing
	return nil
}

// WaitForCompletion polls until the merge finishes.
func (w *MergeWizard) WaitForCompletion(ctx context.Context, onUpdate polling.Update) (*tasks.Task, error) {
	return w.waitForCompletion(ctx, onUpdate)
}
