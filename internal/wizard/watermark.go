package wizard

import (
	"context"
	"log/slog"

	"mediacraft/internal/api"
	"mediacraft/internal/editor"
	"mediacraft/internal/logging"
	"mediacraft/internal/polling"
	"mediacraft/internal/tasks"
	"mediacraft/internal/upload"
)

// WatermarkWizard walks a watermark-removal task through upload, frame
// selection, region selection, and processing.
type WatermarkWizard struct {
	flow
	limits  upload.Limits
	regions *editor.RegionEditor
}

// NewWatermarkWizard starts a watermark flow at the upload step. The task is
// created implicitly by the upload submission.
func NewWatermarkWizard(client Client, limits upload.Limits, pollOpts polling.Options, logger *slog.Logger) *WatermarkWizard {
	return &WatermarkWizard{
		flow: flow{
			client:   client,
			pollOpts: pollOpts,
			logger:   logging.NewComponentLogger(logger, "wizard"),
			step:     StepUpload,
		},
		limits: limits,
	}
}

// Submit uploads the single source file, creating the task in the same
// request, and advances to frame selection.
func (w *WatermarkWizard) Submit(ctx context.Context, path string, progress api.ProgressFunc) error {
	if err := w.require(StepUpload); err != nil {
		return err
	}
	if err := w.limits.ValidateBatch(tasks.TypeWatermarkRemoval, []string{path}); err != nil {
		return err
	}

	result, err := w.client.SubmitTask(ctx, tasks.TypeWatermarkRemoval, path, progress)
	if err != nil {
		return err
	}
	w.taskID = result.TaskID
	w.step = StepSelectFrame
	w.logger.Info("watermark task submitted", logging.String(logging.FieldTaskID, w.taskID))
	return nil
}

// Frames fetches preview frames for the selection step.
func (w *WatermarkWizard) Frames(ctx context.Context, count int) (*api.FrameSet, error) {
	if err := w.require(StepSelectFrame); err != nil {
		return nil, err
	}
	return w.client.Frames(ctx, w.taskID, count)
}

// ChooseFrame records the reference frame on the server and advances to
// region selection.
func (w *WatermarkWizard) ChooseFrame(ctx context.Context, frameNumber int) error {
	if err := w.require(StepSelectFrame); err != nil {
		return err
	}
	if err := w.client.SelectFrame(ctx, w.taskID, frameNumber); err != nil {
		return err
	}
	w.regions = editor.NewRegionEditor(w.client, w.taskID)
	w.step = StepSelectRegions
	return nil
}

// Regions exposes the region editor during the selection step.
func (w *WatermarkWizard) Regions() (*editor.RegionEditor, error) {
	if err := w.require(StepSelectRegions); err != nil {
		return nil, err
	}
	return w.regions, nil
}

// StartProcessing submits the regions and moves the flow to processing.
func (w *WatermarkWizard) StartProcessing(ctx context.Context) error {
	if err := w.require(StepSelectRegions); err != nil {
		return err
	}
	if err := w.regions.Submit(ctx); err != nil {
		return err
	}
	w.step = StepProcessing
	return nil
}

// WaitForCompletion polls until the removal finishes.
func (w *WatermarkWizard) WaitForCompletion(ctx context.Context, onUpdate polling.Update) (*tasks.Task, error) {
	return w.waitForCompletion(ctx, onUpdate)
}
