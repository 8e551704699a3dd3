package editor

import (
	"context"
	"fmt"
	"log/slog"

	"mediacraft/internal/logging"
	"mediacraft/internal/tasks"
)

// SegmentClient is the slice of the API client the segment editor needs.
type SegmentClient interface {
	UpdateSegment(ctx context.Context, taskID string, index int, startTime, endTime float64) error
	DeleteSegment(ctx context.Context, taskID string, index int) error
	ReorderSegments(ctx context.Context, taskID string, order []int) error
	StartMerge(ctx context.Context, taskID string, segments []tasks.Segment) error
	TaskStatus(ctx context.Context, taskID string) (*tasks.Task, error)
}

// SegmentEditor edits the merge plan for one task. Each uploaded file starts
// as a full-range segment; edits narrow, remove, or reorder them. Local state
// only moves after the server acknowledges the change, so a failed request
// leaves the plan exactly as it was.
type SegmentEditor struct {
	client   SegmentClient
	taskID   string
	segments []tasks.Segment
	logger   *slog.Logger
}

// NewSegmentEditor seeds the editor with one full-range segment per uploaded
// file, in upload order.
func NewSegmentEditor(client SegmentClient, taskID string, files []tasks.ConfigFile, logger *slog.Logger) *SegmentEditor {
	segments := make([]tasks.Segment, 0, len(files))
	for i, f := range files {
		segments = append(segments, tasks.FullRange(f.Filename, f.Duration, i))
	}
	return &SegmentEditor{
		client:   client,
		taskID:   taskID,
		segments: segments,
		logger:   logging.NewComponentLogger(logger, "editor"),
	}
}

// Segments returns a copy of the current merge plan.
func (e *SegmentEditor) Segments() []tasks.Segment {
	out := make([]tasks.Segment, len(e.segments))
	copy(out, e.segments)
	return out
}

// Len returns the number of segments in the plan.
func (e *SegmentEditor) Len() int { return len(e.segments) }

func (e *SegmentEditor) checkIndex(index int) error {
	if index < 0 || index >= len(e.segments) {
		return fmt.Errorf("segment index %d out of range (have %d)", index, len(e.segments))
	}
	return nil
}

// UpdateTimes narrows one segment to [startTime, endTime]. The range is
// validated against the source duration first, then sent to the server; the
// local segment changes only on acknowledgment.
func (e *SegmentEditor) UpdateTimes(ctx context.Context, index int, startTime, endTime float64) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	seg := e.segments[index]
	if err := tasks.ValidateTimeRange(startTime, endTime, seg.Duration); err != nil {
		return err
	}
	if err := e.client.UpdateSegment(ctx, e.taskID, index, startTime, endTime); err != nil {
		return err
	}

	end := endTime
	e.segments[index].StartTime = startTime
	e.segments[index].EndTime = &end
	e.logger.Debug("segment updated",
		logging.String(logging.FieldTaskID, e.taskID),
		logging.Int("segment_index", index),
		logging.Float64("start_time", startTime),
		logging.Float64("end_time", endTime),
	)
	return nil
}

// Reset restores one segment to the full source range. It is an explicit
// update to [0, duration] rather than a local-only change, so the server's
// plan and the editor's never diverge.
func (e *SegmentEditor) Reset(ctx context.Context, index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	duration := e.segments[index].Duration
	if duration <= 0 {
		return fmt.Errorf("segment %d has unknown duration; cannot reset", index)
	}
	return e.UpdateTimes(ctx, index, 0, duration)
}

// Delete removes one segment from the plan after the server acknowledges.
// Remaining segments keep their relative order and are renumbered.
func (e *SegmentEditor) Delete(ctx context.Context, index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	if len(e.segments) <= 1 {
		return fmt.Errorf("cannot delete the last remaining segment")
	}
	if err := e.client.DeleteSegment(ctx, e.taskID, index); err != nil {
		return err
	}

	e.segments = append(e.segments[:index], e.segments[index+1:]...)
	for i := range e.segments {
		e.segments[i].Order = i
	}
	e.logger.Debug("segment deleted",
		logging.String(logging.FieldTaskID, e.taskID),
		logging.Int("segment_index", index),
	)
	return nil
}

// Reorder replaces the merge order. order lists current indices in their new
// positions and must be a permutation of the full plan. On a server failure
// the editor refetches the task so local state cannot drift from a partially
// applied reorder.
func (e *SegmentEditor) Reorder(ctx context.Context, order []int) error {
	if len(order) != len(e.segments) {
		return fmt.Errorf("order lists %d segments, plan has %d", len(order), len(e.segments))
	}
	seen := make(map[int]bool, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(e.segments) || seen[idx] {
			return fmt.Errorf("order %v is not a permutation of 0..%d", order, len(e.segments)-1)
		}
		seen[idx] = true
	}

	if err := e.client.ReorderSegments(ctx, e.taskID, order); err != nil {
		if refreshErr := e.refresh(ctx); refreshErr != nil {
			e.logger.Warn("refresh after failed reorder failed",
				logging.String(logging.FieldTaskID, e.taskID),
				logging.Error(refreshErr),
			)
		}
		return err
	}

	reordered := make([]tasks.Segment, 0, len(order))
	for pos, idx := range order {
		seg := e.segments[idx]
		seg.Order = pos
		reordered = append(reordered, seg)
	}
	e.segments = reordered
	return nil
}

// refresh replaces local segments with the server's current plan.
func (e *SegmentEditor) refresh(ctx context.Context) error {
	task, err := e.client.TaskStatus(ctx, e.taskID)
	if err != nil {
		return err
	}
	if len(task.Config.Segments) > 0 {
		e.segments = append(e.segments[:0], task.Config.Segments...)
		return nil
	}
	segments := make([]tasks.Segment, 0, len(task.Config.Files))
	for i, f := range task.Config.Files {
		segments = append(segments, tasks.FullRange(f.Filename, f.Duration, i))
	}
	e.segments = segments
	return nil
}

// Start submits the final plan and asks the server to begin merging.
func (e *SegmentEditor) Start(ctx context.Context) error {
	if len(e.segments) == 0 {
		return fmt.Errorf("merge plan is empty")
	}
	return e.client.StartMerge(ctx, e.taskID, e.Segments())
}
