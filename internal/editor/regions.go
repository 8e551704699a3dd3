package editor

import (
	"context"
	"errors"
	"fmt"

	"mediacraft/internal/tasks"
)

// ErrRegionsSubmitted is returned when mutating a region set that has
// already been sent to the server.
var ErrRegionsSubmitted = errors.New("regions already submitted")

// RegionClient is the slice of the API client the region editor needs.
type RegionClient interface {
	SubmitRegions(ctx context.Context, taskID string, regions []tasks.Region) error
}

// RegionEditor collects watermark regions for one task. Regions accumulate
// locally and are sent in a single submission that also starts processing;
// after that the set is read-only.
type RegionEditor struct {
	client    RegionClient
	taskID    string
	regions   []tasks.Region
	submitted bool
}

// NewRegionEditor builds an empty region set for a task.
func NewRegionEditor(client RegionClient, taskID string) *RegionEditor {
	return &RegionEditor{client: client, taskID: taskID}
}

// Regions returns a copy of the current set.
func (e *RegionEditor) Regions() []tasks.Region {
	out := make([]tasks.Region, len(e.regions))
	copy(out, e.regions)
	return out
}

// Submitted reports whether the set has been sent to the server.
func (e *RegionEditor) Submitted() bool { return e.submitted }

// Add appends a region after validating its dimensions.
func (e *RegionEditor) Add(region tasks.Region) error {
	if e.submitted {
		return ErrRegionsSubmitted
	}
	if err := region.Validate(); err != nil {
		return err
	}
	e.regions = append(e.regions, region)
	return nil
}

// Remove drops the region at index.
func (e *RegionEditor) Remove(index int) error {
	if e.submitted {
		return ErrRegionsSubmitted
	}
	if index < 0 || index >= len(e.regions) {
		return fmt.Errorf("region index %d out of range (have %d)", index, len(e.regions))
	}
	e.regions = append(e.regions[:index], e.regions[index+1:]...)
	return nil
}

// Clear drops all regions.
func (e *RegionEditor) Clear() error {
	if e.submitted {
		return ErrRegionsSubmitted
	}
	e.regions = e.regions[:0]
	return nil
}

// Submit sends the set to the server and starts processing. At least one
// region is required. After a successful submission the editor is read-only;
// a failed submission leaves it editable.
func (e *RegionEditor) Submit(ctx context.Context) error {
	if e.submitted {
		return ErrRegionsSubmitted
	}
	if len(e.regions) == 0 {
		return fmt.Errorf("no regions selected")
	}
	if err := e.client.SubmitRegions(ctx, e.taskID, e.Regions()); err != nil {
		return err
	}
	e.submitted = true
	return nil
}
