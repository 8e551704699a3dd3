package tasks

import "fmt"

// Segment selects a time sub-range of one uploaded source video for the merge.
// Duration is read-only once the server reports it; zero means unknown.
type Segment struct {
	Filename  string   `json:"filename"`
	StartTime float64  `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
	Duration  float64  `json:"duration,omitempty"`
	Order     int      `json:"order"`
}

// FullRange builds a segment covering the entire source video.
// A nil EndTime tells the server to use the full video when the duration
// is not yet known client-side.
func FullRange(filename string, duration float64, order int) Segment {
	seg := Segment{Filename: filename, StartTime: 0, Duration: duration, Order: order}
	if duration > 0 {
		end := duration
		seg.EndTime = &end
	}
	return seg
}

// ValidateTimeRange rejects edits that violate 0 <= start < end <= duration.
// The duration bound is only enforced when the source duration is known.
func ValidateTimeRange(start, end, duration float64) error {
	if start < 0 {
		return fmt.Errorf("%w: start %.3f is negative", ErrInvalidTimeRange, start)
	}
	if end <= start {
		return fmt.Errorf("%w: start %.3f must be before end %.3f", ErrInvalidTimeRange, start, end)
	}
	if duration > 0 && end > duration {
		return fmt.Errorf("%w: end %.3f exceeds duration %.3f", ErrInvalidTimeRange, end, duration)
	}
	return nil
}

// Region marks a pixel rectangle of the source frame for watermark removal.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate rejects regions outside the frame or without positive dimensions.
func (r Region) Validate() error {
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("%w: origin (%d,%d) is outside the frame", ErrInvalidRegion, r.X, r.Y)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidRegion, r.Width, r.Height)
	}
	return nil
}
