package tasks

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  Status
		ok    bool
	}{
		{"processing", StatusProcessing, true},
		{" Completed ", StatusCompleted, true},
		{"FAILED", StatusFailed, true},
		{"created", StatusCreated, true},
		{"", "", false},
		{"exploded", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStatus(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, status := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		if !status.IsTerminal() {
			t.Errorf("expected %s to be terminal", status)
		}
	}
	for _, status := range []Status{StatusCreated, StatusUploaded, StatusQueued, StatusProcessing} {
		if status.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", status)
		}
	}
}

func TestValidateTimeRange(t *testing.T) {
	cases := []struct {
		name     string
		start    float64
		end      float64
		duration float64
		wantErr  bool
	}{
		{"valid", 3, 5, 12.4, false},
		{"valid unknown duration", 3, 5, 0, false},
		{"start after end", 5, 3, 12.4, true},
		{"start equals end", 4, 4, 12.4, true},
		{"negative start", -1, 5, 12.4, true},
		{"end past duration", 0, 13, 12.4, true},
		{"full range", 0, 12.4, 12.4, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTimeRange(tc.start, tc.end, tc.duration)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateTimeRange(%v, %v, %v) = %v, wantErr=%v", tc.start, tc.end, tc.duration, err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTimeRange) {
				t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
			}
		})
	}
}

func TestRegionValidate(t *testing.T) {
	if err := (Region{X: 10, Y: 10, Width: 50, Height: 40}).Validate(); err != nil {
		t.Fatalf("valid region rejected: %v", err)
	}
	for _, region := range []Region{
		{Width: 0, Height: 40},
		{Width: 50, Height: 0},
		{Width: -5, Height: 40},
		{X: -1, Y: 20, Width: 50, Height: 40},
		{X: 10, Y: -3, Width: 50, Height: 40},
	} {
		if err := region.Validate(); !errors.Is(err, ErrInvalidRegion) {
			t.Errorf("region %+v: expected ErrInvalidRegion, got %v", region, err)
		}
	}
}

func TestFullRange(t *testing.T) {
	seg := FullRange("a.mp4", 12.4, 2)
	if seg.StartTime != 0 || seg.EndTime == nil || *seg.EndTime != 12.4 || seg.Order != 2 {
		t.Fatalf("unexpected segment: %+v", seg)
	}

	unknown := FullRange("b.mp4", 0, 0)
	if unknown.EndTime != nil {
		t.Fatalf("expected nil end time for unknown duration, got %v", *unknown.EndTime)
	}
}
