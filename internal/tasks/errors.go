package tasks

import "errors"

var (
	// ErrInvalidTimeRange is returned when a segment edit violates
	// 0 <= start < end <= duration.
	ErrInvalidTimeRange = errors.New("segment time range invalid")

	// ErrInvalidRegion is returned for regions without positive dimensions.
	ErrInvalidRegion = errors.New("region dimensions must be positive")

	// ErrFileTooLarge is returned for files above the configured size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrUnsupportedType is returned for files outside the MIME allow list.
	ErrUnsupportedType = errors.New("file type not allowed")

	// ErrTooManyFiles is returned when the selection exceeds the file cap.
	ErrTooManyFiles = errors.New("too many files selected")

	// ErrTooFewFiles is returned when a merge has fewer than the required files.
	ErrTooFewFiles = errors.New("video merge requires at least two files")
)
