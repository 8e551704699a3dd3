package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mediacraft/internal/tasks"
)

// parseSegmentSpec parses "INDEX:START-END" (seconds, decimals allowed),
// e.g. "0:3-5" or "1:0-12.4".
func parseSegmentSpec(spec string) (index int, start, end float64, err error) {
	head, rangePart, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok {
		return 0, 0, 0, fmt.Errorf("segment %q: want INDEX:START-END", spec)
	}
	index, err = strconv.Atoi(strings.TrimSpace(head))
	if err != nil || index < 0 {
		return 0, 0, 0, fmt.Errorf("segment %q: bad index", spec)
	}
	startPart, endPart, ok := strings.Cut(rangePart, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("segment %q: want INDEX:START-END", spec)
	}
	start, err = strconv.ParseFloat(strings.TrimSpace(startPart), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("segment %q: bad start time", spec)
	}
	end, err = strconv.ParseFloat(strings.TrimSpace(endPart), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("segment %q: bad end time", spec)
	}
	return index, start, end, nil
}

// parseRegionSpec parses "X,Y,WIDTH,HEIGHT" in pixels, e.g. "10,20,200,60".
func parseRegionSpec(spec string) (tasks.Region, error) {
	parts := strings.Split(strings.TrimSpace(spec), ",")
	if len(parts) != 4 {
		return tasks.Region{}, fmt.Errorf("region %q: want X,Y,WIDTH,HEIGHT", spec)
	}
	values := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return tasks.Region{}, fmt.Errorf("region %q: bad value %q", spec, part)
		}
		values[i] = v
	}
	region := tasks.Region{X: values[0], Y: values[1], Width: values[2], Height: values[3]}
	if err := region.Validate(); err != nil {
		return tasks.Region{}, err
	}
	return region, nil
}

// parseOrderSpec parses "2,0,1" into segment indices.
func parseOrderSpec(spec string) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(spec), ",")
	order := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("order %q: bad index %q", spec, part)
		}
		order = append(order, v)
	}
	return order, nil
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatStatus(status tasks.Status) string {
	s := string(status)
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "_", " ")
}

func formatTaskType(taskType tasks.TaskType) string {
	switch taskType {
	case tasks.TypeVideoMerge:
		return "merge"
	case tasks.TypeWatermarkRemoval:
		return "watermark"
	default:
		if taskType == "" {
			return "-"
		}
		return string(taskType)
	}
}

func formatProgress(task *tasks.Task) string {
	if task.IsTerminal() {
		return "-"
	}
	return fmt.Sprintf("%d%%", task.ProgressPercentage)
}
