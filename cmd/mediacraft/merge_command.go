package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediacraft/internal/tasks"
	"mediacraft/internal/wizard"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var taskName string
	var segmentSpecs []string
	var deleteIndices []int
	var orderSpec string
	var noWait bool
	var download bool

	cmd := &cobra.Command{
		Use:   "merge FILE...",
		Short: "Merge videos into one file",
		Long: `Merge uploads the given videos in order, applies any segment edits,
and starts server-side processing. Segments are addressed by their
zero-based position; every file starts as a full-range segment.`,
		Example: `  mediacraft merge a.mp4 b.mp4
  mediacraft merge a.mp4 b.mp4 --segment 0:3-5 --order 1,0 --download`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			notifier := ctx.notifier()

			w := wizard.NewMergeWizard(client, ctx.uploadLimits(), ctx.pollOptions(), ctx.ensureLogger())
			if err := w.Create(cmd.Context(), taskName); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created merge task %s\n", w.TaskID())

			prog := newUploadProgress(out)
			err = w.Upload(cmd.Context(), args, prog.Callback())
			prog.Stop()
			if err != nil {
				_ = notifier.NotifyUploadFailed(cmd.Context(), w.TaskID(), "", err)
				return err
			}

			ed, err := w.Editor()
			if err != nil {
				return err
			}
			for _, spec := range segmentSpecs {
				index, start, end, err := parseSegmentSpec(spec)
				if err != nil {
					return err
				}
				if err := ed.UpdateTimes(cmd.Context(), index, start, end); err != nil {
					return fmt.Errorf("edit segment %d: %w", index, err)
				}
			}
			for _, index := range deleteIndices {
				if err := ed.Delete(cmd.Context(), index); err != nil {
					return fmt.Errorf("delete segment %d: %w", index, err)
				}
			}
			if orderSpec != "" {
				order, err := parseOrderSpec(orderSpec)
				if err != nil {
					return err
				}
				if err := ed.Reorder(cmd.Context(), order); err != nil {
					return fmt.Errorf("reorder segments: %w", err)
				}
			}

			if err := w.StartProcessing(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Processing started")

			if noWait {
				fmt.Fprintf(out, "Check progress with: mediacraft tasks watch %s\n", w.TaskID())
				return nil
			}

			final, err := w.WaitForCompletion(cmd.Context(), newStatusPrinter(out))
			if err != nil {
				return err
			}
			return finishTask(cmd, ctx, final, download, cfg.Paths.DownloadDir)
		},
	}

	cmd.Flags().StringVar(&taskName, "name", "", "Task name shown in listings")
	cmd.Flags().StringArrayVar(&segmentSpecs, "segment", nil, "Narrow a segment: INDEX:START-END in seconds (repeatable)")
	cmd.Flags().IntSliceVar(&deleteIndices, "delete", nil, "Remove a segment by index (repeatable)")
	cmd.Flags().StringVar(&orderSpec, "order", "", "New merge order as comma-separated indices, e.g. 1,0")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Start processing and return immediately")
	cmd.Flags().BoolVar(&download, "download", false, "Download the result when processing completes")
	return cmd
}

// newStatusPrinter emits a line whenever the polled status or progress
// changes, avoiding a line per poll.
func newStatusPrinter(out interface{ Write([]byte) (int, error) }) func(*tasks.Task) {
	var lastStatus tasks.Status
	lastPercent := -1
	return func(task *tasks.Task) {
		if task.Status == lastStatus && task.ProgressPercentage == lastPercent {
			return
		}
		lastStatus = task.Status
		lastPercent = task.ProgressPercentage
		if task.IsTerminal() {
			return
		}
		if task.Status == tasks.StatusProcessing {
			fmt.Fprintf(out, "Status: %s (%d%%)\n", formatStatus(task.Status), task.ProgressPercentage)
			return
		}
		fmt.Fprintf(out, "Status: %s\n", formatStatus(task.Status))
	}
}

// finishTask reports the terminal outcome, records it in the local cache,
// sends notifications, and optionally downloads the result.
func finishTask(cmd *cobra.Command, ctx *commandContext, task *tasks.Task, download bool, downloadDir string) error {
	out := cmd.OutOrStdout()
	notifier := ctx.notifier()

	if cache, err := ctx.openCache(); err == nil {
		_ = cache.Put(cmd.Context(), task)
		_ = cache.Close()
	}

	switch task.Status {
	case tasks.StatusCompleted:
		_ = notifier.NotifyTaskCompleted(cmd.Context(), task)
		fmt.Fprintf(out, "Task %s completed\n", task.TaskID)
	case tasks.StatusFailed:
		_ = notifier.NotifyTaskFailed(cmd.Context(), task)
		if task.ErrorMessage != "" {
			return fmt.Errorf("task %s failed: %s", task.TaskID, task.ErrorMessage)
		}
		return fmt.Errorf("task %s failed", task.TaskID)
	case tasks.StatusCancelled:
		fmt.Fprintf(out, "Task %s was cancelled\n", task.TaskID)
		return nil
	}

	if download && task.Downloadable() {
		client, err := ctx.apiClient()
		if err != nil {
			return err
		}
		path, err := downloadResult(cmd.Context(), client, task.TaskID, downloadDir)
		if err != nil {
			return fmt.Errorf("download result: %w", err)
		}
		fmt.Fprintf(out, "Saved result to %s\n", path)
	} else if task.Status == tasks.StatusCompleted {
		client, err := ctx.apiClient()
		if err == nil {
			fmt.Fprintf(out, "Result: %s\n", client.DownloadURL(task.TaskID))
		}
	}
	return nil
}
