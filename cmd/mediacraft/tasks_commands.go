package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediacraft/internal/api"
	"mediacraft/internal/polling"
	"mediacraft/internal/tasks"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and manage tasks",
	}

	tasksCmd.AddCommand(newTasksListCommand(ctx))
	tasksCmd.AddCommand(newTasksShowCommand(ctx))
	tasksCmd.AddCommand(newTasksWatchCommand(ctx))
	tasksCmd.AddCommand(newTasksCancelCommand(ctx))
	tasksCmd.AddCommand(newTasksDownloadCommand(ctx))
	tasksCmd.AddCommand(newTasksClearCacheCommand(ctx))

	return tasksCmd
}

func newTasksListCommand(ctx *commandContext) *cobra.Command {
	var page int
	var limit int
	var statusFilter string
	var typeFilter string
	var cached bool
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []tasks.Task

			switch {
			case cached:
				store, err := ctx.openCache()
				if err != nil {
					return err
				}
				defer store.Close()

				var statuses []tasks.Status
				if statusFilter != "" {
					status, ok := tasks.ParseStatus(statusFilter)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFilter)
					}
					statuses = append(statuses, status)
				}
				cachedTasks, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				for _, task := range cachedTasks {
					list = append(list, *task)
				}
			case all:
				client, err := ctx.apiClient()
				if err != nil {
					return err
				}
				list, err = client.UserTasks(cmd.Context())
				if err != nil {
					return err
				}
			default:
				client, err := ctx.apiClient()
				if err != nil {
					return err
				}
				opts := api.ListOptions{Page: page, Limit: limit}
				if statusFilter != "" {
					status, ok := tasks.ParseStatus(statusFilter)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFilter)
					}
					opts.Status = status
				}
				if typeFilter != "" {
					taskType, ok := tasks.ParseTaskType(typeFilter)
					if !ok {
						return fmt.Errorf("unknown task type %q", typeFilter)
					}
					opts.Type = taskType
				}
				result, err := client.ListTasks(cmd.Context(), opts)
				if err != nil {
					return err
				}
				list = result.Tasks

				// Mirror the fresh snapshots for offline listing later.
				if store, cacheErr := ctx.openCache(); cacheErr == nil {
					_ = store.PutAll(cmd.Context(), list)
					_ = store.Close()
				}
			}

			if asJSON {
				return writeJSON(cmd, list)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No tasks found")
				return nil
			}

			headers := []string{"Task", "Type", "Status", "Progress", "File", "Size", "Created"}
			rows := make([][]string, 0, len(list))
			for i := range list {
				task := &list[i]
				size := "-"
				if task.FileSize > 0 {
					size = formatBytes(task.FileSize)
				}
				name := task.OriginalFilename
				if name == "" {
					name = "-"
				}
				rows = append(rows, []string{
					task.TaskID,
					formatTaskType(task.TaskType),
					formatStatus(task.Status),
					formatProgress(task),
					name,
					size,
					formatTimestamp(task.CreatedAt),
				})
			}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Tasks per page")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status")
	cmd.Flags().StringVar(&typeFilter, "type", "", "Filter by task type (watermark_removal, video_merge)")
	cmd.Flags().BoolVar(&cached, "cached", false, "List from the local cache without contacting the server")
	cmd.Flags().BoolVar(&all, "all", false, "List the account's full task history without paging")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newTasksShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show TASK_ID",
		Short: "Show one task in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			task, err := client.TaskStatus(cmd.Context(), args[0])
			if err != nil {
				if api.IsNotFound(err) {
					return fmt.Errorf("task %s not found", args[0])
				}
				return err
			}

			if store, cacheErr := ctx.openCache(); cacheErr == nil {
				_ = store.Put(cmd.Context(), task)
				_ = store.Close()
			}

			if asJSON {
				return writeJSON(cmd, task)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task: %s\n", task.TaskID)
			fmt.Fprintf(out, "Type: %s\n", formatTaskType(task.TaskType))
			fmt.Fprintf(out, "Status: %s\n", formatStatus(task.Status))
			if !task.IsTerminal() {
				fmt.Fprintf(out, "Progress: %d%%\n", task.ProgressPercentage)
			}
			if task.ProgressMessage != "" {
				fmt.Fprintf(out, "Message: %s\n", task.ProgressMessage)
			}
			if task.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", task.ErrorMessage)
			}
			fmt.Fprintf(out, "Created: %s\n", formatTimestamp(task.CreatedAt))
			if task.StartedAt != nil {
				fmt.Fprintf(out, "Started: %s\n", formatTimestamp(*task.StartedAt))
			}
			if task.CompletedAt != nil {
				fmt.Fprintf(out, "Completed: %s\n", formatTimestamp(*task.CompletedAt))
			}

			if len(task.Config.Files) > 0 {
				fmt.Fprintln(out, "Files:")
				for _, f := range task.Config.Files {
					fmt.Fprintf(out, "  %s (%s, %.2fs)\n", f.Filename, formatBytes(f.Size), f.Duration)
				}
			}
			if len(task.Config.Segments) > 0 {
				fmt.Fprintln(out, "Segments:")
				for _, seg := range task.Config.Segments {
					end := "end"
					if seg.EndTime != nil {
						end = fmt.Sprintf("%.2fs", *seg.EndTime)
					}
					fmt.Fprintf(out, "  %d. %s [%.2fs - %s]\n", seg.Order, seg.Filename, seg.StartTime, end)
				}
			}
			if task.Downloadable() {
				fmt.Fprintf(out, "Result: %s\n", client.DownloadURL(task.TaskID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func newTasksWatchCommand(ctx *commandContext) *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "watch TASK_ID",
		Short: "Poll a task until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			poller := polling.New(client, ctx.pollOptions(), ctx.ensureLogger())
			final, err := poller.Wait(cmd.Context(), args[0], newStatusPrinter(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			return finishTask(cmd, ctx, final, download, cfg.Paths.DownloadDir)
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "Download the result when processing completes")
	return cmd
}

func newTasksCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel TASK_ID",
		Short: "Cancel a task that has not started processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.CancelTask(cmd.Context(), args[0]); err != nil {
				if msg := api.ServerMessage(err); msg != "" {
					return fmt.Errorf("cancel task: %s", msg)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled task %s\n", args[0])
			return nil
		},
	}
}

func newTasksDownloadCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download TASK_ID",
		Short: "Download a completed task's result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.Paths.DownloadDir
			}

			path, err := downloadResult(cmd.Context(), client, args[0], dir)
			if err != nil {
				if msg := api.ServerMessage(err); msg != "" {
					return fmt.Errorf("download: %s", msg)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved result to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to save into (defaults to the configured download dir)")
	return cmd
}

func newTasksClearCacheCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop finished tasks from the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.ClearTerminal(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished tasks from the cache\n", removed)
			return nil
		},
	}
}
