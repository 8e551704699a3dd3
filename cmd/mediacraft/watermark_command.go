package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediacraft/internal/wizard"
)

func newWatermarkCommand(ctx *commandContext) *cobra.Command {
	var regionSpecs []string
	var frameNumber int
	var frameCount int
	var listFrames bool
	var noWait bool
	var download bool

	cmd := &cobra.Command{
		Use:   "watermark FILE",
		Short: "Remove watermarks from a video",
		Long: `Watermark uploads one video, picks a reference frame, and marks the
pixel regions to erase. Regions use the reference frame's coordinate
space. Use --list-frames first to see which frames are available.`,
		Example: `  mediacraft watermark clip.mp4 --list-frames
  mediacraft watermark clip.mp4 --frame 120 --region 10,20,200,60`,
		Args: cobra.ExactArgs(1),
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

			if !listFrames && len(regionSpecs) == 0 {
				return fmt.Errorf("at least one --region is required (or use --list-frames to inspect the video first)")
			}

			w := wizard.NewWatermarkWizard(client, ctx.uploadLimits(), ctx.pollOptions(), ctx.ensureLogger())

			prog := newUploadProgress(out)
			err = w.Submit(cmd.Context(), args[0], func(percent int) {
				prog.Callback()(0, args[0], percent)
			})
			prog.Stop()
			if err != nil {
				_ = notifier.NotifyUploadFailed(cmd.Context(), w.TaskID(), args[0], err)
				return err
			}
			fmt.Fprintf(out, "Created watermark task %s\n", w.TaskID())

			frames, err := w.Frames(cmd.Context(), frameCount)
			if err != nil {
				return err
			}

			if listFrames {
				headers := []string{"Frame", "Timestamp"}
				rows := make([][]string, 0, len(frames.Frames))
				for _, frame := range frames.Frames {
					rows = append(rows, []string{
						fmt.Sprintf("%d", frame.FrameNumber),
						fmt.Sprintf("%.2fs", frame.Timestamp),
					})
				}
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignRight, alignRight}))
				fmt.Fprintf(out, "Video: %d frames, %.2f fps, %.2fs\n",
					frames.VideoInfo.TotalFrames, frames.VideoInfo.FPS, frames.VideoInfo.Duration)
				fmt.Fprintf(out, "Resume with: mediacraft watermark %s --frame N --region X,Y,W,H\n", args[0])
				return nil
			}

			chosen := frameNumber
			if chosen < 0 {
				if len(frames.Frames) == 0 {
					return fmt.Errorf("server returned no preview frames")
				}
				// Middle frame is the least likely to be a title card.
				chosen = frames.Frames[len(frames.Frames)/2].FrameNumber
			}
			if err := w.ChooseFrame(cmd.Context(), chosen); err != nil {
				return err
			}
			fmt.Fprintf(out, "Using reference frame %d\n", chosen)

			regions, err := w.Regions()
			if err != nil {
				return err
			}
			for _, spec := range regionSpecs {
				region, err := parseRegionSpec(spec)
				if err != nil {
					return err
				}
				if err := regions.Add(region); err != nil {
					return err
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

	cmd.Flags().StringArrayVar(&regionSpecs, "region", nil, "Watermark region: X,Y,WIDTH,HEIGHT in pixels (repeatable)")
	cmd.Flags().IntVar(&frameNumber, "frame", -1, "Reference frame number (defaults to the middle preview frame)")
	cmd.Flags().IntVar(&frameCount, "frame-count", 5, "How many preview frames to request")
	cmd.Flags().BoolVar(&listFrames, "list-frames", false, "Upload, list preview frames, and exit")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Start processing and return immediately")
	cmd.Flags().BoolVar(&download, "download", false, "Download the result when processing completes")
	return cmd
}
