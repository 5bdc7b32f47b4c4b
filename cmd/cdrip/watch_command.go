package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cdrip/internal/disc"
	"cdrip/internal/logging"
	"cdrip/internal/notifications"
)

// driveReadyPolls bounds the wait for a drive that reported media but is
// still spinning up.
const driveReadyPolls = 10

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var album albumFlags
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rip every audio CD inserted into the drive until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			format, err := resolveFormat(formatFlag, cfg)
			if err != nil {
				return err
			}
			eng, err := ctx.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()
			if err := checkRipReady(cmd.Context(), eng, cfg, format); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			logger := ctx.baseLogger()
			notifier := notifications.NewService(cfg)

			handler := func(runCtx context.Context, ins disc.Insertion) error {
				if err := notifier.NotifyDiscDetected(runCtx, ins.Device, ins.AudioTracks); err != nil {
					logger.Warn("disc notification failed", logging.Error(err))
				}
				details, err := album.resolve(ins.AudioTracks)
				if err != nil {
					return err
				}
				if ins.Device != "" {
					if _, err := disc.WaitForReady(runCtx, ins.Device, driveReadyPolls, time.Second); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "Audio CD with %d tracks detected in %s\n", ins.AudioTracks, ins.Device)
				return runRip(runCtx, ctx, eng, out, details, format)
			}

			monitor := disc.NewMonitor(cfg.Drive.Device, logger, handler)
			if err := monitor.Start(cmd.Context()); err != nil {
				return err
			}
			defer monitor.Stop()

			fmt.Fprintln(out, "Watching for audio CDs (Ctrl+C to stop)")
			<-cmd.Context().Done()
			return nil
		},
	}

	album.register(cmd)
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format (opus, vorbis, flac, mp3, aac, wavpack)")
	return cmd
}
