package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cdrip/internal/config"
	"cdrip/internal/engine"
	"cdrip/internal/playback"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Play a disc track or an audio file",
	}
	playCmd.AddCommand(newPlayCDCommand(ctx))
	playCmd.AddCommand(newPlayFileCommand(ctx))
	return playCmd
}

func newPlayCDCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cd <track>",
		Short: "Play one track from the inserted CD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			track, err := strconv.Atoi(args[0])
			if err != nil || track <= 0 {
				return fmt.Errorf("invalid track number %q", args[0])
			}
			cfg := ctx.configValue()

			eng, err := ctx.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			lock := ctx.driveLock()
			if err := lock.Acquire(cmd.Context(), time.Duration(cfg.Drive.LockTimeout)*time.Second); err != nil {
				return err
			}
			defer lock.Release()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Playing track %d from the CD (Ctrl+C to stop)\n", track)
			player := playback.NewCDTrackPlayer(eng, cfg, track, playerOptions(ctx, out)...)
			return player.Play(cmd.Context())
		},
	}
}

func newPlayFileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>",
		Short: "Play an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			eng, err := ctx.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Playing %s (Ctrl+C to stop)\n", path)
			player := playback.NewFilePlayer(eng, ctx.configValue(), path, playerOptions(ctx, out)...)
			return player.Play(cmd.Context())
		},
	}
}

func playerOptions(ctx *commandContext, out io.Writer) []playback.Option {
	return []playback.Option{
		playback.WithLogger(ctx.baseLogger()),
		playback.WithTagHandler(func(tags engine.Tags) {
			printTags(out, tags)
		}),
	}
}

func printTags(out io.Writer, tags engine.Tags) {
	if tags.Title != "" {
		fmt.Fprintf(out, "  Title:  %s\n", tags.Title)
	}
	if tags.Artist != "" {
		fmt.Fprintf(out, "  Artist: %s\n", tags.Artist)
	}
	if tags.Album != "" {
		fmt.Fprintf(out, "  Album:  %s\n", tags.Album)
	}
}
