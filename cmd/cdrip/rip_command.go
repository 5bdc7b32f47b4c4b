package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cdrip/internal/audio"
	"cdrip/internal/config"
	"cdrip/internal/engine"
	"cdrip/internal/metadata"
	"cdrip/internal/preflight"
	"cdrip/internal/services"
	"cdrip/internal/transcode"
)

type albumFlags struct {
	manifest string
	title    string
	tracks   int
}

func (f *albumFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.manifest, "manifest", "m", "", "Album manifest (TOML) with titles and artists")
	cmd.Flags().StringVar(&f.title, "title", "", "Album title when no manifest is given")
	cmd.Flags().IntVarP(&f.tracks, "tracks", "n", 0, "Number of audio tracks when no manifest is given")
}

// resolve returns the album to rip. discTracks is the track count reported
// by the drive, used when neither a manifest nor --tracks is given.
func (f *albumFlags) resolve(discTracks int) (metadata.AlbumDetails, error) {
	if path := strings.TrimSpace(f.manifest); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return metadata.AlbumDetails{}, err
		}
		return metadata.LoadAlbum(expanded)
	}
	count := f.tracks
	if count <= 0 {
		count = discTracks
	}
	if count <= 0 {
		return metadata.AlbumDetails{}, errors.New("track count unknown: pass --tracks or --manifest")
	}
	album := metadata.Placeholder(f.title, count)
	return album, album.Validate()
}

func resolveFormat(flag string, cfg *config.Config) (audio.Format, error) {
	value := strings.TrimSpace(flag)
	if value == "" {
		value = cfg.Encoding.DefaultFormat
	}
	return audio.ParseFormat(value)
}

func newRipCommand(ctx *commandContext) *cobra.Command {
	var album albumFlags
	var formatFlag string
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "rip",
		Short: "Rip every track of the inserted CD",
		Long: "Rip every track of the inserted CD into the output directory.\n\n" +
			"Track failures are reported and the rip continues with the next track.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			format, err := resolveFormat(formatFlag, cfg)
			if err != nil {
				return err
			}
			details, err := album.resolve(0)
			if err != nil {
				return err
			}

			eng, err := ctx.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			if !skipChecks {
				if err := checkRipReady(cmd.Context(), eng, cfg, format); err != nil {
					return err
				}
			}

			return runRip(cmd.Context(), ctx, eng, cmd.OutOrStdout(), details, format)
		},
	}

	album.register(cmd)
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format (opus, vorbis, flac, mp3, aac, wavpack)")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip element and format readiness checks")
	return cmd
}

func checkRipReady(ctx context.Context, eng engine.Engine, cfg *config.Config, format audio.Format) error {
	if failed := preflight.Ready(ctx, eng, cfg); len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, r := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return services.Wrap(services.ErrPrecondition, "rip", "preflight", strings.Join(parts, "; "), nil)
	}
	if !audio.NewValidator(eng, nil).Probe(format) {
		return services.Wrap(services.ErrUnsupportedFormat, "rip", "probe format",
			fmt.Sprintf("%s cannot be encoded with the installed plugins; run `cdrip formats` to see what can", format.Name()), nil)
	}
	return nil
}

func runRip(ctx context.Context, cmdCtx *commandContext, eng engine.Engine, out io.Writer, album metadata.AlbumDetails, format audio.Format) error {
	mgr, cleanup, err := cmdCtx.newManager(eng)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(out, "Ripping %q (%d tracks) to %s as %s\n", album.Title, len(album.Tracks), mgr.OutputDir(), format.Name())
	report, err := mgr.TranscodeAlbum(ctx, album, format)
	if err != nil {
		return err
	}

	printReport(out, report)
	switch {
	case report.Cancelled():
		return context.Canceled
	case report.Total() > 0 && report.Succeeded() == 0:
		return fmt.Errorf("rip failed: %s", report.Summary())
	}
	return nil
}

func printReport(out io.Writer, report transcode.Report) {
	rows := make([][]string, 0, len(report.Tracks))
	for _, t := range report.Tracks {
		result := "ok"
		detail := t.Path
		switch {
		case t.Cancelled:
			result = "cancelled"
			detail = ""
		case t.Err != nil:
			result = services.Kind(t.Err)
			detail = t.Err.Error()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%02d", t.Track.Number),
			t.Track.Title,
			dash(t.Track.DurationString()),
			result,
			t.Duration.Round(time.Second).String(),
			detail,
		})
	}
	headers := []string{"#", "Title", "Length", "Result", "Time", "Output"}
	fmt.Fprintln(out, renderTable(headers, rows, tableOptions{
		aligns: []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
		plain:  !isTerminal(out),
	}))
	fmt.Fprintf(out, "%s in %s\n", report.Summary(), report.Elapsed.Round(time.Second))
}
