package main

import (
	"github.com/spf13/cobra"

	"cdrip/internal/audio"
	"cdrip/internal/deps"
	"cdrip/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, tools, GStreamer elements and format support",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			report := newCheckReport(cmd.OutOrStdout())

			report.heading("Paths")
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				report.line(verdictFor(r.Passed, false), r.Name, r.Detail)
			}
			drive := preflight.CheckDrive(cfg.Drive.Device)
			// Playing or transcoding files works without a drive.
			report.line(verdictFor(drive.Passed, true), drive.Name, drive.Detail)

			report.heading("Tools")
			reportDeps(report, preflight.CheckSystemDeps(cfg))

			report.heading("GStreamer")
			eng, err := ctx.openEngine()
			if err != nil {
				report.line(verdictFail, "Media engine", err.Error())
				return report.result()
			}
			defer eng.Close()
			reportDeps(report, preflight.CheckEngineElements(eng, cfg))

			report.heading("Formats")
			support := audio.NewValidator(eng, ctx.baseLogger()).Results()
			for _, f := range audio.AllFormats() {
				if support[f] {
					report.line(verdictPass, f.Name(), "supported")
				} else {
					report.line(verdictNote, f.Name(), "encoder or muxer plugin missing")
				}
			}
			return report.result()
		},
	}
}

func verdictFor(passed, optional bool) verdict {
	switch {
	case passed:
		return verdictPass
	case optional:
		return verdictNote
	default:
		return verdictFail
	}
}

func reportDeps(report *checkReport, statuses []deps.Status) {
	for _, s := range statuses {
		detail := s.Detail
		if s.Available {
			detail = s.Description
		}
		report.line(verdictFor(s.Available, s.Optional), s.Name, detail)
	}
}
