package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cdrip/internal/audio"
)

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List output formats and whether the installed plugins can encode them",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var validator *audio.Validator
			if probe {
				eng, err := ctx.openEngine()
				if err != nil {
					fmt.Fprintf(out, "Support unknown: %v\n\n", err)
				} else {
					defer eng.Close()
					validator = audio.NewValidator(eng, ctx.baseLogger())
				}
			}

			rows := make([][]string, 0, len(audio.AllFormats()))
			for _, f := range audio.AllFormats() {
				supported := "unknown"
				if validator != nil {
					supported = yesNo(validator.Probe(f))
				}
				rows = append(rows, []string{
					f.Key(),
					f.Name(),
					"." + f.Extension(),
					compressionLabel(f),
					supported,
				})
			}

			headers := []string{"Key", "Format", "Extension", "Compression", "Supported"}
			fmt.Fprintln(out, renderTable(headers, rows, tableOptions{plain: !isTerminal(out)}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", true, "Probe the media engine for encoder support")
	return cmd
}

func compressionLabel(f audio.Format) string {
	if f.IsLossless() {
		return "lossless"
	}
	return "lossy"
}
