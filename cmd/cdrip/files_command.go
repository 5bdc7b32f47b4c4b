package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cdrip/internal/audiofile"
	"cdrip/internal/config"
	"cdrip/internal/textutil"
)

func newFilesCommand(ctx *commandContext) *cobra.Command {
	var withTags bool

	cmd := &cobra.Command{
		Use:   "files [dir]",
		Short: "List audio files (defaults to the output directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ctx.configValue().Paths.OutputDir
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				dir = expanded
			}

			files, err := audiofile.List(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No audio files in %s\n", dir)
				return nil
			}

			headers := []string{"Name", "Size", "Modified"}
			if withTags {
				headers = append(headers, "Title", "Artist", "Album")
			}
			rows := make([][]string, 0, len(files))
			var total int64
			for _, f := range files {
				total += f.Size
				row := []string{f.Name(), humanize.Bytes(uint64(max(f.Size, 0))), humanize.Time(f.ModTime)}
				if withTags {
					tags, err := audiofile.ReadTags(f.Path)
					if err != nil {
						row = append(row, "-", "-", "-")
					} else {
						row = append(row, dash(tags.Title), dash(tags.Artist), dash(tags.Album))
					}
				}
				rows = append(rows, row)
			}

			fmt.Fprintln(out, renderTable(headers, rows, tableOptions{
				aligns: []columnAlignment{alignLeft, alignRight, alignLeft},
				plain:  !isTerminal(out),
			}))
			fmt.Fprintf(out, "%s in %s (%s)\n",
				textutil.Count(len(files), "file", "files"),
				dir,
				humanize.Bytes(uint64(max(total, 0))),
			)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withTags, "tags", "t", false, "Read title, artist and album tags")
	return cmd
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
