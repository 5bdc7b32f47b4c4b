package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cdrip/internal/config"
	"cdrip/internal/metadata"
)

func newManifestCommand() *cobra.Command {
	var title, artist string
	var tracks int
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "manifest <path>",
		Short:       "Write an album manifest with placeholder track titles to edit before ripping",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if tracks <= 0 {
				return errors.New("--tracks must be at least 1")
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("manifest already exists at %s (use --overwrite to replace it)", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check manifest path: %w", err)
				}
			}

			album := metadata.Placeholder(title, tracks)
			album.Artist = strings.TrimSpace(artist)
			for i := range album.Tracks {
				album.Tracks[i].Artist = album.Artist
			}
			if err := metadata.WriteAlbum(path, album); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d-track manifest to %s\n", tracks, path)
			fmt.Fprintf(cmd.OutOrStdout(), "Rip with: cdrip rip --manifest %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Album title")
	cmd.Flags().StringVar(&artist, "artist", "", "Album artist, also applied to every track")
	cmd.Flags().IntVarP(&tracks, "tracks", "n", 0, "Number of tracks")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing manifest")
	return cmd
}
