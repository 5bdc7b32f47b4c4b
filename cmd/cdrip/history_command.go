package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cdrip/internal/history"
)

var statusTitle = cases.Title(language.English)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent rips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			batches, err := store.RecentBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(batches) == 0 {
				fmt.Fprintln(out, "No rips recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(batches))
			for _, b := range batches {
				rows = append(rows, []string{
					shortID(b.ID),
					humanize.Time(b.StartedAt),
					b.Album,
					b.Format,
					statusTitle.String(b.Status),
					fmt.Sprintf("%d/%d", b.Succeeded, b.Total),
				})
			}
			headers := []string{"ID", "Started", "Album", "Format", "Status", "Tracks"}
			fmt.Fprintln(out, renderTable(headers, rows, tableOptions{
				aligns: []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				plain:  !isTerminal(out),
			}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of rips to show (0 for all)")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the per-track results of one rip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			batch, err := findBatch(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			tracks, err := store.Tracks(cmd.Context(), batch.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Album:   %s\n", batch.Album)
			if batch.Artist != "" {
				fmt.Fprintf(out, "Artist:  %s\n", batch.Artist)
			}
			fmt.Fprintf(out, "Format:  %s\n", batch.Format)
			fmt.Fprintf(out, "Output:  %s\n", batch.OutputDir)
			fmt.Fprintf(out, "Status:  %s (%d of %d tracks succeeded)\n", statusTitle.String(batch.Status), batch.Succeeded, batch.Total)
			fmt.Fprintf(out, "Started: %s\n", batch.StartedAt.Format(time.RFC3339))
			if !batch.FinishedAt.IsZero() {
				fmt.Fprintf(out, "Took:    %s\n", batch.FinishedAt.Sub(batch.StartedAt).Round(time.Second))
			}

			rows := make([][]string, 0, len(tracks))
			for _, t := range tracks {
				detail := t.Path
				if t.Error != "" {
					detail = fmt.Sprintf("%s: %s", t.ErrorKind, t.Error)
				}
				rows = append(rows, []string{
					fmt.Sprintf("%02d", t.Number),
					t.Title,
					statusTitle.String(t.Status),
					t.Duration.Round(time.Second).String(),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Title", "Status", "Time", "Detail"}, rows, tableOptions{
				aligns: []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				plain:  !isTerminal(out),
			}))
			return nil
		},
	}
}

func (c *commandContext) requireHistory() (*history.Store, error) {
	store, err := c.openHistory()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("rip history is disabled (set history.enabled = true)")
	}
	return store, nil
}

// findBatch resolves a full id or a unique id prefix.
func findBatch(ctx context.Context, store *history.Store, id string) (history.Batch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return history.Batch{}, errors.New("batch id is required")
	}
	batch, err := store.GetBatch(ctx, id)
	if err == nil || !errors.Is(err, history.ErrNotFound) {
		return batch, err
	}

	batches, err := store.RecentBatches(ctx, 0)
	if err != nil {
		return history.Batch{}, err
	}
	var matches []history.Batch
	for _, b := range batches {
		if strings.HasPrefix(b.ID, id) {
			matches = append(matches, b)
		}
	}
	switch len(matches) {
	case 0:
		return history.Batch{}, fmt.Errorf("%w: %s", history.ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return history.Batch{}, fmt.Errorf("batch id %q is ambiguous (%d matches)", id, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
