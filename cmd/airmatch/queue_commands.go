package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"airmatch/internal/config"
	"airmatch/internal/recon"
	"airmatch/internal/store"
)

func newQueueCommand(cctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and act on the review queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	queueCmd.AddCommand(newQueueListCommand(cctx))
	queueCmd.AddCommand(newQueueLinkCommand(cctx))
	queueCmd.AddCommand(newQueueDismissCommand(cctx))
	return queueCmd
}

func newQueueListCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List signatures awaiting review, most played first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				items, err := st.ListQueue(ctx)
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "review queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.Signature,
						item.RawArtist,
						item.RawTitle,
						strconv.Itoa(item.Occurrences),
						strconv.FormatInt(item.SuggestedWorkID, 10),
						formatScore(item.ArtistScore),
						formatScore(item.TitleScore),
						formatWarnings(item),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Signature", "Artist", "Title", "Plays", "Suggested", "Artist Sim", "Title Sim", "Warnings"},
					rows, 4, 5, 6, 7))
				return nil
			})
		},
	}
}

func newQueueLinkCommand(cctx *commandContext) *cobra.Command {
	var promote bool
	cmd := &cobra.Command{
		Use:   "link <signature> <work-id>",
		Short: "Confirm a match for a queued signature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("work id %q is not a number", args[1])
			}
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				audit, err := svc.Link(ctx, args[0], workID, promote)
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, audit)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "linked %d log(s) to work %d (audit %s)\n",
					len(audit.LogIDs), workID, audit.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&promote, "promote", false, "Also record a permanent identity bridge for this signature")
	return cmd
}

func newQueueDismissCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "dismiss <signature>",
		Aliases: []string{"reject"},
		Short:   "Remove a signature from the queue without linking",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				if err := svc.Dismiss(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dismissed %s\n", args[0])
				return nil
			})
		},
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}

func formatWarnings(item *store.QueueItem) string {
	if len(item.Warnings) == 0 {
		return ""
	}
	parts := make([]string, 0, len(item.Warnings))
	for _, w := range item.Warnings {
		parts = append(parts, string(w))
	}
	return strings.Join(parts, ",")
}
