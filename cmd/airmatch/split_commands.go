package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"airmatch/internal/config"
	"airmatch/internal/store"
)

func newSplitsCommand(cctx *commandContext) *cobra.Command {
	splitsCmd := &cobra.Command{
		Use:   "splits",
		Short: "Review proposed artist collaboration splits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	splitsCmd.AddCommand(newSplitsListCommand(cctx))
	splitsCmd.AddCommand(newSplitsResolveCommand(cctx, "approve", store.SplitApproved))
	splitsCmd.AddCommand(newSplitsResolveCommand(cctx, "reject", store.SplitRejected))
	return splitsCmd
}

func newSplitsListCommand(cctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposed splits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				status := store.SplitPending
				if all {
					status = ""
				}
				splits, err := st.ListSplits(ctx, status)
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, splits)
				}
				if len(splits) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no proposed splits")
					return nil
				}
				rows := make([][]string, 0, len(splits))
				for _, split := range splits {
					rows = append(rows, []string{
						strconv.FormatInt(split.ID, 10),
						split.RawArtist,
						strings.Join(split.Parts, " | "),
						formatScore(split.Confidence),
						string(split.Status),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Raw Artist", "Parts", "Confidence", "Status"}, rows, 1, 4))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include resolved proposals")
	return cmd
}

func newSplitsResolveCommand(cctx *commandContext, verb string, status store.SplitStatus) *cobra.Command {
	short := "Approve a proposed split"
	if status == store.SplitRejected {
		short = "Reject a proposed split"
	}
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("split id %q is not a number", args[0])
			}
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				if err := st.SetSplitStatus(ctx, id, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "split %d %s\n", id, status)
				return nil
			})
		},
	}
}
