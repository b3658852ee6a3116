package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"airmatch/internal/recon"
	"airmatch/internal/store"
)

func newThresholdsCommand(cctx *commandContext) *cobra.Command {
	thresholdsCmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Inspect and tune classification thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	thresholdsCmd.AddCommand(newThresholdsShowCommand(cctx))
	thresholdsCmd.AddCommand(newThresholdsSetCommand(cctx))
	return thresholdsCmd
}

func newThresholdsShowCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				t, err := svc.Thresholds(ctx)
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, t)
				}
				rows := [][]string{
					{"artist", formatScore(t.ArtistAuto), formatScore(t.ArtistReview)},
					{"title", formatScore(t.TitleAuto), formatScore(t.TitleReview)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Dimension", "Auto", "Review"}, rows, 2, 3))
				return nil
			})
		},
	}
}

func newThresholdsSetCommand(cctx *commandContext) *cobra.Command {
	var artistAuto, artistReview, titleAuto, titleReview float64
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the active thresholds",
		Long: "Replace the active thresholds. Existing links and queue items are\n" +
			"untouched; run `airmatch reevaluate` to apply the new values to the backlog.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				t, err := svc.Thresholds(ctx)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("artist-auto") {
					t.ArtistAuto = artistAuto
				}
				if cmd.Flags().Changed("artist-review") {
					t.ArtistReview = artistReview
				}
				if cmd.Flags().Changed("title-auto") {
					t.TitleAuto = titleAuto
				}
				if cmd.Flags().Changed("title-review") {
					t.TitleReview = titleReview
				}
				if err := svc.SetThresholds(ctx, t); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "thresholds updated; run `airmatch reevaluate` to apply them")
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&artistAuto, "artist-auto", 0, "Artist similarity required for automatic linking")
	cmd.Flags().Float64Var(&artistReview, "artist-review", 0, "Artist similarity required for review queueing")
	cmd.Flags().Float64Var(&titleAuto, "title-auto", 0, "Title similarity required for automatic linking")
	cmd.Flags().Float64Var(&titleReview, "title-review", 0, "Title similarity required for review queueing")
	return cmd
}
