package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"airmatch/internal/recon"
	"airmatch/internal/store"
)

func newDiscoverCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Run a discovery batch over all unmatched broadcast logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				run, err := svc.RunDiscovery(ctx)
				if err != nil {
					return err
				}
				return printRun(cmd, cctx, run)
			})
		},
	}
}

func newReEvaluateCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reevaluate",
		Short: "Reprocess the backlog under the current thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				run, err := svc.ReEvaluate(ctx)
				if err != nil {
					return err
				}
				return printRun(cmd, cctx, run)
			})
		},
	}
}

func printRun(cmd *cobra.Command, cctx *commandContext, run *store.Run) error {
	if cctx.jsonOutput() {
		return writeJSON(cmd, run)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s %s: %d/%d signatures, %d failures",
		run.ID, run.Status, run.ItemsDone, run.ItemsTotal, run.Failures)
	if run.Degraded {
		fmt.Fprint(cmd.OutOrStdout(), " (degraded: semantic index unavailable)")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
