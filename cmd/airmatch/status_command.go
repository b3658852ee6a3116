package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"airmatch/internal/recon"
	"airmatch/internal/store"
)

func newStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show run state and backlog depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				report, err := svc.Status(ctx)
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				if report.ActiveRun != nil {
					run := report.ActiveRun
					fmt.Fprintf(out, "active %s run %s: %d/%d signatures, %d failures\n",
						run.Kind, run.ID, run.ItemsDone, run.ItemsTotal, run.Failures)
				} else if report.LatestRun != nil {
					run := report.LatestRun
					fmt.Fprintf(out, "last %s run %s: %s, %d/%d signatures, %d failures\n",
						run.Kind, run.ID, run.Status, run.ItemsDone, run.ItemsTotal, run.Failures)
					if run.Degraded {
						fmt.Fprintln(out, "  (degraded: semantic index was unavailable)")
					}
				} else {
					fmt.Fprintln(out, "no runs recorded")
				}
				fmt.Fprintf(out, "unmatched logs: %d\n", report.Unmatched)
				fmt.Fprintf(out, "review queue:   %d\n", report.QueueDepth)
				fmt.Fprintf(out, "pending splits: %d\n", report.PendingSplit)
				return nil
			})
		},
	}
}

func newUndoCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <audit-id>",
		Short: "Reverse a linking action by its audit id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				if err := svc.Undo(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "undid audit %s\n", args[0])
				return nil
			})
		},
	}
}
