package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"airmatch/internal/config"
	"airmatch/internal/recon"
	"airmatch/internal/store"
)

func newBridgeCommand(cctx *commandContext) *cobra.Command {
	bridgeCmd := &cobra.Command{
		Use:   "bridge",
		Short: "Manage identity bridges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	bridgeCmd.AddCommand(newBridgeListCommand(cctx))
	bridgeCmd.AddCommand(newBridgeStateCommand(cctx, "revoke", true))
	bridgeCmd.AddCommand(newBridgeStateCommand(cctx, "restore", false))
	return bridgeCmd
}

func newBridgeListCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List identity bridges, active and revoked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				bridges, err := st.ListBridges(ctx)
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, bridges)
				}
				if len(bridges) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no bridges recorded")
					return nil
				}
				rows := make([][]string, 0, len(bridges))
				for _, bridge := range bridges {
					rows = append(rows, []string{
						strconv.FormatInt(bridge.ID, 10),
						bridge.Signature,
						strconv.FormatInt(bridge.WorkID, 10),
						bridge.RefArtist,
						bridge.RefTitle,
						string(bridge.State),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Signature", "Work", "Artist", "Title", "State"}, rows, 1, 3))
				return nil
			})
		},
	}
}

func newBridgeStateCommand(cctx *commandContext, verb string, revoke bool) *cobra.Command {
	short := "Revoke a bridge (soft delete, reversible)"
	if !revoke {
		short = "Restore a revoked bridge"
	}
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("bridge id %q is not a number", args[0])
			}
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				if revoke {
					err = svc.RevokeBridge(ctx, id)
				} else {
					err = svc.RestoreBridge(ctx, id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "bridge %d %sd\n", id, verb)
				return nil
			})
		},
	}
}
