package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"airmatch/internal/config"
	"airmatch/internal/store"
)

func newAliasCommand(cctx *commandContext) *cobra.Command {
	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage artist aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	aliasCmd.AddCommand(newAliasListCommand(cctx))
	aliasCmd.AddCommand(newAliasSetCommand(cctx))
	aliasCmd.AddCommand(newAliasIgnoreCommand(cctx))
	aliasCmd.AddCommand(newAliasUnsetCommand(cctx))
	return aliasCmd
}

func newAliasListCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List artist aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				aliases, err := st.ListAliases(ctx)
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, aliases)
				}
				if len(aliases) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no aliases configured")
					return nil
				}
				rows := make([][]string, 0, len(aliases))
				for _, alias := range aliases {
					target := "(never match)"
					if alias.Canonical != nil {
						target = *alias.Canonical
					}
					rows = append(rows, []string{alias.RawName, target})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Raw Name", "Resolves To"}, rows))
				return nil
			})
		},
	}
}

func newAliasSetCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <raw-name> <canonical-name>",
		Short: "Map a raw artist string to a canonical artist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				canonical := args[1]
				if _, err := st.SetAlias(ctx, args[0], &canonical); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%q now resolves to %q\n", args[0], canonical)
				return nil
			})
		},
	}
}

func newAliasIgnoreCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <raw-name>",
		Short: "Mark a raw artist string as never matching anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				if _, err := st.SetAlias(ctx, args[0], nil); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%q will never match\n", args[0])
				return nil
			})
		},
	}
}

func newAliasUnsetCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <raw-name>",
		Short: "Remove an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				removed, err := st.RemoveAlias(ctx, args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no alias for %q", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed alias for %q\n", args[0])
				return nil
			})
		},
	}
}
