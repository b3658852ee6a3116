package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"airmatch/internal/config"
	"airmatch/internal/normalize"
	"airmatch/internal/store"
)

func newCatalogCommand(cctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the curated music library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	catalogCmd.AddCommand(newCatalogAddCommand(cctx))
	catalogCmd.AddCommand(newCatalogListCommand(cctx))
	return catalogCmd
}

func newCatalogAddCommand(cctx *commandContext) *cobra.Command {
	var artists []string
	var version string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a work (and optionally a recording) to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(artists) == 0 {
				return fmt.Errorf("at least one --artist is required")
			}
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				work, err := st.UpsertWork(ctx, args[0], artists)
				if err != nil {
					return err
				}
				if version != "" {
					if _, err := st.AddRecording(ctx, work.ID, args[0], normalize.VersionType(version)); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "work %d: %s - %s\n", work.ID, work.ArtistNames(), work.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&artists, "artist", nil, "Artist name, repeatable and order-significant")
	cmd.Flags().StringVar(&version, "version", "", "Also record a version of this work (live, remix, ...)")
	return cmd
}

func newCatalogListCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List library works",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				works, err := st.ListWorks(ctx)
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, works)
				}
				if len(works) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "the library is empty")
					return nil
				}
				rows := make([][]string, 0, len(works))
				for _, work := range works {
					rows = append(rows, []string{
						strconv.FormatInt(work.ID, 10),
						work.ArtistNames(),
						work.Title,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Artist", "Title"}, rows, 1))
				return nil
			})
		},
	}
}

func newLogCommand(cctx *commandContext) *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Ingest broadcast log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	logCmd.AddCommand(newLogAddCommand(cctx))
	return logCmd
}

func newLogAddCommand(cctx *commandContext) *cobra.Command {
	var station string
	var playedAt string
	cmd := &cobra.Command{
		Use:   "add <artist> <title>",
		Short: "Record one play event exactly as broadcast",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			played := time.Now().UTC()
			if playedAt != "" {
				parsed, err := time.Parse(time.RFC3339, playedAt)
				if err != nil {
					return fmt.Errorf("played-at must be RFC 3339: %w", err)
				}
				played = parsed
			}
			return cctx.withStore(cmd, func(ctx context.Context, _ *config.Config, st *store.Store) error {
				log, err := st.InsertBroadcastLog(ctx, station, args[0], args[1], played)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "log %d recorded (signature %s)\n", log.ID, log.Signature)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&station, "station", "", "Broadcasting station identifier")
	cmd.Flags().StringVar(&playedAt, "played-at", "", "Play timestamp in RFC 3339 (defaults to now)")
	return cmd
}
