package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"airmatch/internal/recon"
	"airmatch/internal/store"
)

func newExplainCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <artist> <title>",
		Short: "Show how a raw artist/title pair would be matched, without changing anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withService(cmd, func(ctx context.Context, svc *recon.Service, _ *store.Store) error {
				explanation, err := svc.Explain(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if cctx.jsonOutput() {
					return writeJSON(cmd, explanation)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "signature: %s\n", explanation.Signature)
				if explanation.Resolution.Aliased {
					fmt.Fprintf(out, "artist alias: %q -> %q\n", explanation.RawArtist, explanation.Resolution.Effective)
				}
				if explanation.Resolution.Ignored {
					fmt.Fprintf(out, "artist %q is marked never-match; no candidates generated\n", explanation.RawArtist)
					return nil
				}
				if explanation.Version != "" && explanation.BaseTitle != explanation.RawTitle {
					fmt.Fprintf(out, "title: %q (version: %s)\n", explanation.BaseTitle, explanation.Version)
				}
				if explanation.BridgeWorkID != 0 {
					fmt.Fprintf(out, "identity bridge decides the match: work %d\n", explanation.BridgeWorkID)
				}
				if explanation.Degraded {
					fmt.Fprintln(out, "note: semantic index unavailable, exact and fuzzy channels only")
				}
				if len(explanation.Candidates) == 0 {
					fmt.Fprintln(out, "no candidates; this pair would be rejected")
					return nil
				}
				rows := make([][]string, 0, len(explanation.Candidates))
				for _, candidate := range explanation.Candidates {
					rows = append(rows, []string{
						fmt.Sprintf("%d", candidate.Work.ID),
						candidate.Work.ArtistNames(),
						candidate.Work.Title,
						string(candidate.MatchType),
						formatScore(candidate.ArtistScore),
						formatScore(candidate.TitleScore),
						string(candidate.Category),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Work", "Artist", "Title", "Channel", "Artist Sim", "Title Sim", "Category"},
					rows, 1, 5, 6))
				return nil
			})
		},
	}
}
