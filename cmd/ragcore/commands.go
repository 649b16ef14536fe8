package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragcore/internal/app"
	"github.com/kailas-cloud/ragcore/internal/config"
	"github.com/kailas-cloud/ragcore/internal/domain/search/mode"
	searchuc "github.com/kailas-cloud/ragcore/internal/usecase/search"
	"github.com/kailas-cloud/ragcore/internal/version"
)

var (
	ingestNoSave bool

	searchK      int
	searchMode   string
	searchAlpha  float64
	searchFactor int

	askSession string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Index documents from a JSON array or JSON lines file (- for stdin)",
	Long: `Index documents from a JSON array or JSON lines file. Each record has
"content", an optional "id" (generated when absent) and optional "metadata".
Records whose id is already indexed are skipped. The index is saved afterwards
unless --no-save is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeSrc, err := openInput(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer closeSrc()

		adjust := func(c *config.Config) { c.Index.SaveOnShutdown = !ingestNoSave }
		return withApp(cmd.Context(), adjust, func(ctx context.Context, a *app.App) error {
			report, err := a.Ingest.Ingest(ctx, src)
			for _, p := range report.Problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "record %d (%s): %s: %v\n", p.Record(), p.ID(), p.Status(), p.Err())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "read %d, added %d, skipped %d, invalid %d, total %d\n",
				report.Read, report.Added, report.Skipped, report.Invalid, a.Store.Len())
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index and print ranked documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), readOnly, func(ctx context.Context, a *app.App) error {
			req := searchuc.Request{
				Query:        strings.Join(args, " "),
				K:            searchK,
				Mode:         mode.Mode(searchMode),
				Alpha:        *a.Config.Retrieval.Alpha,
				RerankFactor: searchFactor,
			}
			if req.K <= 0 {
				req.K = a.Config.Retrieval.TopK
			}
			if cmd.Flags().Changed("alpha") {
				req.Alpha = searchAlpha
			}
			if req.RerankFactor <= 0 {
				req.RerankFactor = a.Config.Retrieval.RerankFactor
			}

			results, err := a.Search.Search(ctx, req)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for i := range results {
				doc := results[i].Document()
				title, ok := doc.Metadata().Title()
				if !ok {
					title = doc.ID()
				}
				fmt.Fprintf(out, "%2d. %.4f  %s\n    %s\n", results[i].Rank(), results[i].Score(), title, snippet(doc.Content()))
			}
			return nil
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a question and print the response as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), readOnly, func(ctx context.Context, a *app.App) error {
			resp := a.RAG.Process(ctx, strings.Join(args, " "), askSession)
			return printJSON(cmd.OutOrStdout(), resp)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print index statistics as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), readOnly, func(_ context.Context, a *app.App) error {
			return printJSON(cmd.OutOrStdout(), a.Store.Stats())
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printJSON(cmd.OutOrStdout(), version.Get())
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestNoSave, "no-save", false, "do not save the index after ingesting")

	searchCmd.Flags().IntVarP(&searchK, "top-k", "k", 0, "number of results (default retrieval.top_k)")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(mode.Hybrid), "semantic, hybrid or rerank")
	searchCmd.Flags().Float64Var(&searchAlpha, "alpha", 0, "semantic weight for hybrid mode (default retrieval.alpha)")
	searchCmd.Flags().IntVar(&searchFactor, "rerank-factor", 0, "candidate multiplier for rerank mode")

	askCmd.Flags().StringVar(&askSession, "session", "", "session id echoed in the response")
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path) //nolint:gosec // path is an operator-supplied CLI argument
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= 120 {
		return s
	}
	return string(r[:120]) + "..."
}
