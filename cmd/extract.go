// File: cmd/extract.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/browser"
	"github.com/xkilldash9x/lodestar/internal/extract"
	"github.com/xkilldash9x/lodestar/internal/observability"
	"github.com/xkilldash9x/lodestar/internal/orchestrator"
	"github.com/xkilldash9x/lodestar/internal/staticdom"
)

// newExtractCmd creates the `extract` command.
func newExtractCmd() *cobra.Command {
	var (
		queryFile string
		urls      []string
		fromFiles []string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract typed fields from pages using a query file",
		Long: `Extract resolves every field of a query against one or more pages.
Fields missing a selector are inferred from their name; selectors that no
longer match are healed via text and semantic fallbacks and remembered
for the next run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(urls) == 0 && len(fromFiles) == 0 {
				return fmt.Errorf("nothing to extract: pass --url or --from-file")
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()

			q, err := loadQuery(queryFile)
			if err != nil {
				return err
			}

			loc, cleanup, err := buildLocator(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()
			ex := extract.New(loc, cfg.Extraction, logger)

			var results []orchestrator.Result

			for _, path := range fromFiles {
				results = append(results, extractFromFile(ctx, ex, path, q))
			}

			if len(urls) > 0 {
				mgr := browser.NewManager(ctx, cfg.Browser, logger)
				defer mgr.Shutdown(ctx)

				opener := func(c context.Context) (orchestrator.Page, error) {
					return mgr.NewSession(c)
				}
				orch := orchestrator.New(cfg.Orchestrator, opener, ex, logger)

				batch, err := orch.ExtractAll(ctx, urls, q)
				if err != nil {
					return err
				}
				results = append(results, batch...)
			}

			return writeOutput(output, results)
		},
	}

	cmd.Flags().StringVarP(&queryFile, "query", "q", "", "query file (json or yaml)")
	cmd.Flags().StringSliceVarP(&urls, "url", "u", nil, "page URL to extract from (repeatable)")
	cmd.Flags().StringSliceVar(&fromFiles, "from-file", nil, "saved HTML file to extract from (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func extractFromFile(ctx context.Context, ex *extract.Extractor, path string, q schemas.Query) orchestrator.Result {
	doc, err := staticdom.ParseFile(path)
	if err != nil {
		return orchestrator.Result{URL: path, Success: false, Error: err.Error()}
	}
	data, err := ex.ExtractQuery(ctx, doc, q)
	if err != nil {
		return orchestrator.Result{URL: path, Success: false, Error: err.Error()}
	}
	return orchestrator.Result{URL: path, Success: true, Data: data}
}
