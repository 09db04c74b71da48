// File: cmd/relevance.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lodestar/api/schemas"
	"github.com/xkilldash9x/lodestar/internal/browser"
	"github.com/xkilldash9x/lodestar/internal/observability"
	"github.com/xkilldash9x/lodestar/internal/relevance"
	"github.com/xkilldash9x/lodestar/internal/staticdom"
)

// newRelevanceCmd creates the `relevance` command.
func newRelevanceCmd() *cobra.Command {
	var (
		url      string
		fromFile string
		keywords []string
		minScore float64
		maxItems int
		output   string
	)

	cmd := &cobra.Command{
		Use:   "relevance",
		Short: "Rank a page's content blocks by keyword relevance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (url == "") == (fromFile == "") {
				return fmt.Errorf("pass exactly one of --url or --from-file")
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()

			var doc schemas.DocumentQuerier
			if fromFile != "" {
				parsed, err := staticdom.ParseFile(fromFile)
				if err != nil {
					return err
				}
				doc = parsed
			} else {
				mgr := browser.NewManager(ctx, cfg.Browser, logger)
				defer mgr.Shutdown(ctx)

				session, err := mgr.NewSession(ctx)
				if err != nil {
					return err
				}
				if err := session.Navigate(ctx, url); err != nil {
					return err
				}
				doc = session
			}

			if minScore < 0 {
				minScore = cfg.Relevance.MinScore
			}
			if maxItems <= 0 {
				maxItems = cfg.Relevance.MaxItems
			}

			filter := relevance.New(cfg.Relevance, logger)
			items, err := filter.FilterBlocks(ctx, doc, keywords, minScore, maxItems)
			if err != nil {
				return err
			}
			return writeOutput(output, items)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "page URL to rank")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "saved HTML file to rank")
	cmd.Flags().StringSliceVarP(&keywords, "keywords", "k", nil, "keywords that boost a block's score")
	cmd.Flags().Float64Var(&minScore, "min-score", -1, "minimum score to keep a block")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "maximum number of blocks to return")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
