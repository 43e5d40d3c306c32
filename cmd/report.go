package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/polog/internal/filter"
	"github.com/sells-group/polog/internal/report"
)

var (
	reportInputs  []string
	reportOut     string
	reportNoCache bool
	reportFilters filterFlags
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the full pipeline and write the report document",
	Long: `Normalizes the inputs, applies the filters, computes every aggregate, and
writes the assembled report as markdown.

Examples:
  polog report --in orders.xlsx --out report.md
  polog report --in orders.xlsx --requisitioner "J. Smith" --from 2023-01-01`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("pipeline"); err != nil {
			return err
		}

		sources, err := loadSources(reportInputs)
		if err != nil {
			return eris.Wrap(err, "report: load inputs")
		}

		cache, err := openCacheUnless(ctx, reportNoCache)
		if err != nil {
			return eris.Wrap(err, "report: open cache")
		}
		if cache != nil {
			defer cache.Close() //nolint:errcheck
		}

		ds, ledger, err := runPipeline(ctx, cfg, sources, cache)
		if err != nil {
			return err
		}
		if ds.Len() == 0 {
			printLedger(ledger)
			return eris.New("report: no records survived normalization; check the ledger above")
		}

		fs, err := reportFilters.state(cmd, filter.DefaultState(ds))
		if err != nil {
			return err
		}
		subset := filter.Apply(ds, fs)
		if subset.Len() == 0 {
			fmt.Println("No results found for the selected filters. Adjust the filters and try again.")
			return nil
		}

		doc := report.Build(subset, fs, cfg.Pipeline.TopN)

		out := os.Stdout
		if reportOut != "" {
			f, err := os.Create(reportOut)
			if err != nil {
				return eris.Wrapf(err, "report: create %s", reportOut)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		if err := report.Render(doc, out); err != nil {
			return err
		}

		zap.L().Info("report: document written",
			zap.String("path", reportOut),
			zap.Int("sections", len(doc.Sections)),
			zap.Int("rows", subset.Len()),
		)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringArrayVar(&reportInputs, "in", nil, "input file (repeatable, required)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the document to a file (default: stdout)")
	reportCmd.Flags().BoolVar(&reportNoCache, "no-cache", false, "skip the pipeline cache")
	reportFilters.register(reportCmd)
	_ = reportCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(reportCmd)
}
