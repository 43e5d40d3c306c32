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
	exportInputs  []string
	exportOut     string
	exportNoCache bool
	exportFilters filterFlags
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered canonical dataset as delimited text",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("pipeline"); err != nil {
			return err
		}

		sources, err := loadSources(exportInputs)
		if err != nil {
			return eris.Wrap(err, "export: load inputs")
		}

		cache, err := openCacheUnless(ctx, exportNoCache)
		if err != nil {
			return eris.Wrap(err, "export: open cache")
		}
		if cache != nil {
			defer cache.Close() //nolint:errcheck
		}

		ds, _, err := runPipeline(ctx, cfg, sources, cache)
		if err != nil {
			return err
		}

		fs, err := exportFilters.state(cmd, filter.DefaultState(ds))
		if err != nil {
			return err
		}
		subset := filter.Apply(ds, fs)
		if subset.Len() == 0 {
			fmt.Println("No results found for the selected filters; nothing to export.")
			return nil
		}

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrapf(err, "export: create %s", exportOut)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		if err := report.ExportCSV(subset, out); err != nil {
			return err
		}

		zap.L().Info("export: dataset written",
			zap.String("path", exportOut),
			zap.Int("rows", subset.Len()),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringArrayVar(&exportInputs, "in", nil, "input file (repeatable, required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "write the export to a file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportNoCache, "no-cache", false, "skip the pipeline cache")
	exportFilters.register(exportCmd)
	_ = exportCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(exportCmd)
}
