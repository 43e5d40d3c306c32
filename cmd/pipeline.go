package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/polog/internal/config"
	"github.com/sells-group/polog/internal/model"
	"github.com/sells-group/polog/internal/normalize"
	"github.com/sells-group/polog/internal/reader"
	"github.com/sells-group/polog/internal/store"
)

// loadSources reads each input path into a (name, bytes) pair.
func loadSources(paths []string) ([]model.Source, error) {
	sources := make([]model.Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "read input %s", p)
		}
		sources = append(sources, model.Source{Name: filepath.Base(p), Data: data})
	}
	return sources, nil
}

// openCache builds the configured cache backend, or nil when caching is off.
func openCache(ctx context.Context, cfg *config.Config) (store.Cache, error) {
	switch cfg.Cache.Driver {
	case "off":
		return nil, nil
	case "postgres":
		c, err := store.NewPostgres(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	default:
		c, err := store.NewSQLite(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	}
}

// runPipeline decodes the sources and normalizes them, consulting the
// content-addressed cache on the way in and populating it on the way out.
func runPipeline(ctx context.Context, cfg *config.Config, sources []model.Source, cache store.Cache) (*model.Dataset, model.QualityLedger, error) {
	start := time.Now()

	key := store.Key(sources)
	if cache != nil {
		entry, ok, err := cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("pipeline: cache lookup failed", zap.Error(err))
		} else if ok {
			zap.L().Info("pipeline: cache hit",
				zap.String("run_id", entry.RunID),
				zap.Int("rows", entry.Dataset.Len()),
			)
			return entry.Dataset, entry.Ledger, nil
		}
	}

	tables, errs := reader.DecodeAll(sources, reader.Options{})
	for _, err := range errs {
		zap.L().Warn("pipeline: source skipped", zap.Error(err))
	}
	if len(tables) == 0 {
		return nil, model.QualityLedger{}, eris.New("pipeline: no readable sources")
	}

	cutoff, err := cfg.Pipeline.Cutoff()
	if err != nil {
		return nil, model.QualityLedger{}, err
	}
	aliases, err := normalize.LoadAliases(cfg.Pipeline.AliasesPath)
	if err != nil {
		return nil, model.QualityLedger{}, err
	}

	ds, ledger := normalize.Run(tables, normalize.Options{Cutoff: cutoff, Aliases: aliases})

	if cache != nil {
		entry := &store.Entry{RunID: ledger.RunID, Dataset: ds, Ledger: ledger}
		if err := cache.Put(ctx, key, entry); err != nil {
			zap.L().Warn("pipeline: cache store failed", zap.Error(err))
		}
	}

	zap.L().Info("pipeline: pass complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("sources", len(sources)),
		zap.Int("rows_retained", ledger.RowsRetained),
	)
	return ds, ledger, nil
}

// filterFlags holds the shared filter flag values for report and export.
type filterFlags struct {
	from, to               string
	requestFrom, requestTo string
	account, requisitioner string
	vendors                []string
	statuses               []string
	minTotal, maxTotal     float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "order date range start (YYYY-MM-DD, default dataset min)")
	cmd.Flags().StringVar(&f.to, "to", "", "order date range end (YYYY-MM-DD, default dataset max)")
	cmd.Flags().StringVar(&f.requestFrom, "request-from", "", "request date range start (enables the request date filter)")
	cmd.Flags().StringVar(&f.requestTo, "request-to", "", "request date range end")
	cmd.Flags().StringVar(&f.account, "account", model.SelectAll, "purchase account (exact match)")
	cmd.Flags().StringVar(&f.requisitioner, "requisitioner", model.SelectAll, "requisitioner (exact match)")
	cmd.Flags().StringArrayVar(&f.vendors, "vendor", nil, "vendor name (repeatable)")
	cmd.Flags().StringArrayVar(&f.statuses, "status", nil, "PO status (repeatable)")
	cmd.Flags().Float64Var(&f.minTotal, "min-total", 0, "minimum line total")
	cmd.Flags().Float64Var(&f.maxTotal, "max-total", 0, "maximum line total")
}

// state builds a FilterState over the dataset's defaults from the flag
// values the user actually set.
func (f *filterFlags) state(cmd *cobra.Command, defaults model.FilterState) (model.FilterState, error) {
	fs := defaults
	fs.PurchaseAccount = f.account
	fs.Requisitioner = f.requisitioner
	fs.Vendors = f.vendors
	for _, s := range f.statuses {
		fs.Statuses = append(fs.Statuses, model.POStatus(s))
	}

	var err error
	if fs.OrderStart, err = overrideDate(f.from, fs.OrderStart); err != nil {
		return fs, err
	}
	if fs.OrderEnd, err = overrideDate(f.to, fs.OrderEnd); err != nil {
		return fs, err
	}
	if f.requestFrom != "" || f.requestTo != "" {
		fs.RequestEnabled = true
		if fs.RequestStart, err = overrideDate(f.requestFrom, fs.RequestStart); err != nil {
			return fs, err
		}
		if fs.RequestEnd, err = overrideDate(f.requestTo, fs.RequestEnd); err != nil {
			return fs, err
		}
	}

	if cmd.Flags().Changed("min-total") {
		v := f.minTotal
		fs.TotalMin = &v
	}
	if cmd.Flags().Changed("max-total") {
		v := f.maxTotal
		fs.TotalMax = &v
	}

	return fs, nil
}

func overrideDate(flag string, fallback time.Time) (time.Time, error) {
	if flag == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", flag)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse date %q", flag)
	}
	return t, nil
}
