package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/polog/internal/agg"
	"github.com/sells-group/polog/internal/filter"
	"github.com/sells-group/polog/internal/model"
	"github.com/sells-group/polog/internal/report"
)

var (
	serveInputs []string
	servePort   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive JSON view over the normalized dataset",
	Long: `Normalizes the inputs once at startup, then serves read-only JSON endpoints
for the quality ledger, KPIs, report sections, and the filtered CSV export.
Filters are passed as query parameters on each request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		sources, err := loadSources(serveInputs)
		if err != nil {
			return eris.Wrap(err, "serve: load inputs")
		}

		cache, err := openCache(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "serve: open cache")
		}
		if cache != nil {
			defer cache.Close() //nolint:errcheck
		}

		ds, ledger, err := runPipeline(ctx, cfg, sources, cache)
		if err != nil {
			return err
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/ledger", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, ledger)
		})

		r.Get("/api/kpis", func(w http.ResponseWriter, req *http.Request) {
			subset, ok := filteredSubset(w, req, ds)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"kpis":     agg.ComputeKPIs(subset),
				"delivery": agg.Delivery(subset),
			})
		})

		r.Get("/api/report", func(w http.ResponseWriter, req *http.Request) {
			subset, ok := filteredSubset(w, req, ds)
			if !ok {
				return
			}
			fs, _ := stateFromQuery(req, filter.DefaultState(ds))
			writeJSON(w, http.StatusOK, report.Build(subset, fs, cfg.Pipeline.TopN))
		})

		r.Get("/api/export", func(w http.ResponseWriter, req *http.Request) {
			subset, ok := filteredSubset(w, req, ds)
			if !ok {
				return
			}
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="purchase-orders.csv"`)
			if err := report.ExportCSV(subset, w); err != nil {
				zap.L().Error("serve: export failed", zap.Error(err))
			}
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Int("records", ds.Len()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringArrayVar(&serveInputs, "in", nil, "input file (repeatable, required)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	_ = serveCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(serveCmd)
}

// filteredSubset applies the request's filter parameters. A bad parameter
// is a 400; an empty result is a 200 with a no-results message.
func filteredSubset(w http.ResponseWriter, req *http.Request, ds *model.Dataset) (*model.Dataset, bool) {
	fs, err := stateFromQuery(req, filter.DefaultState(ds))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	subset := filter.Apply(ds, fs)
	if subset.Len() == 0 {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "no results found for the selected filters",
		})
		return nil, false
	}
	return subset, true
}

// stateFromQuery builds a FilterState from request query parameters.
func stateFromQuery(req *http.Request, defaults model.FilterState) (model.FilterState, error) {
	q := req.URL.Query()
	fs := defaults

	var err error
	if fs.OrderStart, err = overrideDate(q.Get("from"), fs.OrderStart); err != nil {
		return fs, err
	}
	if fs.OrderEnd, err = overrideDate(q.Get("to"), fs.OrderEnd); err != nil {
		return fs, err
	}
	if q.Get("request_from") != "" || q.Get("request_to") != "" {
		fs.RequestEnabled = true
		if fs.RequestStart, err = overrideDate(q.Get("request_from"), fs.RequestStart); err != nil {
			return fs, err
		}
		if fs.RequestEnd, err = overrideDate(q.Get("request_to"), fs.RequestEnd); err != nil {
			return fs, err
		}
	}

	if v := q.Get("account"); v != "" {
		fs.PurchaseAccount = v
	}
	if v := q.Get("requisitioner"); v != "" {
		fs.Requisitioner = v
	}
	fs.Vendors = q["vendor"]
	for _, s := range q["status"] {
		fs.Statuses = append(fs.Statuses, model.POStatus(s))
	}

	if v := q.Get("min_total"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fs, eris.Wrapf(err, "parse min_total %q", v)
		}
		fs.TotalMin = &f
	}
	if v := q.Get("max_total"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fs, eris.Wrapf(err, "parse max_total %q", v)
		}
		fs.TotalMax = &f
	}

	return fs, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
