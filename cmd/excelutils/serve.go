package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fanlychie/excelutils/internal/config"
	"github.com/fanlychie/excelutils/internal/logging"
	"github.com/fanlychie/excelutils/pkg/excelutils"
	"github.com/fanlychie/excelutils/pkg/excelutils/paging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

const defaultExportRows = 100

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve workbook downloads over HTTP",
		Long: `serve answers GET /export with a workbook of customers. The query parameters
rows, pageSize, maxRows and sheetName override the export settings per request.
rows may not exceed SERVER_MAX_EXPORT_ROWS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
			}
			return runServe(cmd, a, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default SERVER_HOST:SERVER_PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, a *app, addr string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := &server{cfg: a.cfg, logger: a.logger, source: sampleSource}
	if a.cfg.Database.URL != "" {
		src, closeSrc, err := openSource(ctx, a, 0)
		if err != nil {
			return err
		}
		defer closeSrc()
		s.source = func(int) paging.PageSource[Customer] { return src }
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// server handles workbook downloads.
type server struct {
	cfg    *config.Config
	logger *slog.Logger
	// source returns the customers to export; rows only bounds generated data.
	source func(rows int) paging.PageSource[Customer]
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Requests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/export", s.handleExport)
	return r
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	q := r.URL.Query()

	rows, err := queryInt(q.Get("rows"), min(defaultExportRows, s.cfg.Server.MaxExportRows))
	switch {
	case err != nil:
	case rows < 0:
		err = fmt.Errorf("rows must be non-negative")
	case rows > s.cfg.Server.MaxExportRows:
		err = fmt.Errorf("rows must be at most %d", s.cfg.Server.MaxExportRows)
	}
	if err != nil {
		http.Error(w, "invalid rows: "+err.Error(), http.StatusBadRequest)
		return
	}
	pageSize, err := queryInt(q.Get("pageSize"), s.cfg.Export.PageSize)
	if err != nil {
		http.Error(w, "invalid pageSize: "+err.Error(), http.StatusBadRequest)
		return
	}
	maxRows, err := queryInt(q.Get("maxRows"), s.cfg.Export.MaxRowsPerSheet)
	if err != nil {
		http.Error(w, "invalid maxRows: "+err.Error(), http.StatusBadRequest)
		return
	}
	sheetName := q.Get("sheetName")
	if sheetName == "" {
		sheetName = s.cfg.Export.SheetName
	}

	wb, err := excelutils.NewWriter(excelutils.WriteOptions[Customer]{
		SheetName:       sheetName,
		PageSize:        pageSize,
		MaxRowsPerSheet: maxRows,
		PageSource:      s.source(rows),
		Title:           "Customers",
		Creator:         "excelutils",
		Logger:          logger,
	})
	if err != nil {
		s.fail(w, logger, err)
		return
	}
	defer wb.Close()

	n, err := wb.Paging(r.Context())
	if err != nil {
		s.fail(w, logger, err)
		return
	}

	filename := "customers-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	if err := wb.ToHTTP(w, filename); err != nil {
		// Headers are already out.
		logger.Error("failed to send workbook", "error", err)
		return
	}
	logger.Info("workbook sent", "records", n, "sheets", len(wb.SheetNames()), "workbook_id", wb.ID())
}

func (s *server) fail(w http.ResponseWriter, logger *slog.Logger, err error) {
	if excelutils.KindOf(err) == excelutils.KindConfig {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.Error("export failed", "error", err)
	http.Error(w, "export failed", http.StatusInternalServerError)
}

func queryInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
