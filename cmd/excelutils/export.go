package main

import (
	"context"
	"fmt"

	"github.com/fanlychie/excelutils/internal/config"
	"github.com/fanlychie/excelutils/pkg/excelutils"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/fanlychie/excelutils/pkg/excelutils/paging"
	"github.com/fanlychie/excelutils/pkg/excelutils/source"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	output    string
	rows      int
	pageSize  int
	maxRows   int
	sheetName string
	styleFile string
	password  string
	title     string
}

func newExportCmd(a *app) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write customers to a workbook",
		Long: `export pulls customers page by page and writes them to an xlsx workbook,
starting a new sheet whenever the current one reaches --max-rows (header included).
Customers come from DATABASE_URL when it is set and are generated otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.merge(cmd, a.cfg.Export)
			return runExport(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "customers.xlsx", "Output file path, - for stdout")
	f.IntVar(&opts.rows, "rows", 100, "Number of generated customers when no database is configured")
	f.IntVar(&opts.pageSize, "page-size", 0, "Records fetched per page (default EXPORT_PAGE_SIZE)")
	f.IntVar(&opts.maxRows, "max-rows", 0, "Rows per sheet, header included (default EXPORT_MAX_ROWS_PER_SHEET)")
	f.StringVar(&opts.sheetName, "sheet-name", "", "Base of generated sheet names (default EXPORT_SHEET_NAME)")
	f.StringVar(&opts.styleFile, "style", "", "YAML sheet style file (default EXPORT_STYLE_FILE)")
	f.StringVar(&opts.password, "password", "", "Encrypt the workbook with a password")
	f.StringVar(&opts.title, "title", "Customers", "Workbook title")
	return cmd
}

// merge fills the options not given on the command line from cfg.
func (o *exportOptions) merge(cmd *cobra.Command, cfg config.ExportConfig) {
	f := cmd.Flags()
	if !f.Changed("page-size") {
		o.pageSize = cfg.PageSize
	}
	if !f.Changed("max-rows") {
		o.maxRows = cfg.MaxRowsPerSheet
	}
	if !f.Changed("sheet-name") {
		o.sheetName = cfg.SheetName
	}
	if !f.Changed("style") {
		o.styleFile = cfg.StyleFile
	}
}

func runExport(cmd *cobra.Command, a *app, opts *exportOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.rows < 0 {
		return fmt.Errorf("invalid rows: %d (must be non-negative)", opts.rows)
	}

	var style *models.SheetStyle
	if opts.styleFile != "" {
		s, err := excelutils.LoadStyleFile(opts.styleFile)
		if err != nil {
			return err
		}
		style = s
	}

	src, closeSrc, err := openSource(ctx, a, opts.rows)
	if err != nil {
		return err
	}
	defer closeSrc()

	w, err := excelutils.NewWriter(excelutils.WriteOptions[Customer]{
		SheetName:       opts.sheetName,
		PageSize:        opts.pageSize,
		MaxRowsPerSheet: opts.maxRows,
		PageSource:      src,
		Style:           style,
		Password:        opts.password,
		Title:           opts.title,
		Creator:         "excelutils",
		Logger:          a.logger,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	n, err := w.Paging(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if opts.output == "-" {
		if _, err := w.WriteTo(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if err := w.ToFile(opts.output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	a.logger.Info("export finished",
		"records", n,
		"sheets", len(w.SheetNames()),
		"output", opts.output,
		"workbook_id", w.ID(),
	)
	return nil
}

// openSource returns the database source when one is configured and rows
// generated customers otherwise. The returned func releases the source.
func openSource(ctx context.Context, a *app, rows int) (paging.PageSource[Customer], func(), error) {
	db := a.cfg.Database
	if db.URL == "" {
		a.logger.Debug("no database configured, using generated customers", "rows", rows)
		return sampleSource(rows), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(db.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	a.logger.Info("connected to database", "max_conns", db.MaxConns)
	return source.NewPgSource[Customer](pool, db.Query), pool.Close, nil
}
