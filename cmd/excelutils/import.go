package main

import (
	"fmt"

	"github.com/fanlychie/excelutils/internal/config"
	"github.com/fanlychie/excelutils/pkg/excelutils"
	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/spf13/cobra"
)

type importOptions struct {
	sheet        int
	startRow     int
	pageSize     int
	format       string
	detectHeader bool
	printArea    bool
	password     string
}

func newImportCmd(a *app) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import <input.xlsx>",
		Short: "Read customers from a workbook",
		Long: `import decodes customers from an xlsx workbook and prints them as a table,
YAML or JSON. With --page-size the records are printed one page at a time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.merge(cmd, a.cfg.Import)
			return runImport(cmd, a, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.sheet, "sheet", 0, "1-based sheet to read, 0 for every sheet")
	f.IntVar(&opts.startRow, "start-row", 0, "First row decoded (default IMPORT_START_ROW)")
	f.IntVar(&opts.pageSize, "page-size", 0, "Print records in pages of this size (default IMPORT_PAGE_SIZE)")
	f.StringVar(&opts.format, "format", FormatTable, "Output format: table, yaml, json")
	f.BoolVar(&opts.detectHeader, "detect-header", false, "Start below the detected header row")
	f.BoolVar(&opts.printArea, "print-area", false, "Stop at the last row of each sheet's print area")
	f.StringVar(&opts.password, "password", "", "Password of an encrypted workbook")
	return cmd
}

// merge fills the options not given on the command line from cfg.
func (o *importOptions) merge(cmd *cobra.Command, cfg config.ImportConfig) {
	f := cmd.Flags()
	if !f.Changed("start-row") {
		o.startRow = cfg.StartRow
	}
	if !f.Changed("page-size") {
		o.pageSize = cfg.PageSize
	}
}

func runImport(cmd *cobra.Command, a *app, path string, opts *importOptions) error {
	if opts.sheet < 0 {
		return fmt.Errorf("invalid sheet: %d (must be non-negative)", opts.sheet)
	}

	m, err := mapping.For[Customer](mapping.Default)
	if err != nil {
		return err
	}
	p, err := newPrinter(cmd.OutOrStdout(), opts.format, m)
	if err != nil {
		return err
	}

	pages := 0
	r, err := excelutils.NewReader(excelutils.ReadOptions[Customer]{
		Path:          path,
		Password:      opts.password,
		StartRow:      opts.startRow,
		DetectHeader:  opts.detectHeader,
		PrintAreaOnly: opts.printArea,
		PageSize:      opts.pageSize,
		PageSink: func(page []Customer) error {
			pages++
			a.logger.Debug("page decoded", "page", pages, "records", len(page))
			return p.Print(page)
		},
		Logger: a.logger,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	if opts.pageSize > 0 {
		var n int
		if opts.sheet == 0 {
			n, err = r.Paging()
		} else {
			n, err = r.PagingSheet(opts.sheet)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		a.logger.Info("import finished", "records", n, "pages", pages)
		return nil
	}

	var records []Customer
	if opts.sheet == 0 {
		records, err = r.Read()
	} else {
		records, err = r.ReadSheet(opts.sheet)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if err := p.Print(records); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	a.logger.Info("import finished", "records", len(records))
	return nil
}
