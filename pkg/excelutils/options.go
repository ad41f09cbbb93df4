// Package excelutils maps Go structs to xlsx rows and back.
//
// A Reader streams records out of a workbook sheet by sheet, optionally handing
// them to a sink one page at a time. A Writer streams records into a workbook,
// pulling them page by page from a source if asked to, and starts a new sheet
// whenever the current one reaches its row cap.
package excelutils

import (
	"io"
	"log/slog"
	"time"

	"github.com/fanlychie/excelutils/pkg/excelutils/engine"
	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/fanlychie/excelutils/pkg/excelutils/paging"
)

// ReadOptions configures a Reader.
type ReadOptions[T any] struct {
	// Source and Path name the workbook; exactly one must be set.
	Source io.Reader
	Path   string
	// Password opens an encrypted workbook.
	Password string
	// StartRow is the first 1-based row decoded on every sheet; 0 reads from row 1.
	StartRow int
	// DetectHeader starts decoding below the row holding the column names,
	// falling back to StartRow when no such row is found.
	DetectHeader bool
	// PrintAreaOnly stops decoding a sheet below the last row of its print area, if it has one.
	PrintAreaOnly bool
	// PageSize and PageSink drive Paging.
	PageSize int
	PageSink func(page []T) error
	// Labels maps display labels back to raw values before conversion.
	Labels map[string]string
	// Location is the zone date cells are read in; nil selects UTC. Use the Location the
	// workbook was written with to get the same instants back.
	Location *time.Location
	// Registry resolves T's mapping; nil selects mapping.Default.
	Registry *mapping.Registry
	Logger   *slog.Logger
}

// Validate checks the options that do not depend on the workbook.
func (o ReadOptions[T]) Validate() error {
	switch {
	case o.Source == nil && o.Path == "":
		return configError("read", "no source or path")
	case o.Source != nil && o.Path != "":
		return configError("read", "both source and path set")
	case o.StartRow < 0:
		return configError("read", "start row %d is negative", o.StartRow)
	case o.PageSize < 0:
		return configError("read", "page size %d is negative", o.PageSize)
	}
	return nil
}

func (o ReadOptions[T]) validatePaging() error {
	switch {
	case o.PageSize <= 0:
		return configError("paging", "page size must be positive")
	case o.PageSink == nil:
		return configError("paging", "no page sink")
	}
	return nil
}

// WriteOptions configures a Writer.
type WriteOptions[T any] struct {
	// SheetName is the base of default sheet names; "Sheet" gives Sheet1, Sheet2, ...
	SheetName string
	// SheetNamer names sheets by ordinal, overriding SheetName.
	SheetNamer paging.SheetNamer
	// PageSize is the number of records requested per fetch (default 100).
	PageSize int
	// FirstPage is the first page requested (default 1).
	FirstPage int
	// MaxRowsPerSheet caps the rows of each sheet, header included (default the worksheet limit).
	MaxRowsPerSheet int
	// PageSource feeds Paging.
	PageSource paging.PageSource[T]
	// Style is the sheet look; nil selects DefaultStyle.
	Style *models.SheetStyle
	// Labels replaces raw values with display labels; nil falls back to Style.Labels.
	Labels map[string]string
	// Password encrypts the output.
	Password string
	// Location is the zone whose wall clock date cells show; nil selects UTC.
	Location *time.Location
	// Title and Creator are stored in the document properties.
	Title    string
	Creator  string
	Registry *mapping.Registry
	Logger   *slog.Logger
}

// Validate checks the options.
func (o WriteOptions[T]) Validate() error {
	if o.PageSize < 0 {
		return configError("write", "page size %d is negative", o.PageSize)
	}
	if err := o.schedulerOptions().Validate(); err != nil {
		return &Error{Kind: KindConfig, Op: "write", Err: err}
	}
	return nil
}

func (o WriteOptions[T]) schedulerOptions() paging.Options {
	return paging.Options{
		BaseName:        o.SheetName,
		Namer:           o.SheetNamer,
		PageSize:        o.PageSize,
		FirstPage:       o.FirstPage,
		MaxRowsPerSheet: o.MaxRowsPerSheet,
		Logger:          o.Logger,
	}
}

func (o WriteOptions[T]) engineOptions() engine.Options {
	return engine.Options{
		Style:    o.Style,
		Labels:   o.Labels,
		Title:    o.Title,
		Creator:  o.Creator,
		Password: o.Password,
		Location: o.Location,
		Logger:   o.Logger,
	}
}

func registryOrDefault(r *mapping.Registry) *mapping.Registry {
	if r == nil {
		return mapping.Default
	}
	return r
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
