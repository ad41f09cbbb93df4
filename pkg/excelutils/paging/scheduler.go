// Package paging distributes records across sheets under a per-sheet row cap.
//
// A Scheduler either writes supplied records directly or pulls them page by page
// from a PageSource. Row 1 of every sheet is the header, so a sheet capped at M
// rows holds M-1 records.
package paging

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/xuri/excelize/v2"
)

// Defaults applied to zero-valued Options.
const (
	DefaultBaseName  = "Sheet"
	DefaultPageSize  = 100
	DefaultFirstPage = 1
)

// headerRows is the number of rows above the first record on every sheet.
const headerRows = 1

// PageSource fetches one page of records. An empty page or a page shorter than
// size ends the fetch loop.
type PageSource[T any] interface {
	FetchPage(ctx context.Context, page, offset, size int) ([]T, error)
}

// PageFunc adapts a function to PageSource.
type PageFunc[T any] func(ctx context.Context, page, offset, size int) ([]T, error)

// FetchPage calls f.
func (f PageFunc[T]) FetchPage(ctx context.Context, page, offset, size int) ([]T, error) {
	return f(ctx, page, offset, size)
}

// SheetNamer names the sheet with the given 1-based ordinal.
type SheetNamer func(ordinal int) string

// Book is the document the scheduler writes into.
type Book[T any] interface {
	// NewSheet creates a sheet and writes its header row.
	NewSheet(name string) error
	// WriteRow writes rec at a 1-based row of the current sheet.
	WriteRow(row int, rec T) error
}

// Options configures a Scheduler.
type Options struct {
	// BaseName prefixes default sheet names ("Sheet" gives Sheet1, Sheet2, ...).
	BaseName string
	// Namer overrides default sheet naming.
	Namer SheetNamer
	// PageSize is the number of records requested per fetch.
	PageSize int
	// FirstPage is the number of the first page requested.
	FirstPage int
	// MaxRowsPerSheet caps the rows of a sheet, header included.
	MaxRowsPerSheet int
	Logger          *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.BaseName == "" {
		o.BaseName = DefaultBaseName
	}
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}
	if o.FirstPage == 0 {
		o.FirstPage = DefaultFirstPage
	}
	if o.MaxRowsPerSheet == 0 {
		o.MaxRowsPerSheet = excelize.TotalRows
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	switch {
	case o.PageSize < 0:
		return &OptionError{Option: "page size", Value: o.PageSize, Reason: "must be positive"}
	case o.FirstPage < 1:
		return &OptionError{Option: "first page", Value: o.FirstPage, Reason: "must be at least 1"}
	case o.MaxRowsPerSheet <= headerRows:
		return &OptionError{Option: "max rows per sheet", Value: o.MaxRowsPerSheet, Reason: "must leave room for a record below the header"}
	case o.MaxRowsPerSheet > excelize.TotalRows:
		return &OptionError{Option: "max rows per sheet", Value: o.MaxRowsPerSheet, Reason: "exceeds the worksheet row limit"}
	}
	return nil
}

// Scheduler writes records into a Book, starting a new sheet whenever the
// current one is full. A Scheduler is not safe for concurrent use.
type Scheduler[T any] struct {
	book   Book[T]
	opts   Options
	cursor models.SheetCursor
	sheets []string
}

// New returns a scheduler writing into book.
func New[T any](book Book[T], opts Options) (*Scheduler[T], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler[T]{book: book, opts: opts.withDefaults()}, nil
}

// Cursor returns the current write position.
func (s *Scheduler[T]) Cursor() models.SheetCursor {
	return s.cursor
}

// Sheets returns the names of the sheets created so far.
func (s *Scheduler[T]) Sheets() []string {
	return append([]string(nil), s.sheets...)
}

// Capacity returns the number of records a single sheet holds.
func (s *Scheduler[T]) Capacity() int {
	return s.opts.MaxRowsPerSheet - headerRows
}

// Write starts a new sheet and writes records to it, continuing on further
// sheets if they do not fit. An empty name picks the default name.
func (s *Scheduler[T]) Write(name string, records []T) error {
	if err := s.newSheet(name); err != nil {
		return err
	}
	return s.write(records)
}

// Append writes records after the last written row, creating the first sheet if needed.
func (s *Scheduler[T]) Append(records []T) error {
	if !s.cursor.Started() {
		if err := s.newSheet(""); err != nil {
			return err
		}
	}
	return s.write(records)
}

// Run pulls pages from src until it runs dry and writes them after the last
// written row. The first sheet is created before the first fetch, so an empty
// source still yields a sheet with a header. It returns the number of records written.
func (s *Scheduler[T]) Run(ctx context.Context, src PageSource[T]) (int, error) {
	if src == nil {
		return 0, ErrNilSource
	}
	if !s.cursor.Started() {
		if err := s.newSheet(""); err != nil {
			return 0, err
		}
	}

	size := s.opts.PageSize
	total := 0
	for page := s.opts.FirstPage; ; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		offset := (page - 1) * size
		batch, err := src.FetchPage(ctx, page, offset, size)
		if err != nil {
			return total, &FetchError{Page: page, Offset: offset, Err: err}
		}
		s.opts.Logger.Debug("page fetched", "page", page, "offset", offset, "records", len(batch))

		if len(batch) == 0 {
			break
		}
		if err := s.write(batch); err != nil {
			return total, err
		}
		total += len(batch)

		if len(batch) < size {
			break
		}
	}
	return total, nil
}

// write places records at the cursor, splitting at the sheet boundary.
func (s *Scheduler[T]) write(records []T) error {
	for len(records) > 0 {
		remaining := s.Capacity() - s.cursor.RowsWritten
		if remaining <= 0 {
			if err := s.newSheet(""); err != nil {
				return err
			}
			continue
		}

		n := min(remaining, len(records))
		for _, rec := range records[:n] {
			if err := s.book.WriteRow(s.cursor.CurrentRowIndex, rec); err != nil {
				return &WriteError{Sheet: s.current(), Row: s.cursor.CurrentRowIndex, Err: err}
			}
			s.cursor.CurrentRowIndex++
			s.cursor.RowsWritten++
		}
		records = records[n:]
	}
	return nil
}

func (s *Scheduler[T]) newSheet(name string) error {
	ordinal := s.cursor.SheetOrdinal + 1
	if name == "" {
		name = s.nameFor(ordinal)
	}
	if err := s.book.NewSheet(name); err != nil {
		return &WriteError{Sheet: name, Err: err}
	}

	s.sheets = append(s.sheets, name)
	s.cursor = models.SheetCursor{
		CurrentRowIndex: headerRows + 1,
		SheetOrdinal:    ordinal,
	}
	s.opts.Logger.Debug("sheet created", "sheet", name, "ordinal", ordinal)
	return nil
}

func (s *Scheduler[T]) nameFor(ordinal int) string {
	if s.opts.Namer != nil {
		if name := s.opts.Namer(ordinal); name != "" {
			return name
		}
	}
	return s.opts.BaseName + strconv.Itoa(ordinal)
}

func (s *Scheduler[T]) current() string {
	if len(s.sheets) == 0 {
		return ""
	}
	return s.sheets[len(s.sheets)-1]
}
