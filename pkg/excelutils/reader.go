package excelutils

import (
	"iter"
	"log/slog"

	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/fanlychie/excelutils/pkg/excelutils/parser"
	"github.com/xuri/excelize/v2"
)

// Reader decodes records of type T from a workbook.
// The workbook is opened on first use and held until Close.
// A Reader is not safe for concurrent use.
type Reader[T any] struct {
	opts    ReadOptions[T]
	mapping *mapping.Mapping
	logger  *slog.Logger
	file    *excelize.File
	areas   map[string][]models.PrintArea
}

// NewReader validates opts and resolves the mapping of T. It does not open the workbook.
func NewReader[T any](opts ReadOptions[T]) (*Reader[T], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m, err := mapping.For[T](registryOrDefault(opts.Registry))
	if err != nil {
		return nil, wrap("resolve", "", err)
	}

	return &Reader[T]{
		opts:    opts,
		mapping: m,
		logger:  loggerOrDefault(opts.Logger),
	}, nil
}

func (r *Reader[T]) open() (*excelize.File, error) {
	if r.file != nil {
		return r.file, nil
	}

	var (
		f   *excelize.File
		err error
	)
	opts := excelize.Options{Password: r.opts.Password}
	if r.opts.Source != nil {
		f, err = excelize.OpenReader(r.opts.Source, opts)
	} else {
		f, err = excelize.OpenFile(r.opts.Path, opts)
	}
	if err != nil {
		return nil, openError(err)
	}

	r.file = f
	return f, nil
}

// SheetNames returns the sheet names in workbook order.
func (r *Reader[T]) SheetNames() ([]string, error) {
	f, err := r.open()
	if err != nil {
		return nil, err
	}
	return f.GetSheetList(), nil
}

// Records returns a pull iterator over the records of the sheet at a 1-based ordinal.
// Conversion errors are yielded in place of the failed row and iteration may continue.
func (r *Reader[T]) Records(ordinal int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		f, err := r.open()
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		sheet, err := parser.SheetByOrdinal(f, ordinal)
		if err != nil {
			var zero T
			yield(zero, wrap("read", "", err))
			return
		}
		r.sheet(f, sheet)(yield)
	}
}

// All returns a pull iterator over the records of every sheet in workbook order.
func (r *Reader[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		f, err := r.open()
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for _, sheet := range f.GetSheetList() {
			for rec, err := range r.sheet(f, sheet) {
				if !yield(rec, err) {
					return
				}
			}
		}
	}
}

func (r *Reader[T]) sheet(f *excelize.File, sheet string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		start, err := r.startRow(f, sheet)
		if err != nil {
			var zero T
			yield(zero, wrap("read", sheet, err))
			return
		}
		end := r.endRow(f, sheet)
		r.logger.Debug("reading sheet", "sheet", sheet, "start_row", start, "end_row", end)

		a := parser.NewAssembler[T](r.mapping, parser.AssemblerOptions{
			Sheet:    sheet,
			StartRow: start,
			EndRow:   end,
			Labels:   r.opts.Labels,
			Location: r.opts.Location,
		})
		for rec, err := range a.Assemble(parser.Tokens(f, sheet)) {
			if !yield(rec, wrap("read", sheet, err)) {
				return
			}
		}
	}
}

func (r *Reader[T]) startRow(f *excelize.File, sheet string) (int, error) {
	if !r.opts.DetectHeader {
		return r.opts.StartRow, nil
	}
	row, err := parser.DetectHeaderRow(f, sheet, r.mapping, parser.DefaultHeaderParams())
	if err != nil {
		return 0, err
	}
	if row == 0 {
		r.logger.Debug("no header row found", "sheet", sheet)
		return r.opts.StartRow, nil
	}
	return row + 1, nil
}

func (r *Reader[T]) endRow(f *excelize.File, sheet string) int {
	if !r.opts.PrintAreaOnly {
		return 0
	}
	if r.areas == nil {
		r.areas = parser.PrintAreas(f)
	}
	return parser.LastRow(r.areas[sheet])
}

// Read decodes every sheet, stopping at the first error.
func (r *Reader[T]) Read() ([]T, error) {
	return parser.Collect(r.All())
}

// ReadSheet decodes the sheet at a 1-based ordinal, stopping at the first error.
func (r *Reader[T]) ReadSheet(ordinal int) ([]T, error) {
	return parser.Collect(r.Records(ordinal))
}

// Paging decodes every sheet and hands the records to the page sink in pages of
// PageSize. Pages run across sheet boundaries. It returns the number of records delivered.
func (r *Reader[T]) Paging() (int, error) {
	if err := r.opts.validatePaging(); err != nil {
		return 0, err
	}
	n, err := parser.Paginate(r.All(), r.opts.PageSize, r.opts.PageSink)
	return n, wrap("paging", "", err)
}

// PagingSheet is Paging restricted to the sheet at a 1-based ordinal.
func (r *Reader[T]) PagingSheet(ordinal int) (int, error) {
	if err := r.opts.validatePaging(); err != nil {
		return 0, err
	}
	n, err := parser.Paginate(r.Records(ordinal), r.opts.PageSize, r.opts.PageSink)
	return n, wrap("paging", "", err)
}

// Close releases the workbook. Close errors are logged and ignored.
func (r *Reader[T]) Close() error {
	if r.file == nil {
		return nil
	}
	if err := r.file.Close(); err != nil {
		r.logger.Warn("failed to close workbook", "error", err)
	}
	r.file = nil
	r.areas = nil
	return nil
}
