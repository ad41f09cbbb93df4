// Package engine writes mapped records into xlsx workbooks with the excelize stream writer.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/fanlychie/excelutils/pkg/excelutils/convert"
	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet every new excelize file starts with.
const defaultSheet = "Sheet1"

var (
	// ErrDuplicateSheet indicates a sheet name already used in the workbook.
	ErrDuplicateSheet = errors.New("duplicate sheet name")
	// ErrNoSheet indicates a row written before any sheet was created.
	ErrNoSheet = errors.New("no sheet started")
	// ErrRecordType indicates a record whose type does not match the mapping.
	ErrRecordType = errors.New("record type does not match mapping")
)

// Options configures a Workbook.
type Options struct {
	// Style is the sheet look; nil selects DefaultStyle.
	Style *models.SheetStyle
	// Labels replaces raw values with display labels; nil falls back to Style.Labels.
	Labels map[string]string
	// Title and Creator are stored in the document properties.
	Title   string
	Creator string
	// Password encrypts the serialized workbook.
	Password string
	// Location is the zone whose wall clock date cells show; nil selects UTC.
	Location *time.Location
	Logger   *slog.Logger
}

// Workbook is a streaming xlsx document holding records of type T.
// Sheets are written strictly in order: creating a sheet flushes the previous one.
type Workbook[T any] struct {
	file     *excelize.File
	mapping  *mapping.Mapping
	style    models.SheetStyle
	labels   map[string]string
	password string
	loc      *time.Location
	logger   *slog.Logger
	id       uuid.UUID

	headerStyle  int
	columnStyles []int // parallel to mapping.Fields

	stream  *excelize.StreamWriter
	sheets  []string
	lastRow int
}

// New creates an empty workbook for records described by m.
func New[T any](m *mapping.Mapping, opts Options) (*Workbook[T], error) {
	if t := derefType(reflect.TypeFor[T]()); t != m.Type {
		return nil, fmt.Errorf("%w: %v is not %v", ErrRecordType, reflect.TypeFor[T](), m.Type)
	}

	style := DefaultStyle()
	if opts.Style != nil {
		style = *opts.Style
	}
	labels := opts.Labels
	if labels == nil {
		labels = style.Labels
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	w := &Workbook[T]{
		file:     excelize.NewFile(),
		mapping:  m,
		style:    style,
		labels:   labels,
		password: opts.Password,
		loc:      loc,
		logger:   logger,
		id:       uuid.New(),
	}

	if err := w.file.SetDocProps(&excelize.DocProperties{
		Identifier: w.id.String(),
		Title:      opts.Title,
		Creator:    opts.Creator,
		Created:    time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		w.Close()
		return nil, fmt.Errorf("set document properties: %w", err)
	}

	if err := w.buildStyles(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Workbook[T]) buildStyles() error {
	var err error
	if w.headerStyle, err = newStyle(w.file, w.style.Title, "", "General"); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	w.columnStyles = make([]int, len(w.mapping.Fields))
	for i, fd := range w.mapping.Fields {
		if w.columnStyles[i], err = newStyle(w.file, w.style.Body, string(fd.Alignment), fd.Format); err != nil {
			return fmt.Errorf("style of column %q: %w", fd.DisplayName, err)
		}
	}
	return nil
}

// ID returns the identifier stored in the document properties.
func (w *Workbook[T]) ID() uuid.UUID {
	return w.id
}

// Sheets returns the names of the sheets created so far.
func (w *Workbook[T]) Sheets() []string {
	return slices.Clone(w.sheets)
}

// NewSheet flushes the current sheet, creates a sheet named name and writes the header row.
// The first sheet takes the place of the workbook's initial blank sheet.
func (w *Workbook[T]) NewSheet(name string) error {
	if slices.Contains(w.sheets, name) {
		return fmt.Errorf("%w: %q", ErrDuplicateSheet, name)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(w.sheets) == 0 {
		if name != defaultSheet {
			if err := w.file.SetSheetName(defaultSheet, name); err != nil {
				return err
			}
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return err
	}

	sw, err := w.file.NewStreamWriter(name)
	if err != nil {
		return err
	}

	// Column widths and styles must precede the first row.
	for i, fd := range w.mapping.Fields {
		col := fd.Index + 1
		if err := sw.SetColWidth(col, col, columnWidth(w.style, fd.DisplayName)); err != nil {
			return err
		}
		if err := sw.SetColStyle(col, col, w.columnStyles[i]); err != nil {
			return err
		}
	}

	header := make([]any, w.mapping.Width())
	for _, fd := range w.mapping.Fields {
		header[fd.Index] = excelize.Cell{StyleID: w.headerStyle, Value: fd.DisplayName}
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{Height: w.style.Title.Height}); err != nil {
		return err
	}

	w.stream = sw
	w.sheets = append(w.sheets, name)
	w.lastRow = 1
	return nil
}

// WriteRow writes rec at a 1-based row of the current sheet. Rows must ascend.
// A nil pointer record leaves the row empty.
func (w *Workbook[T]) WriteRow(row int, rec T) error {
	if w.stream == nil {
		return ErrNoSheet
	}

	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}

	values := make([]any, w.mapping.Width())
	for i, fd := range w.mapping.Fields {
		cell, err := convert.ToDisplay(v.FieldByIndex(fd.FieldPath), fd.ValueType, w.labels)
		if err != nil {
			return fmt.Errorf("field %s: %w", fd.SourceFieldName, err)
		}
		if t, ok := cell.Value.(time.Time); ok {
			// excelize stores the wall clock and drops the zone
			cell.Value = t.In(w.loc)
		}
		values[fd.Index] = excelize.Cell{StyleID: w.columnStyles[i], Value: cell.Value}
	}

	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.stream.SetRow(ref, values, excelize.RowOpts{Height: w.style.Body.Height}); err != nil {
		return err
	}
	w.lastRow = max(w.lastRow, row)
	return nil
}

// Flush completes the current sheet. No more rows can be written to it afterwards.
// The written range becomes the sheet's print area and the header row repeats on every printed page.
func (w *Workbook[T]) Flush() error {
	if w.stream == nil {
		return nil
	}
	sw := w.stream
	w.stream = nil
	sheet := w.sheets[len(w.sheets)-1]

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet %q: %w", sheet, err)
	}
	if err := w.definePrintArea(sheet); err != nil {
		return fmt.Errorf("print area of sheet %q: %w", sheet, err)
	}
	w.logger.Debug("sheet flushed", "sheet", sheet, "rows", w.lastRow)
	return nil
}

func (w *Workbook[T]) definePrintArea(sheet string) error {
	area := models.PrintArea{R1: 1, C1: 1, R2: w.lastRow, C2: w.mapping.Width()}
	ref, err := area.Ref(sheet)
	if err != nil {
		return err
	}
	if err := w.file.SetDefinedName(&excelize.DefinedName{
		Name:     models.PrintAreaName,
		RefersTo: ref,
		Scope:    sheet,
	}); err != nil {
		return err
	}
	return w.file.SetDefinedName(&excelize.DefinedName{
		Name:     models.PrintTitlesName,
		RefersTo: models.QuoteSheet(sheet) + "!$1:$1",
		Scope:    sheet,
	})
}

// WriteTo flushes the current sheet and serializes the workbook to dst.
func (w *Workbook[T]) WriteTo(dst io.Writer) (int64, error) {
	if err := w.Flush(); err != nil {
		return 0, err
	}
	if w.password != "" {
		return w.file.WriteTo(dst, excelize.Options{Password: w.password})
	}
	return w.file.WriteTo(dst)
}

// SaveAs flushes the current sheet and writes the workbook to path.
func (w *Workbook[T]) SaveAs(path string) error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.password != "" {
		return w.file.SaveAs(path, excelize.Options{Password: w.password})
	}
	return w.file.SaveAs(path)
}

// Close releases the workbook's temporary files. Errors are logged and ignored.
func (w *Workbook[T]) Close() {
	if err := w.file.Close(); err != nil {
		w.logger.Warn("failed to close workbook", "id", w.id, "error", err)
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
