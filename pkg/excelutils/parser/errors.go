package parser

import "fmt"

// CellConversionError reports a cell whose text does not fit its mapped field.
// The rest of the row is skipped and its record is discarded.
type CellConversionError struct {
	Sheet  string
	Row    int
	Cell   int
	Field  string
	Column string
	Err    error
}

func (e *CellConversionError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("row %d column %d (%s): %v", e.Row, e.Cell, e.Field, e.Err)
	}
	return fmt.Sprintf("sheet %q row %d column %d (%s): %v", e.Sheet, e.Row, e.Cell, e.Field, e.Err)
}

func (e *CellConversionError) Unwrap() error {
	return e.Err
}

// SheetNotFoundError reports a sheet ordinal outside the workbook.
type SheetNotFoundError struct {
	Ordinal int
	Count   int
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %d not found (workbook has %d)", e.Ordinal, e.Count)
}
