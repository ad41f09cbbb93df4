// Package parser turns xlsx sheets into typed records.
//
// Tokens adapts the excelize row reader into a stream of cell events, and
// Assembler folds that stream into records one row at a time, so a sheet is
// never held in memory as a whole.
package parser

import (
	"iter"

	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/xuri/excelize/v2"
)

// Tokens streams the non-empty cells of a sheet as row tokens.
// Values are unformatted; the row reader is closed when iteration stops.
func Tokens(f *excelize.File, sheetName string) iter.Seq2[models.RowToken, error] {
	return func(yield func(models.RowToken, error) bool) {
		rows, err := f.Rows(sheetName)
		if err != nil {
			yield(models.RowToken{}, err)
			return
		}
		defer func() {
			_ = rows.Close() // Ignore close error
		}()

		rowNum := 0
		for rows.Next() {
			rowNum++ // 1-based row index

			cols, err := rows.Columns(excelize.Options{RawCellValue: true})
			if err != nil {
				yield(models.RowToken{RowNumber: rowNum}, err)
				return
			}

			first := true
			for colIdx, value := range cols {
				if value == "" {
					continue
				}
				tok := models.RowToken{
					RowNumber: rowNum,
					CellIndex: colIdx,
					RawText:   value,
					NewRow:    first,
				}
				first = false
				if !yield(tok, nil) {
					return
				}
			}
		}

		if err := rows.Error(); err != nil {
			yield(models.RowToken{}, err)
		}
	}
}

// SheetByOrdinal returns the name of the sheet at a 1-based ordinal.
func SheetByOrdinal(f *excelize.File, ordinal int) (string, error) {
	sheets := f.GetSheetList()
	for i, name := range sheets {
		if i+1 == ordinal {
			return name, nil
		}
	}
	return "", &SheetNotFoundError{Ordinal: ordinal, Count: len(sheets)}
}
