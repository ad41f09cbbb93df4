package models

// SheetCursor tracks the write position while encoding.
type SheetCursor struct {
	// CurrentRowIndex is the 1-based row the next record is written to.
	CurrentRowIndex int `json:"current_row_index"`
	// RowsWritten counts body rows on the current sheet.
	RowsWritten int `json:"rows_written"`
	// SheetOrdinal is the 1-based ordinal of the current sheet, 0 before the first sheet.
	SheetOrdinal int `json:"sheet_ordinal"`
}

// Started reports whether a sheet has been created.
func (c SheetCursor) Started() bool {
	return c.SheetOrdinal > 0
}
