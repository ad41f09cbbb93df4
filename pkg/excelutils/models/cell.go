package models

// RowToken is a single cell event produced while streaming a sheet.
type RowToken struct {
	// RowNumber is the 1-based row number.
	RowNumber int `json:"row"`
	// CellIndex is the 0-based column index.
	CellIndex int `json:"cell"`
	// RawText is the unformatted cell value.
	RawText string `json:"raw"`
	// NewRow is true for the first token of each row.
	NewRow bool `json:"new_row,omitempty"`
}
