package models

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Builtin defined names used for printing.
const (
	PrintAreaName   = "_xlnm.Print_Area"
	PrintTitlesName = "_xlnm.Print_Titles"
)

// PrintArea represents cell coordinate bounds for a print area.
type PrintArea struct {
	// R1 is the start row (1-based).
	R1 int `json:"r1"`
	// C1 is the start column (1-based).
	C1 int `json:"c1"`
	// R2 is the end row (1-based, inclusive).
	R2 int `json:"r2"`
	// C2 is the end column (1-based, inclusive).
	C2 int `json:"c2"`
}

// Ref returns the absolute reference of the area on sheet, e.g. 'Sheet1'!$A$1:$C$8.
func (a PrintArea) Ref(sheet string) (string, error) {
	from, err := excelize.CoordinatesToCellName(a.C1, a.R1, true)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(a.C2, a.R2, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!%s:%s", QuoteSheet(sheet), from, to), nil
}

// QuoteSheet quotes a sheet name for use in a formula reference.
func QuoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
