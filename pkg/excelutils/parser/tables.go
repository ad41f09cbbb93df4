package parser

import (
	"strings"

	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/xuri/excelize/v2"
)

// HeaderDetectionParams holds parameters for header row detection.
type HeaderDetectionParams struct {
	// MaxScanRows bounds how many leading rows are inspected.
	MaxScanRows int
	// MinMatchRatio is the share of mapped columns whose header text must match.
	MinMatchRatio float64
}

// DefaultHeaderParams returns default header detection parameters.
func DefaultHeaderParams() HeaderDetectionParams {
	return HeaderDetectionParams{
		MaxScanRows:   20,
		MinMatchRatio: 0.5,
	}
}

// DetectHeaderRow finds the 1-based row whose cells carry the mapping's display names.
// It returns 0 when none of the scanned rows qualifies.
func DetectHeaderRow(f *excelize.File, sheetName string, m *mapping.Mapping, params HeaderDetectionParams) (int, error) {
	rows, err := f.Rows(sheetName)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = rows.Close()
	}()

	rowNum := 0
	for rowNum < params.MaxScanRows && rows.Next() {
		rowNum++
		cols, err := rows.Columns()
		if err != nil {
			return 0, err
		}
		if score := headerScore(cols, m); score > 0 && score >= params.MinMatchRatio {
			return rowNum, nil
		}
	}

	return 0, rows.Error()
}

// headerScore returns the share of mapped columns whose cell equals the display name.
func headerScore(cols []string, m *mapping.Mapping) float64 {
	if len(m.Fields) == 0 {
		return 0
	}

	matched := 0
	for _, fd := range m.Fields {
		if fd.Index >= len(cols) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(cols[fd.Index]), fd.DisplayName) {
			matched++
		}
	}
	return float64(matched) / float64(len(m.Fields))
}
