package parser

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestHeaderScore(t *testing.T) {
	m := personMapping(t)

	tests := []struct {
		cols     []string
		expected float64
	}{
		{[]string{"Name", "Mobile", "Age", "", "VIP"}, 1},
		{[]string{" name ", "MOBILE"}, 0.5},
		{[]string{"Alice", "1", "30"}, 0},
		{nil, 0},
	}

	for _, tt := range tests {
		if got := headerScore(tt.cols, m); got != tt.expected {
			t.Errorf("headerScore(%q) = %v, expected %v", tt.cols, got, tt.expected)
		}
	}
}

func TestDetectHeaderRow(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", "Customer report")
	_ = f.SetSheetRow(sheetName, "A3", &[]any{"Name", "Mobile", "Age"})
	_ = f.SetSheetRow(sheetName, "A4", &[]any{"Alice", "1", 30})

	f2 := saveAndOpen(t, f)
	m := personMapping(t)

	row, err := DetectHeaderRow(f2, sheetName, m, DefaultHeaderParams())
	if err != nil {
		t.Fatalf("DetectHeaderRow failed: %v", err)
	}
	if row != 3 {
		t.Errorf("Expected header at row 3, got %d", row)
	}

	row, err = DetectHeaderRow(f2, sheetName, m, HeaderDetectionParams{MaxScanRows: 2, MinMatchRatio: 0.5})
	if err != nil {
		t.Fatalf("DetectHeaderRow failed: %v", err)
	}
	if row != 0 {
		t.Errorf("Expected no header within 2 rows, got %d", row)
	}
}
