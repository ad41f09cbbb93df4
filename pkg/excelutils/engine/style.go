package engine

import (
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

const (
	minColumnWidth = 10
	columnPadding  = 4
)

// builtinNumFmts maps number format codes to excelize builtin format ids.
var builtinNumFmts = map[string]int{
	"General": 0,
	"0":       1,
	"0.00":    2,
	"@":       49,
}

// DefaultStyle returns the builtin sheet look: a bold shaded header and thin grid borders.
func DefaultStyle() models.SheetStyle {
	return models.SheetStyle{
		Title: models.RowStyle{
			Height:        20,
			Align:         string(models.AlignCenter),
			VerticalAlign: "center",
			FontSize:      11,
			Bold:          true,
			Border:        1,
			BorderColor:   "#BFBFBF",
			Background:    "#DDEBF7",
		},
		Body: models.RowStyle{
			VerticalAlign: "center",
			Border:        1,
			BorderColor:   "#BFBFBF",
		},
	}
}

// columnWidth sizes a column from its header text unless a fixed width is configured.
// East Asian characters count double.
func columnWidth(style models.SheetStyle, header string) float64 {
	if style.CellWidth > 0 {
		return min(style.CellWidth, excelize.MaxColumnWidth)
	}
	w := float64(runewidth.StringWidth(header) + columnPadding)
	return min(max(w, minColumnWidth), excelize.MaxColumnWidth)
}

// newStyle registers rs with the workbook. align and format override the row defaults when set.
func newStyle(f *excelize.File, rs models.RowStyle, align, format string) (int, error) {
	style := &excelize.Style{}

	if align == "" {
		align = rs.Align
	}
	if align != "" || rs.VerticalAlign != "" || rs.AutoWrap {
		style.Alignment = &excelize.Alignment{
			Horizontal: align,
			Vertical:   rs.VerticalAlign,
			WrapText:   rs.AutoWrap,
		}
	}

	if rs.FontName != "" || rs.FontSize > 0 || rs.FontColor != "" || rs.Bold {
		style.Font = &excelize.Font{
			Family: rs.FontName,
			Size:   rs.FontSize,
			Color:  rs.FontColor,
			Bold:   rs.Bold,
		}
	}

	if rs.Background != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{rs.Background}}
	}

	if rs.Border > 0 {
		for _, side := range []string{"left", "top", "right", "bottom"} {
			style.Border = append(style.Border, excelize.Border{Type: side, Color: rs.BorderColor, Style: rs.Border})
		}
	}

	if format == "" {
		format = rs.Format
	}
	if id, ok := builtinNumFmts[format]; ok {
		style.NumFmt = id
	} else if format != "" {
		style.CustomNumFmt = &format
	}

	return f.NewStyle(style)
}
