package models

// RowStyle holds the look of a header or body row.
// Colors are hex RGB strings such as "#FFF2CC".
type RowStyle struct {
	// Height is the row height in points (0 keeps the default).
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`
	// Align overrides the horizontal alignment.
	Align string `json:"align,omitempty" yaml:"align,omitempty"`
	// VerticalAlign is top, center or bottom.
	VerticalAlign string `json:"vertical_align,omitempty" yaml:"vertical_align,omitempty"`
	// AutoWrap wraps text that exceeds the column width.
	AutoWrap  bool    `json:"auto_wrap,omitempty" yaml:"auto_wrap,omitempty"`
	FontName  string  `json:"font_name,omitempty" yaml:"font_name,omitempty"`
	FontSize  float64 `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	FontColor string  `json:"font_color,omitempty" yaml:"font_color,omitempty"`
	Bold      bool    `json:"bold,omitempty" yaml:"bold,omitempty"`
	// Border is the excelize border style (0 none, 1 thin, 2 medium ...).
	Border      int    `json:"border,omitempty" yaml:"border,omitempty"`
	BorderColor string `json:"border_color,omitempty" yaml:"border_color,omitempty"`
	Background  string `json:"background,omitempty" yaml:"background,omitempty"`
	// Format overrides the number format of every column in the row.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// SheetStyle configures the look of every sheet a writer creates.
type SheetStyle struct {
	// CellWidth is the column width in characters; 0 sizes columns from the header text.
	CellWidth float64 `json:"cell_width,omitempty" yaml:"cell_width,omitempty"`
	// Title styles the header row.
	Title RowStyle `json:"title" yaml:"title"`
	// Body styles the data rows.
	Body RowStyle `json:"body" yaml:"body"`
	// Labels replaces raw values with display labels when writing.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}
