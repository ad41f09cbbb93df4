// Package models defines the data structures shared by the mapping, decode and encode layers.
package models

import "strings"

// Alignment is the horizontal alignment of a mapped column.
type Alignment string

const (
	// AlignLeft is the default alignment.
	AlignLeft Alignment = "left"
	// AlignCenter centers the column content.
	AlignCenter Alignment = "center"
	// AlignRight right-aligns the column content.
	AlignRight Alignment = "right"
)

// ParseAlignment parses an alignment name case-insensitively.
// An empty string yields AlignLeft.
func ParseAlignment(s string) (Alignment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return AlignLeft, true
	case "center", "centre":
		return AlignCenter, true
	case "right":
		return AlignRight, true
	default:
		return "", false
	}
}

// ValueType tags the semantic type of a mapped field.
type ValueType int

const (
	// TypeUnknown is a field kind that cannot be mapped.
	TypeUnknown ValueType = iota
	// TypeString covers string kinds.
	TypeString
	// TypeInt covers signed integer kinds.
	TypeInt
	// TypeUint covers unsigned integer kinds.
	TypeUint
	// TypeFloat covers float kinds.
	TypeFloat
	// TypeBool is bool.
	TypeBool
	// TypeTime is time.Time.
	TypeTime
	// TypeDecimal is pgtype.Numeric.
	TypeDecimal
	// TypeText covers types implementing encoding.TextMarshaler and encoding.TextUnmarshaler.
	TypeText
)

var valueTypeNames = [...]string{
	TypeUnknown: "unknown",
	TypeString:  "string",
	TypeInt:     "int",
	TypeUint:    "uint",
	TypeFloat:   "float",
	TypeBool:    "bool",
	TypeTime:    "time",
	TypeDecimal: "decimal",
	TypeText:    "text",
}

// String returns the type name.
func (t ValueType) String() string {
	if int(t) < 0 || int(t) >= len(valueTypeNames) {
		return "unknown"
	}
	return valueTypeNames[t]
}

// FieldDescriptor describes how one struct field maps to a spreadsheet column.
type FieldDescriptor struct {
	// Index is the 0-based column index.
	Index int `json:"index" yaml:"index"`
	// DisplayName is the header text of the column.
	DisplayName string `json:"display_name" yaml:"display_name"`
	// Format is the number format applied to the column.
	Format string `json:"format" yaml:"format"`
	// Alignment is the horizontal alignment of the column.
	Alignment Alignment `json:"alignment" yaml:"alignment"`
	// SourceFieldName is the Go struct field name.
	SourceFieldName string `json:"source_field_name" yaml:"source_field_name"`
	// ValueType is the semantic type of the field.
	ValueType ValueType `json:"value_type" yaml:"value_type"`
	// FieldPath is the reflect field index path, for embedded structs.
	FieldPath []int `json:"-" yaml:"-"`
}
