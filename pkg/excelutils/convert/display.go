package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/jackc/pgx/v5/pgtype"
)

// Kind is the cell type a value renders as.
type Kind int

const (
	// KindBlank is an empty cell.
	KindBlank Kind = iota
	// KindString is a text cell.
	KindString
	// KindNumber is a numeric cell.
	KindNumber
	// KindBool is a boolean cell.
	KindBool
	// KindDate is a date cell holding a time.Time.
	KindDate
)

// Cell is the display form of a field value.
// Value holds a string, int64, uint64, float64, bool or time.Time matching Kind, or nil when blank.
type Cell struct {
	Kind  Kind
	Value any
}

// Blank is the empty cell.
var Blank = Cell{Kind: KindBlank}

// ToDisplay renders a field value for writing.
//
// A label matching the value's text form takes precedence and forces a string cell.
// Otherwise booleans render as boolean cells, numbers as numeric cells, dates as date
// cells and everything else as text.
func ToDisplay(v reflect.Value, vt models.ValueType, labels map[string]string) (Cell, error) {
	if len(labels) > 0 {
		key, err := FormatText(v, vt)
		if err != nil {
			return Blank, err
		}
		if label, ok := labels[key]; ok {
			return Cell{Kind: KindString, Value: label}, nil
		}
	}

	switch vt {
	case models.TypeBool:
		return Cell{Kind: KindBool, Value: v.Bool()}, nil

	case models.TypeInt:
		return Cell{Kind: KindNumber, Value: v.Int()}, nil

	case models.TypeUint:
		return Cell{Kind: KindNumber, Value: v.Uint()}, nil

	case models.TypeFloat:
		return Cell{Kind: KindNumber, Value: v.Float()}, nil

	case models.TypeDecimal:
		n := v.Interface().(pgtype.Numeric)
		if !n.Valid {
			return Blank, nil
		}
		f, err := n.Float64Value()
		if err != nil {
			return Blank, err
		}
		return Cell{Kind: KindNumber, Value: f.Float64}, nil

	case models.TypeTime:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return Blank, nil
		}
		return Cell{Kind: KindDate, Value: t}, nil

	case models.TypeString, models.TypeText:
		s, err := FormatText(v, vt)
		if err != nil {
			return Blank, err
		}
		if s == "" {
			return Blank, nil
		}
		return Cell{Kind: KindString, Value: s}, nil
	}
	return Blank, ErrUnsupportedType
}

// FormatText returns the canonical text form of a field value.
// It is the key used for label lookups.
func FormatText(v reflect.Value, vt models.ValueType) (string, error) {
	switch vt {
	case models.TypeString:
		return v.String(), nil
	case models.TypeInt:
		return strconv.FormatInt(v.Int(), 10), nil
	case models.TypeUint:
		return strconv.FormatUint(v.Uint(), 10), nil
	case models.TypeFloat:
		return strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits()), nil
	case models.TypeBool:
		return strconv.FormatBool(v.Bool()), nil
	case models.TypeTime:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "", nil
		}
		return t.Format(DateLayout), nil
	case models.TypeDecimal:
		n := v.Interface().(pgtype.Numeric)
		if !n.Valid {
			return "", nil
		}
		dv, err := n.Value()
		if err != nil {
			return "", err
		}
		return fmt.Sprint(dv), nil
	case models.TypeText:
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", ErrUnsupportedType
}
