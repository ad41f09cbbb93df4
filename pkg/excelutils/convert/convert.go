// Package convert translates between raw cell text and typed Go values.
//
// Decoding works on the unformatted cell value: numbers arrive as plain decimal text,
// booleans as "1"/"0" and dates as Excel serial numbers. Blank text always decodes to
// the zero value of the target type.
package convert

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedType indicates a Go type with no cell representation.
var ErrUnsupportedType = errors.New("unsupported field type")

// ErrOverflow indicates a number that does not fit the target field.
var ErrOverflow = errors.New("value out of range")

// ErrInvalidBool indicates text that is not a recognised boolean.
var ErrInvalidBool = errors.New("invalid boolean")

// ErrInvalidTime indicates text that is neither a date serial nor a known date layout.
var ErrInvalidTime = errors.New("invalid date")

// ConversionError reports cell text that cannot be coerced to a field type.
type ConversionError struct {
	Text string
	Type reflect.Type
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s: %v", e.Text, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

var (
	timeType            = reflect.TypeOf(time.Time{})
	numericType         = reflect.TypeOf(pgtype.Numeric{})
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// DateLayout is the text form used for dates in label lookups.
const DateLayout = "2006-01-02 15:04:05"

// Date layouts accepted for textual date cells, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	DateLayout,
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"2006.01.02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// TypeOf returns the value type tag for t.
func TypeOf(t reflect.Type) (models.ValueType, bool) {
	switch t {
	case timeType:
		return models.TypeTime, true
	case numericType:
		return models.TypeDecimal, true
	}
	if t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return models.TypeText, true
	}
	switch t.Kind() {
	case reflect.String:
		return models.TypeString, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return models.TypeInt, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return models.TypeUint, true
	case reflect.Float32, reflect.Float64:
		return models.TypeFloat, true
	case reflect.Bool:
		return models.TypeBool, true
	}
	return models.TypeUnknown, false
}

// DefaultFormat returns the number format used when a mapping omits one.
func DefaultFormat(vt models.ValueType) string {
	switch vt {
	case models.TypeInt, models.TypeUint:
		return "0"
	case models.TypeFloat, models.TypeDecimal:
		return "0.00"
	case models.TypeBool:
		return "General"
	case models.TypeTime:
		return "yyyy-mm-dd hh:mm:ss"
	default:
		return "@"
	}
}

// ToTyped converts raw cell text into a value of type t. Dates without a zone are read as UTC.
func ToTyped(raw string, t reflect.Type) (reflect.Value, error) {
	return ToTypedIn(raw, t, time.UTC)
}

// ToTypedIn is ToTyped reading dates without a zone as wall-clock times in loc.
func ToTypedIn(raw string, t reflect.Type, loc *time.Location) (reflect.Value, error) {
	if loc == nil {
		loc = time.UTC
	}
	vt, ok := TypeOf(t)
	if !ok {
		return reflect.Value{}, &ConversionError{Text: raw, Type: t, Err: ErrUnsupportedType}
	}

	v := reflect.New(t).Elem()
	s := strings.TrimSpace(raw)
	if s == "" {
		return v, nil
	}

	if err := setTyped(v, vt, raw, s, loc); err != nil {
		return reflect.Value{}, &ConversionError{Text: raw, Type: t, Err: err}
	}
	return v, nil
}

func setTyped(v reflect.Value, vt models.ValueType, raw, s string, loc *time.Location) error {
	switch vt {
	case models.TypeString:
		v.SetString(raw)

	case models.TypeInt:
		n, err := parseInt(s)
		if err != nil {
			return err
		}
		if v.OverflowInt(n) {
			return ErrOverflow
		}
		v.SetInt(n)

	case models.TypeUint:
		n, err := parseUint(s)
		if err != nil {
			return err
		}
		if v.OverflowUint(n) {
			return ErrOverflow
		}
		v.SetUint(n)

	case models.TypeFloat:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)

	case models.TypeBool:
		b, err := ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)

	case models.TypeTime:
		t, err := ParseTimeIn(s, loc)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(t))

	case models.TypeDecimal:
		var n pgtype.Numeric
		if err := n.Scan(s); err != nil {
			return err
		}
		v.Set(reflect.ValueOf(n))

	case models.TypeText:
		u := v.Addr().Interface().(encoding.TextUnmarshaler)
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return err
		}

	default:
		return ErrUnsupportedType
	}
	return nil
}

// parseInt accepts plain integers and integral decimals such as "12.0".
func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != math.Trunc(f) {
		return 0, err
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, ErrOverflow
	}
	return int64(f), nil
}

func parseUint(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != math.Trunc(f) {
		return 0, err
	}
	if f < 0 || f >= math.MaxUint64 {
		return 0, ErrOverflow
	}
	return uint64(f), nil
}

// ParseBool accepts true/t/yes/y/1 and false/f/no/n/0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, ErrInvalidBool
	}
}

// ParseTime parses a textual date or an Excel serial date (1900 date system) as UTC.
// Serial dates carry one second of precision.
func ParseTime(s string) (time.Time, error) {
	return ParseTimeIn(s, time.UTC)
}

// ParseTimeIn is ParseTime reading the wall clock of zoneless dates in loc.
// An Excel serial holds no zone, so it always takes loc.
func ParseTimeIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), nil
	}
	return time.Time{}, ErrInvalidTime
}
