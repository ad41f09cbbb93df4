package excelutils

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"

	"github.com/fanlychie/excelutils/pkg/excelutils/convert"
	"github.com/fanlychie/excelutils/pkg/excelutils/engine"
	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/fanlychie/excelutils/pkg/excelutils/paging"
	"github.com/fanlychie/excelutils/pkg/excelutils/parser"
	"github.com/xuri/excelize/v2"
)

// ErrConfig indicates invalid reader or writer options.
var ErrConfig = errors.New("invalid configuration")

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a valid xlsx format.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// Kind classifies errors so callers can branch on the failure category.
type Kind int

const (
	// KindUnknown is the kind of a nil error.
	KindUnknown Kind = iota
	// KindConfig covers invalid options and mapping declarations. Raised before any I/O.
	KindConfig
	// KindConversion covers cell text that does not fit its field.
	KindConversion
	// KindIO covers failures reading, writing or serializing a workbook.
	KindIO
	// KindLookup covers requests for sheets that do not exist.
	KindLookup
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConversion:
		return "conversion"
	case KindIO:
		return "io"
	case KindLookup:
		return "lookup"
	}
	return "unknown"
}

// Error is the error type returned by readers and writers.
type Error struct {
	Kind  Kind
	Op    string // "open", "read", "paging", "write", ...
	Sheet string
	Err   error
}

func (e *Error) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s sheet %q: %v", e.Op, e.Sheet, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the category of err, or KindUnknown for nil.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	var (
		noMapping  *mapping.NoMappingDeclaredError
		duplicate  *mapping.DuplicateIndexError
		invalidTag *mapping.InvalidTagError
		option     *paging.OptionError
		cellErr    *parser.CellConversionError
		convErr    *convert.ConversionError
		notFound   *parser.SheetNotFoundError
		notExist   excelize.ErrSheetNotExist
	)
	switch {
	case errors.As(err, &noMapping), errors.As(err, &duplicate), errors.As(err, &invalidTag),
		errors.As(err, &option), errors.Is(err, ErrConfig), errors.Is(err, paging.ErrNilSource),
		errors.Is(err, mapping.ErrAlreadyResolved), errors.Is(err, engine.ErrRecordType),
		errors.Is(err, engine.ErrDuplicateSheet):
		return KindConfig
	case errors.As(err, &cellErr), errors.As(err, &convErr):
		return KindConversion
	case errors.As(err, &notFound), errors.As(err, &notExist):
		return KindLookup
	}
	return KindIO
}

// wrap tags err with the operation and sheet it occurred in.
func wrap(op, sheet string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Sheet: sheet, Err: err}
}

func configError(op, format string, args ...any) error {
	return &Error{Kind: KindConfig, Op: op, Err: fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))}
}

// openError maps the failure to open a workbook onto the input sentinels.
func openError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		err = fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case errors.Is(err, zip.ErrFormat), errors.Is(err, excelize.ErrWorkbookFileFormat):
		err = fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return &Error{Kind: KindIO, Op: "open", Err: err}
}
