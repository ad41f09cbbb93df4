package paging

import (
	"errors"
	"fmt"
)

// ErrNilSource is returned by Run when no page source is supplied.
var ErrNilSource = errors.New("page source is nil")

// OptionError reports an invalid scheduler option.
type OptionError struct {
	Option string
	Value  int
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Option, e.Value, e.Reason)
}

// FetchError reports a failed page fetch.
type FetchError struct {
	Page   int
	Offset int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d (offset %d): %v", e.Page, e.Offset, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// WriteError reports a failure of the book while writing a sheet.
type WriteError struct {
	Sheet string
	Row   int // 0 when creating the sheet
	Err   error
}

func (e *WriteError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("create sheet %q: %v", e.Sheet, e.Err)
	}
	return fmt.Sprintf("write sheet %q row %d: %v", e.Sheet, e.Row, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
