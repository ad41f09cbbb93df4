package parser

import (
	"iter"
	"reflect"
	"time"

	"github.com/fanlychie/excelutils/pkg/excelutils/convert"
	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
)

// State is the position of an Assembler in its row cycle.
type State int

const (
	// StateSkipping drops tokens above the start row.
	StateSkipping State = iota
	// StateAccumulating fills the current record.
	StateAccumulating
	// StateRowBoundary has just completed a record.
	StateRowBoundary
	// StateDone has seen the end of the sheet.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSkipping:
		return "skipping"
	case StateAccumulating:
		return "accumulating"
	case StateRowBoundary:
		return "row-boundary"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// AssemblerOptions configures an Assembler.
type AssemblerOptions struct {
	// Sheet names the sheet in error messages.
	Sheet string
	// StartRow is the first 1-based row that produces records; 0 or 1 reads every row.
	StartRow int
	// EndRow is the last 1-based row that produces records; 0 reads to the end.
	EndRow int
	// Labels maps display labels back to the raw values they replaced.
	Labels map[string]string
	// Location is the zone of date cells; nil reads them as UTC.
	Location *time.Location
}

// Assembler folds a stream of row tokens into records of type T.
// T is a mapped struct or a pointer to one. An Assembler is not safe for concurrent use.
type Assembler[T any] struct {
	mapping *mapping.Mapping
	opts    AssemblerOptions
	pointer bool

	state   State
	current reflect.Value // *struct being filled
	row     int
	failed  bool
}

// NewAssembler returns an assembler for records described by m.
func NewAssembler[T any](m *mapping.Mapping, opts AssemblerOptions) *Assembler[T] {
	return &Assembler[T]{
		mapping: m,
		opts:    opts,
		pointer: reflect.TypeFor[T]().Kind() == reflect.Pointer,
	}
}

// State returns the current state.
func (a *Assembler[T]) State() State {
	return a.state
}

// Reset returns the assembler to its initial state.
func (a *Assembler[T]) Reset() {
	a.state = StateSkipping
	a.current = reflect.Value{}
	a.row = 0
	a.failed = false
}

// Feed consumes one token. When the token opens a new row, the record of the
// previous row is returned with emitted set. A conversion error marks the row
// as failed: its remaining cells are ignored and its record is never emitted.
func (a *Assembler[T]) Feed(tok models.RowToken) (rec T, emitted bool, err error) {
	if a.state == StateDone || tok.RowNumber < a.opts.StartRow {
		return rec, false, nil
	}
	if a.opts.EndRow > 0 && tok.RowNumber > a.opts.EndRow {
		rec, emitted = a.Finish()
		return rec, emitted, nil
	}

	if a.state == StateSkipping {
		a.begin(tok.RowNumber)
	} else if tok.NewRow || tok.RowNumber != a.row {
		rec, emitted = a.take()
		a.begin(tok.RowNumber)
	}

	if a.failed {
		return rec, emitted, nil
	}
	if err := a.set(tok); err != nil {
		a.failed = true
		return rec, emitted, err
	}
	return rec, emitted, nil
}

// Finish ends the stream and returns the in-progress record, if any.
func (a *Assembler[T]) Finish() (rec T, emitted bool) {
	if a.state == StateAccumulating {
		rec, emitted = a.take()
	}
	a.state = StateDone
	return rec, emitted
}

// Assemble returns a pull iterator over the records built from tokens.
// Conversion errors are yielded in place of the failed row; iteration may continue
// past them. An error from the token source ends the sequence.
func (a *Assembler[T]) Assemble(tokens iter.Seq2[models.RowToken, error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		a.Reset()
		var zero T

		for tok, err := range tokens {
			if err != nil {
				yield(zero, err)
				return
			}
			rec, emitted, cerr := a.Feed(tok)
			if emitted && !yield(rec, nil) {
				return
			}
			if cerr != nil && !yield(zero, cerr) {
				return
			}
			if a.state == StateDone {
				return
			}
		}

		if rec, ok := a.Finish(); ok {
			yield(rec, nil)
		}
	}
}

func (a *Assembler[T]) begin(row int) {
	a.current = reflect.New(a.mapping.Type)
	a.row = row
	a.failed = false
	a.state = StateAccumulating
}

// take hands out the current record and moves to the row boundary.
func (a *Assembler[T]) take() (rec T, ok bool) {
	a.state = StateRowBoundary
	if a.failed || !a.current.IsValid() {
		return rec, false
	}
	if a.pointer {
		return a.current.Interface().(T), true
	}
	return a.current.Elem().Interface().(T), true
}

func (a *Assembler[T]) set(tok models.RowToken) error {
	fd, ok := a.mapping.Lookup(tok.CellIndex)
	if !ok {
		return nil
	}

	text := tok.RawText
	if raw, ok := a.opts.Labels[text]; ok {
		text = raw
	}

	field := a.current.Elem().FieldByIndex(fd.FieldPath)
	v, err := convert.ToTypedIn(text, field.Type(), a.opts.Location)
	if err != nil {
		return &CellConversionError{
			Sheet:  a.opts.Sheet,
			Row:    tok.RowNumber,
			Cell:   tok.CellIndex,
			Field:  fd.SourceFieldName,
			Column: fd.DisplayName,
			Err:    err,
		}
	}
	field.Set(v)
	return nil
}

// Collect drains records into a slice, stopping at the first error.
func Collect[T any](records iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for rec, err := range records {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Paginate drains records into pages of size and hands each page to sink.
// Every page holds exactly size records except the last, which holds at least one.
// It returns the number of records delivered.
func Paginate[T any](records iter.Seq2[T, error], size int, sink func([]T) error) (int, error) {
	delivered := 0
	page := make([]T, 0, size)

	for rec, err := range records {
		if err != nil {
			return delivered, err
		}
		page = append(page, rec)
		if len(page) < size {
			continue
		}
		if err := sink(page); err != nil {
			return delivered, err
		}
		delivered += len(page)
		page = make([]T, 0, size)
	}

	if len(page) > 0 {
		if err := sink(page); err != nil {
			return delivered, err
		}
		delivered += len(page)
	}
	return delivered, nil
}
