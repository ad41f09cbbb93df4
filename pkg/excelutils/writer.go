package excelutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fanlychie/excelutils/pkg/excelutils/engine"
	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/fanlychie/excelutils/pkg/excelutils/paging"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

// ContentType is the media type of an xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Writer encodes records of type T into a workbook held until Close.
// A Writer is not safe for concurrent use.
type Writer[T any] struct {
	opts    WriteOptions[T]
	mapping *mapping.Mapping
	book    *engine.Workbook[T]
	sched   *paging.Scheduler[T]
	logger  *slog.Logger
}

// NewWriter validates opts, resolves the mapping of T and creates an empty workbook.
func NewWriter[T any](opts WriteOptions[T]) (*Writer[T], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m, err := mapping.For[T](registryOrDefault(opts.Registry))
	if err != nil {
		return nil, wrap("resolve", "", err)
	}

	book, err := engine.New[T](m, opts.engineOptions())
	if err != nil {
		return nil, wrap("create", "", err)
	}
	sched, err := paging.New[T](book, opts.schedulerOptions())
	if err != nil {
		book.Close()
		return nil, wrap("create", "", err)
	}

	return &Writer[T]{
		opts:    opts,
		mapping: m,
		book:    book,
		sched:   sched,
		logger:  loggerOrDefault(opts.Logger),
	}, nil
}

// ID returns the workbook identifier stored in its document properties.
func (w *Writer[T]) ID() uuid.UUID {
	return w.book.ID()
}

// SheetNames returns the names of the sheets written so far.
func (w *Writer[T]) SheetNames() []string {
	return w.sched.Sheets()
}

// Write writes records to a new sheet with the default name.
func (w *Writer[T]) Write(records []T) error {
	return w.WriteSheet("", records)
}

// WriteSheet writes records to a new sheet named name. Records that do not fit
// the row cap continue on further sheets.
func (w *Writer[T]) WriteSheet(name string, records []T) error {
	return w.wrapSheet("write", w.sched.Write(name, records))
}

// Append writes records after the last written row.
func (w *Writer[T]) Append(records []T) error {
	return w.wrapSheet("append", w.sched.Append(records))
}

// Paging pulls every page from the configured page source and writes it after the
// last written row. It returns the number of records written.
func (w *Writer[T]) Paging(ctx context.Context) (int, error) {
	if w.opts.PageSource == nil {
		return 0, configError("paging", "no page source")
	}
	n, err := w.sched.Run(ctx, w.opts.PageSource)
	if err != nil {
		return n, w.wrapSheet("paging", err)
	}
	w.logger.Info("pages written", "records", n, "sheets", len(w.sched.Sheets()))
	return n, nil
}

// WriteTo serializes the workbook to dst. The last sheet is completed first and
// accepts no more rows.
func (w *Writer[T]) WriteTo(dst io.Writer) (int64, error) {
	n, err := w.book.WriteTo(dst)
	return n, wrap("serialize", "", err)
}

// ToFile serializes the workbook to path.
func (w *Writer[T]) ToFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrap("serialize", "", err)
		}
	}
	return wrap("serialize", "", w.book.SaveAs(path))
}

// ToHTTP serializes the workbook as a download named filename.
func (w *Writer[T]) ToHTTP(rw http.ResponseWriter, filename string) error {
	if !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		filename += ".xlsx"
	}
	rw.Header().Set("Content-Type", ContentType)
	rw.Header().Set("Content-Disposition", ContentDisposition(filename))

	_, err := w.WriteTo(rw)
	return err
}

// Close releases the workbook.
func (w *Writer[T]) Close() error {
	w.book.Close()
	return nil
}

func (w *Writer[T]) wrapSheet(op string, err error) error {
	if err == nil {
		return nil
	}
	sheet := ""
	if names := w.sched.Sheets(); len(names) > 0 {
		sheet = names[len(names)-1]
	}
	return wrap(op, sheet, err)
}

// ContentDisposition returns an attachment header value for filename. The plain
// filename parameter carries a Latin-1 rendition for old clients; filename*
// carries the exact UTF-8 name.
func ContentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, latin1(filename), url.PathEscape(filename))
}

// latin1 encodes s as ISO-8859-1, replacing unrepresentable runes, controls and quotes with '_'.
func latin1(s string) string {
	var b strings.Builder
	for _, r := range s {
		c, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok || c < 0x20 || c == 0x7f || c == '"' || c == '\\' {
			c = '_'
		}
		b.WriteByte(c)
	}
	return b.String()
}
