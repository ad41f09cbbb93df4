package excelutils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"github.com/fanlychie/excelutils/pkg/excelutils/paging"
	"github.com/fanlychie/excelutils/pkg/excelutils/parser"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type customer struct {
	Name   string `excel:"index=0,name=Name"`
	Mobile string `excel:"index=1,name=Mobile"`
	Age    int    `excel:"index=2,name=Age"`
}

func customers(n int) []customer {
	out := make([]customer, n)
	for i := range out {
		out[i] = customer{
			Name:   fmt.Sprintf("customer-%02d", i+1),
			Mobile: fmt.Sprintf("1380000%04d", i+1),
			Age:    20 + i,
		}
	}
	return out
}

func encode[T any](t *testing.T, opts WriteOptions[T], write func(w *Writer[T]) error) *bytes.Buffer {
	t.Helper()
	w, err := NewWriter(opts)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, write(w))

	var buf bytes.Buffer
	_, err = w.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestWriteSplitsSheetsAndReadsBack(t *testing.T) {
	records := customers(7)
	var sheets []string
	buf := encode(t, WriteOptions[customer]{MaxRowsPerSheet: 4}, func(w *Writer[customer]) error {
		err := w.Write(records)
		sheets = w.SheetNames()
		return err
	})
	assert.Equal(t, []string{"Sheet1", "Sheet2", "Sheet3"}, sheets)

	r, err := NewReader(ReadOptions[customer]{Source: buf, StartRow: 2})
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, records, got)

	for i, n := range []int{3, 3, 1} {
		sheet, err := r.ReadSheet(i + 1)
		require.NoError(t, err)
		assert.Len(t, sheet, n, "sheet %d", i+1)
	}
}

type Audit struct {
	CreatedBy string `excel:"index=9,name=Created by"`
}

type account struct {
	Audit
	ID      uuid.UUID      `excel:"index=0,name=ID"`
	Owner   string         `excel:"index=1,name=Owner"`
	Level   uint8          `excel:"index=2,name=Level,align=center"`
	Balance pgtype.Numeric `excel:"index=3,name=Balance"`
	Rate    float64        `excel:"index=4,name=Rate,format=0.0000"`
	Active  bool           `excel:"index=5,name=Active"`
	Opened  time.Time      `excel:"index=6,name=Opened"`
	Score   int64          `excel:"index=7,name=Score,align=right"`
	Note    string
}

func numeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	require.NoError(t, n.Scan(s))
	return n
}

func TestRoundTripAllTypes(t *testing.T) {
	records := []account{
		{
			Audit:   Audit{CreatedBy: "ops"},
			ID:      uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
			Owner:   "Alice",
			Level:   200,
			Balance: numeric(t, "1234.56"),
			Rate:    0.0125,
			Active:  true,
			Opened:  time.Date(2023, 3, 15, 9, 30, 45, 0, time.UTC),
			Score:   -42,
		},
		{
			ID:      uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			Owner:   "张三",
			Level:   1,
			Balance: numeric(t, "-0.5"),
			Rate:    3.14159,
			Opened:  time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
			Score:   9007199254740,
		},
	}

	buf := encode(t, WriteOptions[account]{Title: "Accounts"}, func(w *Writer[account]) error {
		return w.WriteSheet("Accounts", records)
	})

	r, err := NewReader(ReadOptions[account]{Source: buf, StartRow: 2})
	require.NoError(t, err)
	defer r.Close()

	names, err := r.SheetNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Accounts"}, names)

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

type event struct {
	Name string    `excel:"index=0,name=Name"`
	At   time.Time `excel:"index=1,name=At"`
}

func TestRoundTripKeepsTimeInstant(t *testing.T) {
	cst := time.FixedZone("CST", 8*3600)
	records := []event{
		{Name: "east", At: time.Date(2024, 5, 6, 7, 8, 9, 0, cst)},
		{Name: "utc", At: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)},
	}

	tests := []struct {
		name string
		loc  *time.Location
		want *time.Location
	}{
		{name: "default zone", loc: nil, want: time.UTC},
		{name: "workbook zone", loc: cst, want: cst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := encode(t, WriteOptions[event]{Location: tt.loc}, func(w *Writer[event]) error {
				return w.Write(records)
			})

			r, err := NewReader(ReadOptions[event]{Source: buf, StartRow: 2, Location: tt.loc})
			require.NoError(t, err)
			defer r.Close()

			got, err := r.Read()
			require.NoError(t, err)
			require.Len(t, got, len(records))
			for i, want := range records {
				assert.True(t, want.At.Equal(got[i].At), "%s: want %v, got %v", want.Name, want.At, got[i].At)
				assert.Equal(t, tt.want, got[i].At.Location(), want.Name)
			}
		})
	}
}

type shuffled struct {
	C string `excel:"index=2,name=Third"`
	A string `excel:"index=0,name=First"`
	B string `excel:"index=1,name=Second"`
}

func TestColumnsFollowIndexOrder(t *testing.T) {
	buf := encode(t, WriteOptions[shuffled]{}, func(w *Writer[shuffled]) error {
		return w.Write([]shuffled{{A: "a", B: "b", C: "c"}})
	})

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"First", "Second", "Third"}, {"a", "b", "c"}}, rows)
}

func TestPagingRoundTrip(t *testing.T) {
	records := customers(10)
	var fetched []int

	src := paging.PageFunc[customer](func(_ context.Context, page, offset, size int) ([]customer, error) {
		fetched = append(fetched, page)
		if offset >= len(records) {
			return nil, nil
		}
		return records[offset:min(offset+size, len(records))], nil
	})

	var sheets []string
	buf := encode(t, WriteOptions[customer]{PageSize: 3, MaxRowsPerSheet: 5, PageSource: src}, func(w *Writer[customer]) error {
		n, err := w.Paging(context.Background())
		assert.Equal(t, 10, n)
		sheets = w.SheetNames()
		return err
	})
	assert.Equal(t, []int{1, 2, 3, 4}, fetched)
	assert.Equal(t, []string{"Sheet1", "Sheet2", "Sheet3"}, sheets)

	var sizes []int
	var got []customer
	r, err := NewReader(ReadOptions[customer]{
		Source:   buf,
		StartRow: 2,
		PageSize: 3,
		PageSink: func(page []customer) error {
			sizes = append(sizes, len(page))
			got = append(got, page...)
			return nil
		},
	})
	require.NoError(t, err)
	defer r.Close()

	n, err := r.Paging()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []int{3, 3, 3, 1}, sizes)
	assert.Equal(t, records, got)

	sizes = nil
	n, err = r.PagingSheet(3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{2}, sizes)
}

func TestPagingSinkError(t *testing.T) {
	buf := encode(t, WriteOptions[customer]{}, func(w *Writer[customer]) error {
		return w.Write(customers(5))
	})

	stop := errors.New("sink closed")
	r, err := NewReader(ReadOptions[customer]{
		Source:   buf,
		StartRow: 2,
		PageSize: 2,
		PageSink: func([]customer) error { return stop },
	})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Paging()
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, KindIO, KindOf(err))
}

func TestAppendContinuesSheet(t *testing.T) {
	records := customers(5)
	buf := encode(t, WriteOptions[customer]{SheetName: "Part", MaxRowsPerSheet: 4}, func(w *Writer[customer]) error {
		if err := w.Append(records[:2]); err != nil {
			return err
		}
		return w.Append(records[2:])
	})

	r, err := NewReader(ReadOptions[customer]{Source: buf, StartRow: 2})
	require.NoError(t, err)
	defer r.Close()

	names, err := r.SheetNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Part1", "Part2"}, names)

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

type member struct {
	Name   string `excel:"index=0,name=Name"`
	Active bool   `excel:"index=1,name=Active"`
}

func TestLabelsRoundTrip(t *testing.T) {
	records := []member{{"a", true}, {"b", false}}
	buf := encode(t, WriteOptions[member]{Labels: map[string]string{"true": "Yes", "false": "No"}}, func(w *Writer[member]) error {
		return w.Write(records)
	})
	data := buf.Bytes()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	v, err := f.GetCellValue("Sheet1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Yes", v)
	f.Close()

	r, err := NewReader(ReadOptions[member]{
		Source:   bytes.NewReader(data),
		StartRow: 2,
		Labels:   map[string]string{"Yes": "true", "No": "false"},
	})
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestPasswordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secret.xlsx")

	w, err := NewWriter(WriteOptions[customer]{Password: "s3cret"})
	require.NoError(t, err)
	require.NoError(t, w.Write(customers(2)))
	require.NoError(t, w.ToFile(path))
	require.NoError(t, w.Close())

	r, err := NewReader(ReadOptions[customer]{Path: path, Password: "s3cret", StartRow: 2})
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, customers(2), got)
}

func TestDetectHeader(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Customer report")
	_ = f.SetSheetRow("Sheet1", "A3", &[]any{"Name", "Mobile", "Age"})
	_ = f.SetSheetRow("Sheet1", "A4", &[]any{"Alice", "13800000001", 30})
	_ = f.SetSheetRow("Sheet1", "A5", &[]any{"Bob", "13800000002", 41})
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	f.Close()

	r, err := NewReader(ReadOptions[customer]{Source: &buf, DetectHeader: true})
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadSheet(1)
	require.NoError(t, err)
	assert.Equal(t, []customer{
		{Name: "Alice", Mobile: "13800000001", Age: 30},
		{Name: "Bob", Mobile: "13800000002", Age: 41},
	}, got)
}

func TestPrintAreaOnly(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Mobile", "Age"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"Alice", "1", 30})
	_ = f.SetSheetRow("Sheet1", "A3", &[]any{"Bob", "2", 41})
	_ = f.SetSheetRow("Sheet1", "A5", &[]any{"Total", "", "=SUM(C2:C3)"})
	require.NoError(t, f.SetDefinedName(&excelize.DefinedName{
		Name:     models.PrintAreaName,
		RefersTo: "'Sheet1'!$A$1:$C$3",
		Scope:    "Sheet1",
	}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	f.Close()

	r, err := NewReader(ReadOptions[customer]{Source: &buf, StartRow: 2, PrintAreaOnly: true})
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, []customer{{Name: "Alice", Mobile: "1", Age: 30}, {Name: "Bob", Mobile: "2", Age: 41}}, got)
}

func TestWrittenPrintAreaBoundsRead(t *testing.T) {
	buf := encode(t, WriteOptions[customer]{MaxRowsPerSheet: 3}, func(w *Writer[customer]) error {
		return w.Write(customers(3))
	})

	r, err := NewReader(ReadOptions[customer]{Source: buf, StartRow: 2, PrintAreaOnly: true})
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, customers(3), got)
}

func TestConversionErrors(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Mobile", "Age"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"Alice", "1", 30})
	_ = f.SetSheetRow("Sheet1", "A3", &[]any{"Bob", "2", "unknown"})
	_ = f.SetSheetRow("Sheet1", "A4", &[]any{"Carol", "3", 25})
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	f.Close()
	data := buf.Bytes()

	r, err := NewReader(ReadOptions[customer]{Source: bytes.NewReader(data), StartRow: 2})
	require.NoError(t, err)
	_, err = r.Read()
	assert.Equal(t, KindConversion, KindOf(err))

	var cellErr *parser.CellConversionError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, 3, cellErr.Row)
	assert.Equal(t, "Age", cellErr.Field)
	r.Close()

	r, err = NewReader(ReadOptions[customer]{Source: bytes.NewReader(data), StartRow: 2})
	require.NoError(t, err)
	defer r.Close()

	var names []string
	var errs int
	for rec, err := range r.Records(1) {
		if err != nil {
			errs++
			continue
		}
		names = append(names, rec.Name)
	}
	assert.Equal(t, 1, errs)
	assert.Equal(t, []string{"Alice", "Carol"}, names)
}

type untagged struct {
	Name string
}

type duplicated struct {
	A string `excel:"index=0,name=A"`
	B string `excel:"index=0,name=B"`
}

func TestConfigErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xlsx")

	_, err := NewReader(ReadOptions[customer]{})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewReader(ReadOptions[customer]{Path: missing, Source: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewReader(ReadOptions[customer]{Path: missing, StartRow: -1})
	assert.Equal(t, KindConfig, KindOf(err))

	_, err = NewReader(ReadOptions[untagged]{Path: missing, Registry: mapping.NewRegistry()})
	var noMapping *mapping.NoMappingDeclaredError
	assert.ErrorAs(t, err, &noMapping)
	assert.Equal(t, KindConfig, KindOf(err))

	_, err = NewWriter(WriteOptions[duplicated]{Registry: mapping.NewRegistry()})
	var dup *mapping.DuplicateIndexError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, KindConfig, KindOf(err))

	_, err = NewWriter(WriteOptions[customer]{MaxRowsPerSheet: 1})
	assert.Equal(t, KindConfig, KindOf(err))

	// paging options are checked before the workbook is opened
	r, err := NewReader(ReadOptions[customer]{Path: missing})
	require.NoError(t, err)
	_, err = r.Paging()
	assert.ErrorIs(t, err, ErrConfig)
	_, err = r.PagingSheet(1)
	assert.ErrorIs(t, err, ErrConfig)

	w, err := NewWriter(WriteOptions[customer]{})
	require.NoError(t, err)
	defer w.Close()
	_, err = w.Paging(context.Background())
	assert.ErrorIs(t, err, ErrConfig)
}

func TestOpenAndLookupErrors(t *testing.T) {
	r, err := NewReader(ReadOptions[customer]{Path: filepath.Join(t.TempDir(), "missing.xlsx")})
	require.NoError(t, err)
	_, err = r.Read()
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Equal(t, KindIO, KindOf(err))

	r, err = NewReader(ReadOptions[customer]{Source: strings.NewReader("not a workbook")})
	require.NoError(t, err)
	_, err = r.SheetNames()
	assert.ErrorIs(t, err, ErrInvalidFormat)

	buf := encode(t, WriteOptions[customer]{}, func(w *Writer[customer]) error {
		return w.Write(customers(1))
	})
	r, err = NewReader(ReadOptions[customer]{Source: buf})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadSheet(2)
	var notFound *parser.SheetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 1, notFound.Count)
	assert.Equal(t, KindLookup, KindOf(err))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err      error
		expected Kind
	}{
		{nil, KindUnknown},
		{errors.New("disk full"), KindIO},
		{&Error{Kind: KindLookup, Op: "read", Err: errors.New("x")}, KindLookup},
		{fmt.Errorf("open: %w", &parser.SheetNotFoundError{Ordinal: 3}), KindLookup},
		{&paging.OptionError{Option: "page size", Value: -1}, KindConfig},
		{paging.ErrNilSource, KindConfig},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, KindOf(tt.err), "%v", tt.err)
	}
}

func TestToHTTP(t *testing.T) {
	w, err := NewWriter(WriteOptions[customer]{})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Write(customers(3)))

	rec := httptest.NewRecorder()
	require.NoError(t, w.ToHTTP(rec, "客户 é"))

	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"attachment; filename=\"__ \xe9.xlsx\"; filename*=UTF-8''%E5%AE%A2%E6%88%B7%20%C3%A9.xlsx",
		rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, w.ID().String(), props.Identifier)
}

func TestLoadStyle(t *testing.T) {
	doc := `
cell_width: 18
title:
  bold: false
  background: "#FFF2CC"
labels:
  "true": "Yes"
`
	style, err := LoadStyle(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, float64(18), style.CellWidth)
	assert.False(t, style.Title.Bold)
	assert.Equal(t, "#FFF2CC", style.Title.Background)
	assert.Equal(t, DefaultStyle().Title.Height, style.Title.Height)
	assert.Equal(t, map[string]string{"true": "Yes"}, style.Labels)

	style, err = LoadStyle(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultStyle(), *style)

	_, err = LoadStyle(strings.NewReader("colour: red\n"))
	assert.ErrorIs(t, err, ErrConfig)
}
