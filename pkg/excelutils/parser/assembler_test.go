package parser

import (
	"errors"
	"iter"
	"reflect"
	"testing"

	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
)

type person struct {
	Name   string `excel:"index=0,name=Name"`
	Mobile string `excel:"index=1,name=Mobile"`
	Age    int    `excel:"index=2,name=Age"`
	VIP    bool   `excel:"index=4,name=VIP"`
}

func personMapping(t *testing.T) *mapping.Mapping {
	t.Helper()
	m, err := mapping.For[person](mapping.NewRegistry())
	if err != nil {
		t.Fatalf("resolve mapping: %v", err)
	}
	return m
}

// script turns a row matrix into the token stream a sheet reader would emit.
// Row numbers start at 1 and empty cells produce no token.
func script(rows ...[]string) iter.Seq2[models.RowToken, error] {
	return func(yield func(models.RowToken, error) bool) {
		for r, row := range rows {
			first := true
			for c, v := range row {
				if v == "" {
					continue
				}
				if !yield(models.RowToken{RowNumber: r + 1, CellIndex: c, RawText: v, NewRow: first}, nil) {
					return
				}
				first = false
			}
		}
	}
}

func TestAssembleSkipsRowsBeforeStart(t *testing.T) {
	a := NewAssembler[person](personMapping(t), AssemblerOptions{StartRow: 2})

	got, err := Collect(a.Assemble(script(
		[]string{"Name", "Mobile", "Age"},
		[]string{"Alice", "13800000001", "30"},
		[]string{"Bob", "13800000002", "41", "", "1"},
		[]string{"Carol", "", "25"},
	)))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	expected := []person{
		{Name: "Alice", Mobile: "13800000001", Age: 30},
		{Name: "Bob", Mobile: "13800000002", Age: 41, VIP: true},
		{Name: "Carol", Age: 25},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}
}

func TestAssembleIgnoresUnmappedColumns(t *testing.T) {
	a := NewAssembler[person](personMapping(t), AssemblerOptions{})

	got, err := Collect(a.Assemble(script(
		[]string{"Dan", "1", "7", "ignored", "", "also ignored"},
	)))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(got) != 1 || got[0] != (person{Name: "Dan", Mobile: "1", Age: 7}) {
		t.Errorf("Unexpected records: %+v", got)
	}
}

func TestAssembleConversionErrorSkipsRow(t *testing.T) {
	a := NewAssembler[person](personMapping(t), AssemblerOptions{Sheet: "Customers", StartRow: 1})

	var records []person
	var errs []error
	for rec, err := range a.Assemble(script(
		[]string{"Alice", "1", "30"},
		[]string{"Bob", "2", "old", "", "1"},
		[]string{"Carol", "3", "25"},
	)) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}

	if len(records) != 2 || records[0].Name != "Alice" || records[1].Name != "Carol" {
		t.Errorf("Expected Alice and Carol, got %+v", records)
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errs), errs)
	}

	var cellErr *CellConversionError
	if !errors.As(errs[0], &cellErr) {
		t.Fatalf("Expected CellConversionError, got %T", errs[0])
	}
	if cellErr.Sheet != "Customers" || cellErr.Row != 2 || cellErr.Cell != 2 || cellErr.Field != "Age" {
		t.Errorf("Unexpected error context: %+v", cellErr)
	}
}

func TestAssemblerStates(t *testing.T) {
	a := NewAssembler[person](personMapping(t), AssemblerOptions{StartRow: 2})
	a.Reset()

	steps := []struct {
		tok     models.RowToken
		emitted bool
		state   State
	}{
		{models.RowToken{RowNumber: 1, CellIndex: 0, RawText: "Name", NewRow: true}, false, StateSkipping},
		{models.RowToken{RowNumber: 2, CellIndex: 0, RawText: "Alice", NewRow: true}, false, StateAccumulating},
		{models.RowToken{RowNumber: 2, CellIndex: 2, RawText: "30"}, false, StateAccumulating},
		{models.RowToken{RowNumber: 3, CellIndex: 0, RawText: "Bob", NewRow: true}, true, StateAccumulating},
	}

	for i, step := range steps {
		rec, emitted, err := a.Feed(step.tok)
		if err != nil {
			t.Fatalf("step %d: unexpected error %v", i, err)
		}
		if emitted != step.emitted {
			t.Errorf("step %d: emitted = %v, expected %v", i, emitted, step.emitted)
		}
		if emitted && rec.Name != "Alice" {
			t.Errorf("step %d: emitted %+v", i, rec)
		}
		if a.State() != step.state {
			t.Errorf("step %d: state = %v, expected %v", i, a.State(), step.state)
		}
	}

	rec, ok := a.Finish()
	if !ok || rec.Name != "Bob" {
		t.Errorf("Finish = %+v, %v", rec, ok)
	}
	if a.State() != StateDone {
		t.Errorf("state = %v, expected done", a.State())
	}
	if _, ok := a.Finish(); ok {
		t.Error("second Finish should not emit")
	}
}

func TestAssemblePointerRecordsAndLabels(t *testing.T) {
	a := NewAssembler[*person](personMapping(t), AssemblerOptions{
		Labels: map[string]string{"Yes": "true", "No": "false"},
	})

	got, err := Collect(a.Assemble(script(
		[]string{"Eve", "", "", "", "Yes"},
		[]string{"Finn", "", "", "", "No"},
	)))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(got) != 2 || !got[0].VIP || got[1].VIP || got[1].Name != "Finn" {
		t.Errorf("Unexpected records: %+v %+v", got[0], got[1])
	}
}

func TestAssembleSourceErrorStops(t *testing.T) {
	boom := errors.New("corrupt sheet")
	source := func(yield func(models.RowToken, error) bool) {
		if !yield(models.RowToken{RowNumber: 1, CellIndex: 0, RawText: "Alice", NewRow: true}, nil) {
			return
		}
		yield(models.RowToken{}, boom)
	}

	a := NewAssembler[person](personMapping(t), AssemblerOptions{})
	got, err := Collect(a.Assemble(source))
	if !errors.Is(err, boom) {
		t.Errorf("Expected source error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Partial record must not be emitted, got %+v", got)
	}
}

func TestAssembleEarlyBreak(t *testing.T) {
	a := NewAssembler[person](personMapping(t), AssemblerOptions{})
	count := 0
	for _, err := range a.Assemble(script([]string{"A"}, []string{"B"}, []string{"C"})) {
		if err != nil {
			t.Fatal(err)
		}
		count++
		break
	}
	if count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}
}

func TestPaginate(t *testing.T) {
	rows := make([][]string, 0, 8)
	for i := 0; i < 7; i++ {
		rows = append(rows, []string{string(rune('A' + i))})
	}

	tests := []struct {
		size     int
		expected []int
	}{
		{3, []int{3, 3, 1}},
		{7, []int{7}},
		{10, []int{7}},
		{1, []int{1, 1, 1, 1, 1, 1, 1}},
	}

	for _, tt := range tests {
		a := NewAssembler[person](personMapping(t), AssemblerOptions{})

		var sizes []int
		var names []string
		total, err := Paginate(a.Assemble(script(rows...)), tt.size, func(page []person) error {
			sizes = append(sizes, len(page))
			for _, p := range page {
				names = append(names, p.Name)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("size %d: %v", tt.size, err)
		}
		if total != 7 {
			t.Errorf("size %d: total = %d", tt.size, total)
		}
		if !reflect.DeepEqual(sizes, tt.expected) {
			t.Errorf("size %d: pages = %v, expected %v", tt.size, sizes, tt.expected)
		}
		if !reflect.DeepEqual(names, []string{"A", "B", "C", "D", "E", "F", "G"}) {
			t.Errorf("size %d: order = %v", tt.size, names)
		}
	}
}

func TestPaginateSinkError(t *testing.T) {
	stop := errors.New("stop")
	a := NewAssembler[person](personMapping(t), AssemblerOptions{})

	calls := 0
	_, err := Paginate(a.Assemble(script([]string{"A"}, []string{"B"}, []string{"C"})), 1, func([]person) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Expected sink error after 1 call, got %v after %d", err, calls)
	}
}

func TestAssembleStopsAfterEndRow(t *testing.T) {
	a := NewAssembler[person](personMapping(t), AssemblerOptions{StartRow: 2, EndRow: 3})

	got, err := Collect(a.Assemble(script(
		[]string{"Name"},
		[]string{"Alice"},
		[]string{"Bob"},
		[]string{"Total", "", "99"},
	)))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Alice" || got[1].Name != "Bob" {
		t.Errorf("Unexpected records: %+v", got)
	}
	if a.State() != StateDone {
		t.Errorf("state = %v, expected done", a.State())
	}
}
