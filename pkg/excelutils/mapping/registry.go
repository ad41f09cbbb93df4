// Package mapping resolves and caches the column mapping declared on record types.
//
// A mapping is resolved at most once per type and shared by every reader and writer
// in the process. After the first resolution, lookups are lock-free.
package mapping

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fanlychie/excelutils/pkg/excelutils/convert"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
)

// Default is the process-wide registry.
var Default = NewRegistry()

// Mapping is the resolved, immutable column mapping of a record type.
type Mapping struct {
	// Type is the struct type the mapping belongs to.
	Type reflect.Type
	// Fields holds one descriptor per mapped field, ordered by index ascending.
	Fields []models.FieldDescriptor

	// columns maps a column index to a position in Fields, -1 when unmapped.
	columns []int
}

// Lookup returns the descriptor mapped to a column index.
func (m *Mapping) Lookup(index int) (models.FieldDescriptor, bool) {
	if index < 0 || index >= len(m.columns) || m.columns[index] < 0 {
		return models.FieldDescriptor{}, false
	}
	return m.Fields[m.columns[index]], true
}

// Width returns the number of columns spanned by the mapping.
func (m *Mapping) Width() int {
	return len(m.columns)
}

// Headers returns the display names in column order.
func (m *Mapping) Headers() []string {
	headers := make([]string, len(m.Fields))
	for i, fd := range m.Fields {
		headers[i] = fd.DisplayName
	}
	return headers
}

type entry struct {
	once    sync.Once
	mapping *Mapping
	err     error
}

// Registry caches resolved mappings keyed by type.
type Registry struct {
	entries sync.Map // reflect.Type -> *entry
	scans   atomic.Int64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// For resolves the mapping of T.
func For[T any](r *Registry) (*Mapping, error) {
	return r.Resolve(reflect.TypeFor[T]())
}

// Resolve returns the mapping declared on t, scanning its struct tags on first use.
// Pointer types resolve to their element type.
func (r *Registry) Resolve(t reflect.Type) (*Mapping, error) {
	t = indirect(t)

	v, ok := r.entries.Load(t)
	if !ok {
		v, _ = r.entries.LoadOrStore(t, &entry{})
	}
	e := v.(*entry)
	e.once.Do(func() {
		r.scans.Add(1)
		e.mapping, e.err = scan(t)
	})
	return e.mapping, e.err
}

// Declare registers an explicit mapping for t instead of its struct tags.
// It must be called before t is first resolved.
func (r *Registry) Declare(t reflect.Type, specs []Spec) error {
	t = indirect(t)
	if _, ok := r.entries.Load(t); ok {
		return fmt.Errorf("declare %v: %w", t, ErrAlreadyResolved)
	}

	m, err := build(t, specs)
	if err != nil {
		return err
	}

	e := &entry{}
	e.once.Do(func() { e.mapping = m })
	if _, loaded := r.entries.LoadOrStore(t, e); loaded {
		return fmt.Errorf("declare %v: %w", t, ErrAlreadyResolved)
	}
	return nil
}

// Scans returns how many times a type's mapping has been built.
func (r *Registry) Scans() int64 {
	return r.scans.Load()
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// scan reads the mapping from struct tags.
func scan(t reflect.Type) (*Mapping, error) {
	if t.Kind() != reflect.Struct {
		return nil, &NoMappingDeclaredError{Type: t}
	}

	var specs []Spec
	for _, f := range reflect.VisibleFields(t) {
		tag, ok := f.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		spec, err := parseTag(f.Name, tag)
		if err != nil {
			return nil, &InvalidTagError{Type: t, Field: f.Name, Reason: err.Error()}
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, &NoMappingDeclaredError{Type: t}
	}

	return build(t, specs)
}

// build validates specs against t and produces the ordered mapping.
func build(t reflect.Type, specs []Spec) (*Mapping, error) {
	if t.Kind() != reflect.Struct || len(specs) == 0 {
		return nil, &NoMappingDeclaredError{Type: t}
	}

	fields := make([]models.FieldDescriptor, 0, len(specs))
	owners := make(map[int]string, len(specs))
	maxIndex := 0

	for _, spec := range specs {
		sf, ok := t.FieldByName(spec.Field)
		if !ok {
			return nil, &InvalidTagError{Type: t, Field: spec.Field, Reason: "no such field"}
		}
		if !sf.IsExported() {
			return nil, &InvalidTagError{Type: t, Field: spec.Field, Reason: "field is not exported"}
		}
		if throughPointer(t, sf.Index) {
			return nil, &InvalidTagError{Type: t, Field: spec.Field, Reason: "field is promoted through an embedded pointer"}
		}
		if spec.Index < 0 {
			return nil, &InvalidTagError{Type: t, Field: spec.Field, Reason: fmt.Sprintf("index %d is negative", spec.Index)}
		}
		if spec.Name == "" {
			return nil, &InvalidTagError{Type: t, Field: spec.Field, Reason: "missing name"}
		}
		if prev, dup := owners[spec.Index]; dup {
			return nil, &DuplicateIndexError{Type: t, Index: spec.Index, Fields: []string{prev, spec.Field}}
		}
		owners[spec.Index] = spec.Field

		vt, ok := convert.TypeOf(sf.Type)
		if !ok {
			return nil, &InvalidTagError{Type: t, Field: spec.Field, Reason: fmt.Sprintf("unsupported type %v", sf.Type)}
		}

		format := spec.Format
		if format == "" {
			format = convert.DefaultFormat(vt)
		}
		align := spec.Align
		if align == "" {
			align = models.AlignLeft
		}

		fields = append(fields, models.FieldDescriptor{
			Index:           spec.Index,
			DisplayName:     spec.Name,
			Format:          format,
			Alignment:       align,
			SourceFieldName: spec.Field,
			ValueType:       vt,
			FieldPath:       sf.Index,
		})
		if spec.Index > maxIndex {
			maxIndex = spec.Index
		}
	}

	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Index < fields[j].Index
	})

	columns := make([]int, maxIndex+1)
	for i := range columns {
		columns[i] = -1
	}
	for i, fd := range fields {
		columns[fd.Index] = i
	}

	return &Mapping{Type: t, Fields: fields, columns: columns}, nil
}

// throughPointer reports whether a promoted field is reached via an embedded pointer.
func throughPointer(t reflect.Type, index []int) bool {
	cur := t
	for _, i := range index[:len(index)-1] {
		f := cur.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		cur = f.Type
	}
	return false
}
