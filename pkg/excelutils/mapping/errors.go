package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrAlreadyResolved indicates a Declare call for a type that is already in use.
var ErrAlreadyResolved = errors.New("mapping already resolved")

// NoMappingDeclaredError indicates a type without any mapped field.
type NoMappingDeclaredError struct {
	Type reflect.Type
}

func (e *NoMappingDeclaredError) Error() string {
	return fmt.Sprintf("no %q mapping declared on %v", TagName, e.Type)
}

// DuplicateIndexError indicates two fields mapped to the same column.
type DuplicateIndexError struct {
	Type   reflect.Type
	Index  int
	Fields []string
}

func (e *DuplicateIndexError) Error() string {
	return fmt.Sprintf("duplicate column index %d on %v (fields %s)", e.Index, e.Type, strings.Join(e.Fields, ", "))
}

// InvalidTagError indicates a malformed mapping on a single field.
type InvalidTagError struct {
	Type   reflect.Type
	Field  string
	Reason string
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("invalid mapping on %v.%s: %s", e.Type, e.Field, e.Reason)
}
