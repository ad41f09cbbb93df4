package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fanlychie/excelutils/pkg/excelutils/models"
)

// TagName is the struct tag key holding a field's cell mapping.
//
//	type Customer struct {
//	    Name    string  `excel:"index=0,name=Name,align=center"`
//	    Balance float64 `excel:"index=1,name=Balance,format=#,##0.00,align=right"`
//	}
//
// A value may contain commas; a segment that does not start with a known key
// continues the previous value.
const TagName = "excel"

// Spec is the declaration of one mapped field.
type Spec struct {
	// Field is the Go struct field name.
	Field string
	// Index is the 0-based column index.
	Index int
	// Name is the header text.
	Name string
	// Format is the number format; empty uses the value type's default.
	Format string
	// Align is the column alignment; empty means left.
	Align models.Alignment
}

var tagKeys = map[string]bool{"index": true, "name": true, "format": true, "align": true}

// parseTag parses the content of an excel struct tag.
func parseTag(field, tag string) (Spec, error) {
	spec := Spec{Field: field, Index: -1}
	values := make(map[string]string, 4)

	var last string
	for i, part := range strings.Split(tag, ",") {
		key, value, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if ok && isKey(key) {
			if !tagKeys[key] {
				return spec, fmt.Errorf("unknown key %q", key)
			}
			if _, dup := values[key]; dup {
				return spec, fmt.Errorf("key %q repeated", key)
			}
			values[key] = value
			last = key
			continue
		}
		if i == 0 && !ok {
			// bare leading index: `excel:"0,name=Name"`
			values["index"] = part
			last = "index"
			continue
		}
		if last == "" {
			return spec, fmt.Errorf("malformed segment %q", part)
		}
		values[last] += "," + part
	}

	raw, ok := values["index"]
	if !ok {
		return spec, fmt.Errorf("missing index")
	}
	index, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return spec, fmt.Errorf("index %q is not an integer", raw)
	}
	if index < 0 {
		return spec, fmt.Errorf("index %d is negative", index)
	}
	spec.Index = index

	spec.Name = strings.TrimSpace(values["name"])
	if spec.Name == "" {
		return spec, fmt.Errorf("missing name")
	}

	spec.Format = strings.TrimSpace(values["format"])

	align, ok := models.ParseAlignment(values["align"])
	if !ok {
		return spec, fmt.Errorf("unknown alignment %q", values["align"])
	}
	spec.Align = align

	return spec, nil
}

// isKey reports whether s looks like a tag key rather than part of a value.
func isKey(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
