package main

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fanlychie/excelutils/pkg/excelutils/convert"
	"github.com/fanlychie/excelutils/pkg/excelutils/mapping"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// printer writes decoded records in one of the output formats.
// Columns follow the mapping's index order and values use their cell text form.
type printer struct {
	w       io.Writer
	format  string
	mapping *mapping.Mapping
}

func newPrinter(w io.Writer, format string, m *mapping.Mapping) (*printer, error) {
	switch format {
	case FormatTable, FormatYAML, FormatJSON:
		return &printer{w: w, format: format, mapping: m}, nil
	}
	return nil, fmt.Errorf("invalid format: %s (must be table, yaml, or json)", format)
}

func (p *printer) Print(records []Customer) error {
	rows, err := p.text(records)
	if err != nil {
		return err
	}

	switch p.format {
	case FormatYAML:
		return p.yaml(rows)
	case FormatJSON:
		return p.json(rows)
	}
	return p.table(rows)
}

func (p *printer) text(records []Customer) ([][]string, error) {
	rows := make([][]string, len(records))
	for i, rec := range records {
		v := reflect.ValueOf(rec)
		row := make([]string, len(p.mapping.Fields))
		for j, fd := range p.mapping.Fields {
			s, err := convert.FormatText(v.FieldByIndex(fd.FieldPath), fd.ValueType)
			if err != nil {
				return nil, fmt.Errorf("record %d field %s: %w", i+1, fd.SourceFieldName, err)
			}
			row[j] = s
		}
		rows[i] = row
	}
	return rows, nil
}

func (p *printer) table(rows [][]string) error {
	header := p.mapping.Headers()

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string) error {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = runewidth.FillRight(cell, widths[i])
		}
		_, err := fmt.Fprintln(p.w, strings.TrimRight(strings.Join(padded, "  "), " "))
		return err
	}

	if err := line(header); err != nil {
		return err
	}
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	if err := line(rule); err != nil {
		return err
	}
	for _, row := range rows {
		if err := line(row); err != nil {
			return err
		}
	}
	return nil
}

// yaml emits a sequence of mappings keyed by header, keeping column order.
func (p *printer) yaml(rows [][]string) error {
	header := p.mapping.Headers()
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range rows {
		item := &yaml.Node{Kind: yaml.MappingNode}
		for i, cell := range row {
			item.Content = append(item.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: header[i]},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: cell},
			)
		}
		doc.Content = append(doc.Content, item)
	}

	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func (p *printer) json(rows [][]string) error {
	header := p.mapping.Headers()
	items := make([]map[string]string, len(rows))
	for i, row := range rows {
		item := make(map[string]string, len(row))
		for j, cell := range row {
			item[header[j]] = cell
		}
		items[i] = item
	}

	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
