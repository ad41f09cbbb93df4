package excelutils

import (
	"fmt"
	"io"
	"os"

	"github.com/fanlychie/excelutils/pkg/excelutils/engine"
	"github.com/fanlychie/excelutils/pkg/excelutils/models"
	"gopkg.in/yaml.v3"
)

// DefaultStyle returns the builtin sheet look.
func DefaultStyle() models.SheetStyle {
	return engine.DefaultStyle()
}

// LoadStyle reads a YAML sheet style. Keys absent from the document keep their
// DefaultStyle values; unknown keys are rejected.
func LoadStyle(r io.Reader) (*models.SheetStyle, error) {
	style := DefaultStyle()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&style); err != nil && err != io.EOF {
		return nil, configError("style", "%v", err)
	}
	return &style, nil
}

// LoadStyleFile reads a YAML sheet style from path.
func LoadStyleFile(path string) (*models.SheetStyle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open style: %w", err)
	}
	defer f.Close()
	return LoadStyle(f)
}
