package domain

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed datasets.yaml
var datasetsYAML []byte

// ColumnType constrains the DDL the tabular store may generate for a column.
type ColumnType string

const (
	ColText    ColumnType = "text"
	ColNumeric ColumnType = "numeric"
	ColInteger ColumnType = "integer"
	ColDate    ColumnType = "date"
	ColBoolean ColumnType = "boolean"
)

type ColumnSpec struct {
	Name     string     `yaml:"name"`
	Type     ColumnType `yaml:"type"`
	Required bool       `yaml:"required"`
}

// TableSchema is the declared column set for one dataset category. Identifier
// interpolation into SQL is only ever done with names taken from here, never
// from user input.
type TableSchema struct {
	Category Category
	Columns  []ColumnSpec `yaml:"columns"`
}

func (s TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return names
}

func (s TableSchema) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

var schemas = mustLoadSchemas()

func mustLoadSchemas() map[Category]TableSchema {
	raw := map[Category]TableSchema{}
	if err := yaml.Unmarshal(datasetsYAML, &raw); err != nil {
		panic(fmt.Sprintf("domain: parse embedded datasets.yaml: %v", err))
	}
	out := make(map[Category]TableSchema, len(raw))
	for _, cat := range AllCategories {
		schema, ok := raw[cat]
		if !ok {
			panic(fmt.Sprintf("domain: datasets.yaml missing category %q", cat))
		}
		schema.Category = cat
		out[cat] = schema
	}
	return out
}

// SchemaFor returns the declared schema for a category.
func SchemaFor(cat Category) (TableSchema, bool) {
	s, ok := schemas[cat]
	return s, ok
}

// NumericColumnsFor lists the columns of a category eligible for anomaly
// scanning. Acts as the identifier allow-list for the detect_anomalies
// analysis.
func NumericColumnsFor(cat Category) []string {
	schema, ok := SchemaFor(cat)
	if !ok {
		return nil
	}
	var cols []string
	for _, c := range schema.Columns {
		if c.Type == ColNumeric || c.Type == ColInteger {
			cols = append(cols, c.Name)
		}
	}
	return cols
}
