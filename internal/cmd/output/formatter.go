// Package output provides formatters for command output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format types for output.
type Format string

const (
	// FormatTable represents table output format.
	FormatTable Format = "table"
	// FormatJSON represents JSON output format.
	FormatJSON Format = "json"
	// FormatYAML represents YAML output format.
	FormatYAML Format = "yaml"
	// FormatWide represents wide table output format.
	FormatWide Format = "wide"
)

// IsTable reports whether f renders as a table.
func (f Format) IsTable() bool {
	return f == FormatTable || f == FormatWide || f == ""
}

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment.
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Formatter interface for all output types.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, any) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter creates appropriate formatter based on format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{Wide: format == FormatWide}
	}
}

// JSONFormatter outputs JSON format.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter outputs YAML format.
type YAMLFormatter struct{}

// Format outputs data in YAML format.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	yamlData, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(yamlData)
	return err
}

// TableFormatter outputs table format.
type TableFormatter struct {
	Wide bool
}

// Format outputs data in table format.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Data:
		return f.formatTable(w, v)
	case *Data:
		return f.formatTable(w, *v)
	default:
		if tableData := f.convertToTableData(data); tableData != nil {
			return f.formatTable(w, *tableData)
		}

		// Fall back to JSON for non-table data
		jsonFormatter := &JSONFormatter{Indent: "  "}
		return jsonFormatter.Format(w, data)
	}
}

func (f *TableFormatter) formatTable(w io.Writer, data Data) error {
	config := tablewriter.Config{}

	if len(data.ColumnAlignment) > 0 {
		twAlign := make([]tw.Align, len(data.ColumnAlignment))
		for i, align := range data.ColumnAlignment {
			switch align {
			case AlignLeft:
				twAlign[i] = tw.AlignLeft
			case AlignCenter:
				twAlign[i] = tw.AlignCenter
			case AlignRight:
				twAlign[i] = tw.AlignRight
			default:
				twAlign[i] = tw.Skip
			}
		}

		config.Header.Alignment = tw.CellAlignment{PerColumn: twAlign}
		config.Row.Alignment = tw.CellAlignment{PerColumn: twAlign}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))

	if len(data.Headers) > 0 {
		headers := make([]any, len(data.Headers))
		for i, h := range data.Headers {
			headers[i] = h
		}
		table.Header(headers...)
	}

	for _, row := range data.Rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}

	if len(data.Footer) > 0 {
		footer := make([]any, len(data.Footer))
		for i, cell := range data.Footer {
			footer[i] = cell
		}
		table.Footer(footer...)
	}

	return table.Render()
}

// Data represents data formatted for table output.
type Data struct {
	Headers         []string
	Rows            [][]string
	Footer          []string
	ColumnAlignment []Align // Optional: column alignment
}

// DetectFormat auto-detects format based on terminal and environment.
func DetectFormat(explicitFormat string) Format {
	if explicitFormat != "" {
		return Format(strings.ToLower(explicitFormat))
	}

	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}

	// Default to JSON for pipes/redirects
	return FormatJSON
}

// ParseFormat converts string to Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, FormatWide, "":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml, wide", s)
	}
}

// convertToTableData converts a struct or a slice of structs using reflection.
func (f *TableFormatter) convertToTableData(data any) *Data {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct:
		return structSliceToTableData(v)
	case v.Kind() == reflect.Struct:
		return singleStructToTableData(v)
	}
	return nil
}

// structSliceToTableData converts a slice of structs to Data, one row per element.
func structSliceToTableData(v reflect.Value) *Data {
	elemType := v.Index(0).Type()

	headers := make([]string, 0, elemType.NumField())
	for i := 0; i < elemType.NumField(); i++ {
		headers = append(headers, columnName(elemType.Field(i)))
	}

	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		row := make([]string, 0, elem.NumField())
		for j := 0; j < elem.NumField(); j++ {
			row = append(row, fmt.Sprintf("%v", elem.Field(j).Interface()))
		}
		rows = append(rows, row)
	}

	return &Data{Headers: headers, Rows: rows}
}

// singleStructToTableData converts a single struct to a key-value table.
func singleStructToTableData(v reflect.Value) *Data {
	elemType := v.Type()

	rows := make([][]string, 0, elemType.NumField())
	for i := 0; i < elemType.NumField(); i++ {
		rows = append(rows, []string{
			columnName(elemType.Field(i)),
			fmt.Sprintf("%v", v.Field(i).Interface()),
		})
	}

	return &Data{
		Headers: []string{"Property", "Value"},
		Rows:    rows,
	}
}

// columnName titles the json tag of field, falling back to the field name.
func columnName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	if idx := strings.Index(tag, ","); idx > 0 {
		tag = tag[:idx]
	}
	return cases.Title(language.English).String(strings.ReplaceAll(tag, "_", " "))
}
