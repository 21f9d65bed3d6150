// Package output renders query results for the command line.
//
// Row results go through a Formatter (JSON Lines, CSV, or an aligned text
// table); grouped and aggregated results, whose shape is nested rather than
// tabular, are rendered as indented JSON with EncodeJSON.
//
// Example usage:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(rows); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"encoding/json"
	"io"
	"sort"
)

// Formatter defines the interface for row output formatters.
type Formatter interface {
	// Format writes rows in the formatter's specific format
	Format(rows []map[string]interface{}) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// EncodeJSON writes any result structure as indented JSON. It is the
// fallback for non-tabular results (grouped rows, aggregate mappings).
func EncodeJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// JSONFormatter writes row results as JSON Lines: one object per line,
// keyed exactly as the rows are, for piping into line-oriented tooling.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a JSON Lines formatter writing to w.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput changes the destination writer.
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format encodes each row on its own line. Rows are written as-is, with
// no column union; sparse rows simply omit their missing keys.
func (j *JSONFormatter) Format(rows []map[string]interface{}) error {
	encoder := json.NewEncoder(j.writer)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

// columnNames returns the union of column names across rows, sorted for
// deterministic output. Heterogeneous rows (sparse data) are expected.
func columnNames(rows []map[string]interface{}) []string {
	columnSet := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			columnSet[col] = true
		}
	}

	columns := make([]string, 0, len(columnSet))
	for col := range columnSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
