package network

import "fmt"

// SchemaError reports a required sheet or column that is absent.
type SchemaError struct {
	Sheet  string
	Column string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("workbook missing sheet %q", e.Sheet)
	}
	return fmt.Sprintf("sheet %q missing column %q", e.Sheet, e.Column)
}

// EmptyRangeError reports a date column with no usable value, so no date
// bounds can be established.
type EmptyRangeError struct {
	Table  string
	Column string
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("%s: column %q has no parseable dates", e.Table, e.Column)
}

// ParseDegradation records a cell that could not be parsed and became null.
type ParseDegradation struct {
	Table  string
	Column string
	// Row is the 1-based data row in the source sheet (header excluded).
	Row int
	Raw string
}

func (d ParseDegradation) String() string {
	return fmt.Sprintf("%s row %d column %q: cannot parse %q", d.Table, d.Row, d.Column, d.Raw)
}
