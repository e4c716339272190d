package dataset

import "fmt"

// Frame is an ordered numeric table: the shape the fitted transform and the
// classifier operate on. Column order is significant.
type Frame struct {
	Columns []string
	Rows    [][]float64
}

// NewFrame creates an empty frame with the given column order.
func NewFrame(columns []string) *Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Frame{Columns: cols}
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return len(f.Rows) }

// ColumnIndex returns the position of name, or -1 when absent.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the frame carries name.
func (f *Frame) HasColumn(name string) bool { return f.ColumnIndex(name) >= 0 }

// AppendRow adds a row, which must match the column count.
func (f *Frame) AppendRow(row []float64) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// AddColumn appends a column filled with the given value to every row.
func (f *Frame) AddColumn(name string, fill float64) {
	f.Columns = append(f.Columns, name)
	for i := range f.Rows {
		f.Rows[i] = append(f.Rows[i], fill)
	}
}

// Records converts the frame back to raw records, one per row. Used when
// already-canonical data re-enters reconciliation.
func (f *Frame) Records() []Record {
	out := make([]Record, 0, len(f.Rows))
	for _, row := range f.Rows {
		rec := make(Record, len(f.Columns))
		for i, col := range f.Columns {
			rec[col] = Number(row[i])
		}
		out = append(out, rec)
	}
	return out
}
