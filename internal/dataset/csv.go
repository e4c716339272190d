package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ColumnUnion returns the sorted union of all column names across records,
// giving heterogeneous rows a stable header.
func ColumnUnion(records []Record) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// WriteRecordsCSV writes records to path with the given column order,
// creating parent directories as needed. Missing cells render empty.
func WriteRecordsCSV(path string, columns []string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec[col].Text()
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadRecordsCSV reads a header-rowed CSV into records. Cells that parse as
// numbers become number values, empty cells become missing, everything else
// stays text. This mirrors how the rest of the system type-infers raw input.
func ReadRecordsCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, col := range header {
			if i >= len(row) {
				rec[col] = Missing()
				continue
			}
			rec[col] = inferCell(row[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

func inferCell(s string) Value {
	if s == "" {
		return Missing()
	}
	v := String(s)
	if f, ok := v.ParseNumber(); ok {
		return Number(f)
	}
	return v
}
