package response

import "sort"

// Table is a columnar view of an envelope's rows: column names in first-seen
// order and one value slice per column, padded with nils where a row lacked
// the field.
type Table struct {
	Columns []string
	values  map[string][]any
	rows    int
}

// Table converts the envelope's rows into columnar form. Fundamentals
// envelopes, which carry a single record in Data, produce a one-row table.
func (r *Response) Table() *Table {
	rows := r.Rows
	if rows == nil && r.Data != nil {
		rows = []map[string]any{r.Data}
	}

	t := &Table{values: make(map[string][]any)}
	for _, row := range rows {
		// Deterministic column discovery within a row.
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if _, seen := t.values[k]; !seen {
				t.Columns = append(t.Columns, k)
				// Backfill rows that predate this column.
				t.values[k] = make([]any, t.rows)
			}
		}

		for _, col := range t.Columns {
			t.values[col] = append(t.values[col], row[col])
		}
		t.rows++
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Column returns the values of the named column, nil if it does not exist.
func (t *Table) Column(name string) []any {
	return t.values[name]
}

// Row materializes the i-th row as a map. Returns nil when out of range.
func (t *Table) Row(i int) map[string]any {
	if i < 0 || i >= t.rows {
		return nil
	}
	row := make(map[string]any, len(t.Columns))
	for _, col := range t.Columns {
		row[col] = t.values[col][i]
	}
	return row
}
