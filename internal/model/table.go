package model

// Table is an ordered sequence of Records sharing one schema. Fields holds
// the unique column names in output order; every Record in Rows carries
// exactly that field set, with missing values stored as "".
type Table struct {
	Fields []string
	Rows   []Record
}

// NewTable creates an empty table with the given column order.
func NewTable(fields ...string) *Table {
	return &Table{Fields: append([]string(nil), fields...)}
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Rows) }

// HasField reports whether name is part of the schema.
func (t *Table) HasField(name string) bool {
	return t.FieldIndex(name) >= 0
}

// FieldIndex returns the column index of name, or -1.
func (t *Table) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Append adds a record, normalizing it to the table's schema: fields the
// record lacks become "", fields outside the schema are dropped.
func (t *Table) Append(rec Record) {
	row := make(Record, len(t.Fields))
	for _, f := range t.Fields {
		row[f] = rec[f]
	}
	t.Rows = append(t.Rows, row)
}

// EnsureFieldAt inserts name at index idx if the schema lacks it, clamping
// idx to the valid range. Existing rows gain the field with value "". The
// fixed insertion point keeps column order stable across repeated runs.
func (t *Table) EnsureFieldAt(name string, idx int) {
	if t.HasField(name) {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(t.Fields) {
		idx = len(t.Fields)
	}
	t.Fields = append(t.Fields, "")
	copy(t.Fields[idx+1:], t.Fields[idx:])
	t.Fields[idx] = name
	for _, row := range t.Rows {
		if _, ok := row[name]; !ok {
			row[name] = ""
		}
	}
}

// RemoveField drops name from the schema. Row values are left in place;
// they are simply no longer written out.
func (t *Table) RemoveField(name string) {
	idx := t.FieldIndex(name)
	if idx < 0 {
		return
	}
	t.Fields = append(t.Fields[:idx], t.Fields[idx+1:]...)
}

// InsertFieldsAfter places names directly after the anchor column, in the
// order given. When the anchor is absent the names are appended. Names
// already present are removed first so the final position is deterministic.
func (t *Table) InsertFieldsAfter(anchor string, names ...string) {
	for _, n := range names {
		t.RemoveField(n)
	}
	idx := t.FieldIndex(anchor)
	if idx < 0 {
		for _, n := range names {
			t.EnsureFieldAt(n, len(t.Fields))
		}
		return
	}
	for i, n := range names {
		t.EnsureFieldAt(n, idx+1+i)
	}
}
