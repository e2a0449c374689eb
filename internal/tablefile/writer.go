package tablefile

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mailbox-cli/internal/model"
)

// AppendWriter streams records to a CSV file one row at a time. The header
// is written on creation and every row is flushed immediately, so the file
// is a valid (if truncated) table at any point during a run.
type AppendWriter struct {
	f      *os.File
	w      *csv.Writer
	fields []string
	closed bool
}

// NewAppendWriter creates path, truncating any previous content, and writes
// the header row.
func NewAppendWriter(path string, fields []string) (*AppendWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tablefile: create %s", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "tablefile: write header")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "tablefile: flush header")
	}

	return &AppendWriter{f: f, w: w, fields: append([]string(nil), fields...)}, nil
}

// Write appends one record as a complete, flushed row.
func (a *AppendWriter) Write(rec model.Record) error {
	row := make([]string, len(a.fields))
	for i, name := range a.fields {
		row[i] = rec[name]
	}
	if err := a.w.Write(row); err != nil {
		return eris.Wrap(err, "tablefile: write row")
	}
	a.w.Flush()
	return eris.Wrap(a.w.Error(), "tablefile: flush row")
}

// Close flushes and closes the underlying file. Extra calls are no-ops.
func (a *AppendWriter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.w.Flush()
	if err := a.w.Error(); err != nil {
		_ = a.f.Close()
		return eris.Wrap(err, "tablefile: final flush")
	}
	return eris.Wrap(a.f.Close(), "tablefile: close")
}
