// Package tablefile reads and writes address tables as header-first CSV
// files. Every persisted write goes through an atomic temp-file replace so
// a table on disk is always structurally complete.
package tablefile

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mailbox-cli/internal/model"
)

// Load reads a CSV table from path. The first row is the schema; short data
// rows are padded with "" so every record carries the full field set. A
// UTF-8 BOM on the first header cell is stripped.
func Load(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tablefile: open %s", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "tablefile: read %s", path)
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("tablefile: %s has no header row", path)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	tbl := model.NewTable(header...)
	for _, row := range rows[1:] {
		rec := make(model.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		tbl.Append(rec)
	}
	return tbl, nil
}

// Save writes the table to path atomically: the full file is written to a
// sibling temp path and then renamed over the target in one operation.
func Save(path string, tbl *model.Table) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "tablefile: create %s", tmp)
	}

	w := csv.NewWriter(f)
	if err := w.Write(tbl.Fields); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "tablefile: write header")
	}
	for _, rec := range tbl.Rows {
		row := make([]string, len(tbl.Fields))
		for i, name := range tbl.Fields {
			row[i] = rec[name]
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return eris.Wrap(err, "tablefile: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "tablefile: flush")
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "tablefile: close %s", tmp)
	}

	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "tablefile: replace %s", path)
	}
	return nil
}

// Discover lists the CSV tables in dir that are candidates for enrichment,
// skipping files already produced by later stages. Results are sorted for
// deterministic processing order.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "tablefile: read dir %s", dir)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		lower := strings.ToLower(name)
		if strings.HasSuffix(lower, "_detailed.csv") || strings.HasSuffix(lower, "_verified.csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// DetailedPath derives the enricher output path for input. Inputs that are
// already a detailed table are updated in place.
func DetailedPath(input string) string {
	base, ext := splitExt(input)
	if strings.Contains(base, "_detailed") {
		return input
	}
	return base + "_detailed" + ext
}

// VerifiedPath derives the verifier output path for input.
func VerifiedPath(input string) string {
	base, ext := splitExt(input)
	return base + "_verified" + ext
}

// IsDetailed reports whether path names an enricher output table, which
// signals that the secondary-unit column is trustworthy input.
func IsDetailed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), "_detailed.csv")
}

func splitExt(path string) (string, string) {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext), ext
}
