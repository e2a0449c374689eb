package tablefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mailbox-cli/internal/model"
)

func sampleTable() *model.Table {
	tbl := model.NewTable(model.FieldStreet, model.FieldCity, model.FieldState, model.FieldZip)
	tbl.Append(model.Record{
		model.FieldStreet: "123 Main St",
		model.FieldCity:   "Airmont",
		model.FieldState:  "NY",
		model.FieldZip:    "10901",
	})
	tbl.Append(model.Record{
		model.FieldStreet: "9 Elm Ave",
		model.FieldCity:   "Denver",
		model.FieldState:  "CO",
		model.FieldZip:    "80202",
	})
	return tbl
}

func TestSaveLoad_RoundTripPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, Save(path, sampleTable()))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{model.FieldStreet, model.FieldCity, model.FieldState, model.FieldZip}, got.Fields)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "Airmont", got.Rows[0][model.FieldCity])
	assert.Equal(t, "80202", got.Rows[1][model.FieldZip])
}

func TestSave_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, Save(path, sampleTable()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestSave_ReplacesExistingAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale content"), 0o644))

	require.NoError(t, Save(path, sampleTable()))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestLoad_StripsBOMAndPadsShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "\uFEFFStreet Address,City,State Abbreviation\n123 Main St,Airmont\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.FieldStreet, got.Fields[0])
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "", got.Rows[0][model.FieldState])
}

func TestLoad_EmptyFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDiscover_SkipsStageOutputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"colorado.csv",
		"new-york.csv",
		"colorado_detailed.csv",
		"colorado_detailed_verified.csv",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644))
	}

	paths, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.True(t, strings.HasSuffix(paths[0], "colorado.csv"))
	assert.True(t, strings.HasSuffix(paths[1], "new-york.csv"))
}

func TestDerivedPaths(t *testing.T) {
	assert.Equal(t, "Public/colorado_detailed.csv", DetailedPath("Public/colorado.csv"))
	// Already-detailed inputs are updated in place.
	assert.Equal(t, "Public/colorado_detailed.csv", DetailedPath("Public/colorado_detailed.csv"))
	assert.Equal(t, "Public/colorado_detailed_verified.csv", VerifiedPath("Public/colorado_detailed.csv"))

	assert.True(t, IsDetailed("Public/Colorado_Detailed.csv"))
	assert.False(t, IsDetailed("Public/colorado.csv"))
}

func TestAppendWriter_PartialOutputIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verified.csv")

	w, err := NewAppendWriter(path, []string{model.FieldStreet, model.FieldRDI})
	require.NoError(t, err)

	require.NoError(t, w.Write(model.Record{model.FieldStreet: "123 Main St", model.FieldRDI: "Residential"}))

	// Readable mid-run, before Close: header plus one complete row.
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, "Residential", got.Rows[0][model.FieldRDI])

	require.NoError(t, w.Write(model.Record{model.FieldStreet: "9 Elm Ave", model.FieldRDI: "Error"}))
	require.NoError(t, w.Close())

	got, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}
