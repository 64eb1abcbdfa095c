package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listRunIDs(t *testing.T, db string, extra ...string) []string {
	t.Helper()
	args := append([]string{"history", "--db", db, "--format", "json"}, extra...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)

	var resp struct {
		Data []RunEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	ids := make([]string, len(resp.Data))
	for i, e := range resp.Data {
		ids[i] = e.RunID
	}
	return ids
}

func TestHistory_RecordsRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, _, err := execute(t, "run", "removepureinvoke", "canthrow", "--db", db)
	require.NoError(t, err)
	_, _, err = execute(t, "run", "removepureinvoke", "--db", db)
	require.NoError(t, err)

	assert.Len(t, listRunIDs(t, db), 3)
	assert.Len(t, listRunIDs(t, db, "--suite", "removepureinvoke"), 2)

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "RUN ID")
	assert.Contains(t, out, "prefix:test")
}

func TestHistory_RunRecords(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	_, _, err := execute(t, "run", "canthrow", "--db", db)
	require.NoError(t, err)
	ids := listRunIDs(t, db)
	require.Len(t, ids, 1)

	out, _, err := execute(t, "history", "--db", db, ids[0], "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []RecordEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 4)
	assert.Equal(t, "testCatchDivide", resp.Data[0].Test)
	assert.Equal(t, "success", resp.Data[0].Outcome)
	assert.Equal(t, "long 0", resp.Data[0].Detail)
	assert.Equal(t, "InvocationFailure", resp.Data[1].Outcome)
	assert.Equal(t, "ArithmeticException", resp.Data[1].Detail)
	assert.Len(t, resp.Data[1].Frames, 2)

	out, _, err = execute(t, "history", "--db", db, ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "testNullSet")
}

func TestHistory_NoRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	_, _, err := execute(t, "run", "removepureinvoke", "--db", db)
	require.NoError(t, err)

	out, _, err := execute(t, "history", "--db", db, "--suite", "andtests")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistory_MissingDatabase(t *testing.T) {
	_, _, err := execute(t, "history", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestHistory_RequiresDB(t *testing.T) {
	_, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestDiff_NoChanges(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	for range 2 {
		_, _, err := execute(t, "run", "canthrow", "--db", db)
		require.NoError(t, err)
	}
	ids := listRunIDs(t, db)
	require.Len(t, ids, 2)

	out, _, err := execute(t, "diff", "--db", db, ids[0], ids[1])
	require.NoError(t, err)
	assert.Contains(t, out, "No differences.")
}

func TestDiff_Changes(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	manifest := writeManifest(t, unboundManifest)

	_, _, err := execute(t, "run", "removepureinvoke", "--db", db)
	require.NoError(t, err)
	_, _, err = execute(t, "run", "removepureinvoke", "--db", db, "--manifest", manifest)
	require.NoError(t, err)
	ids := listRunIDs(t, db)
	require.Len(t, ids, 2)

	out, _, err := execute(t, "diff", "--db", db, ids[0], ids[1])
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, []string{
		"test: success int 56242505 -> InvalidArgument",
		"testWithGCStress: success string 56242505 -> InvalidArgument",
	}, lines(out))
}

func TestDiff_UnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	_, _, err := execute(t, "run", "removepureinvoke", "--db", db)
	require.NoError(t, err)
	ids := listRunIDs(t, db)

	_, _, err = execute(t, "diff", "--db", db, ids[0], "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
