package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_UpdateThenMatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "expected")

	out, _, err := execute(t, "check", "removepureinvoke", "canthrow", "--dir", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "updated removepureinvoke")
	assert.Contains(t, out, "updated canthrow")

	data, err := os.ReadFile(filepath.Join(dir, "removepureinvoke.expected"))
	require.NoError(t, err)
	assert.Equal(t, "Test Main; Subtest test; Result: 56242505\n"+
		"Test Main; Subtest testWithGCStress; Result: 56242505\n", string(data))

	out, _, err = execute(t, "check", "removepureinvoke", "canthrow", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ok      removepureinvoke")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestCheck_Mismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "removepureinvoke.expected"),
		[]byte("Test Main; Subtest test; Result: 0\n"), 0o644))

	out, _, err := execute(t, "check", "removepureinvoke", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL    removepureinvoke")
	assert.Contains(t, out, "-Test Main; Subtest test; Result: 0")
	assert.Contains(t, out, "+Test Main; Subtest test; Result: 56242505")
}

func TestCheck_Missing(t *testing.T) {
	out, _, err := execute(t, "check", "loopbounds", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "MISSING loopbounds")
}

func TestCheck_IgnoreLines(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "check", "canthrow", "--dir", dir, "--update")
	require.NoError(t, err)

	path := filepath.Join(dir, "canthrow.expected")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	shifted := strings.ReplaceAll(string(data), "canthrow.go:", "canthrow.go:9")
	require.NoError(t, os.WriteFile(path, []byte(shifted), 0o644))

	_, _, err = execute(t, "check", "canthrow", "--dir", dir)
	assert.Error(t, err)

	_, _, err = execute(t, "check", "canthrow", "--dir", dir, "--ignore-lines")
	assert.NoError(t, err)
}

func TestCheck_JSON(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "check", "removepureinvoke", "--dir", dir, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Suites, 1)
	assert.True(t, resp.Data.Suites[0].Missing)
}

func TestCheck_VerboseGoesToStderr(t *testing.T) {
	dir := t.TempDir()
	out, errOut, err := execute(t, "check", "removepureinvoke", "--dir", dir, "--update", "--verbose")
	require.NoError(t, err)
	assert.NotContains(t, out, "checking removepureinvoke")
	assert.Contains(t, errOut, "checking removepureinvoke")
}
