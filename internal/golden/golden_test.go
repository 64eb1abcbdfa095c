package golden

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canthrowOutput = "Test testCatchDivide result: 0\n" +
	"Test testDivide result: ArithmeticException\n" +
	"\tat fixtures.divideLoop(canthrow.go:41)\n" +
	"\tat fixtures.(*canThrow).testDivide(canthrow.go:57)\n"

func TestCheck_Match(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir, "canthrow"), []byte(canthrowOutput), 0o644))

	res, err := Check("canthrow", []byte(canthrowOutput), Options{Dir: dir})
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.False(t, res.Updated)
	assert.Empty(t, res.Diff)
}

func TestCheck_MismatchHasDiff(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir, "canthrow"), []byte(canthrowOutput), 0o644))

	actual := []byte("Test testCatchDivide result: 1\n")
	res, err := Check("canthrow", actual, Options{Dir: dir})
	require.NoError(t, err)
	assert.False(t, res.Match)
	assert.Contains(t, res.Diff, "-Test testCatchDivide result: 0")
	assert.Contains(t, res.Diff, "+Test testCatchDivide result: 1")
}

func TestCheck_IgnoreLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir, "canthrow"), []byte(canthrowOutput), 0o644))

	moved := []byte("Test testCatchDivide result: 0\n" +
		"Test testDivide result: ArithmeticException\n" +
		"\tat fixtures.divideLoop(canthrow.go:44)\n" +
		"\tat fixtures.(*canThrow).testDivide(canthrow.go:60)\n")

	strict, err := Check("canthrow", moved, Options{Dir: dir})
	require.NoError(t, err)
	assert.False(t, strict.Match)

	loose, err := Check("canthrow", moved, Options{Dir: dir, IgnoreLines: true})
	require.NoError(t, err)
	assert.True(t, loose.Match)
}

func TestCheck_MissingFile(t *testing.T) {
	_, err := Check("andtests", []byte("x\n"), Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, ErrMissing)
}

func TestCheck_Update(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "expected")

	res, err := Check("loopbounds", []byte("Test testLoop result: 45\n"), Options{Dir: dir, Update: true})
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.True(t, res.Match)

	data, err := os.ReadFile(filepath.Join(dir, "loopbounds.expected"))
	require.NoError(t, err)
	assert.Equal(t, "Test testLoop result: 45\n", string(data))

	again, err := Check("loopbounds", []byte("Test testLoop result: 45\n"), Options{Dir: dir})
	require.NoError(t, err)
	assert.True(t, again.Match)
}

func TestMaskLines(t *testing.T) {
	in := "\tat invoke_test.divide(invoke_test.go:27)\nTest x result: (12)\n"
	assert.Equal(t,
		"\tat invoke_test.divide(invoke_test.go:_)\nTest x result: (12)\n",
		string(MaskLines([]byte(in))))
}
