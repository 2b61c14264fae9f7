package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

type doc struct {
	Name  string   `toml:"name"`
	Count int      `toml:"count"`
	Tags  []string `toml:"tags"`
}

func TestSaveAndLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.toml")
	in := doc{Name: "x", Count: 3, Tags: []string{"a", "b"}}
	require.NoError(t, SaveTOMLFile(in, path))

	var out doc
	require.NoError(t, LoadTOMLFile(path, &out))
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestParseTOMLWithRecoveryAndExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[s]
n = 5
b = true
str = "v"
list = ["a", "b"]
mixed = ["a", 1]
`), 0o644))

	data, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	s, ok := ExtractSection(data, "s")
	require.True(t, ok)

	n, ok := ExtractInt64(s, "n")
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	b, ok := ExtractBool(s, "b")
	assert.True(t, ok)
	assert.True(t, b)

	str, ok := ExtractString(s, "str")
	assert.True(t, ok)
	assert.Equal(t, "v", str)

	list, ok := ExtractStrings(s, "list")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, list)

	_, ok = ExtractStrings(s, "mixed")
	assert.False(t, ok)
	_, ok = ExtractInt64(s, "str")
	assert.False(t, ok)
	_, ok = ExtractSection(data, "missing")
	assert.False(t, ok)
}

func TestParseTOMLWithRecoveryInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[["), 0o644))
	_, err := ParseTOMLWithRecovery(path)
	assert.Error(t, err)
}

func TestCheckDirStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	res := CheckDirStatus(dir)
	assert.True(t, res.Exists)
	assert.True(t, res.Writable)
	assert.NoError(t, res.Error)
	assert.True(t, FileExists(dir))
}

func TestGetAbsolutePath(t *testing.T) {
	assert.Equal(t, "unknown", GetAbsolutePath(""))
	assert.True(t, filepath.IsAbs(GetAbsolutePath("rel/file")))
}
