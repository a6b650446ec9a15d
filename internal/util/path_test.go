package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDirectory(t *testing.T) {
	tempDir := t.TempDir()
	tempFile := filepath.Join(tempDir, "lattice.ctb")
	require.NoError(t, os.WriteFile(tempFile, []byte("x"), 0644))

	exists, isDir, err := CheckDirectory(tempDir)
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, isDir)

	exists, isDir, err = CheckDirectory(tempFile)
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.False(t, isDir)

	exists, _, err = CheckDirectory(filepath.Join(tempDir, "missing"))
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestRemotePathNavigation(t *testing.T) {
	path := ""
	path = JoinDir(path, "figures")
	assert.Equal(t, "figures/", path)

	path = JoinDir(path, "dragons")
	assert.Equal(t, "figures/dragons/", path)

	path = ParentDir(path)
	assert.Equal(t, "figures/", path)

	path = ParentDir(path)
	assert.Equal(t, "", path)

	assert.Equal(t, "", ParentDir(""), "the root has no parent")
}

func TestNormalizeDir(t *testing.T) {
	tests := map[string]string{
		"":          "",
		".":         "",
		"/":         "",
		"figures":   "figures/",
		"/figures/": "figures/",
		"a/b":       "a/b/",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDir(in), "NormalizeDir(%q)", in)
	}
}

func TestHasExtension(t *testing.T) {
	exts := []string{".ctb", ".cbddlp"}
	assert.True(t, HasExtension("monster.ctb", exts))
	assert.True(t, HasExtension("MONSTER.CTB", exts))
	assert.True(t, HasExtension("dir/part.cbddlp", exts))
	assert.False(t, HasExtension("notes.txt", exts))
	assert.False(t, HasExtension("ctb", exts))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("._lattice.ctb"))
	assert.False(t, IsHidden("lattice.ctb"))
}
