package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMkExclDir(t *testing.T) {
	parent := t.TempDir()

	name, err := MkExclDir(parent, "my-dir", 0755)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "my-dir"), name)

	// colliding names get numeric suffixes.
	name, err = MkExclDir(parent, "my-dir", 0755)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "my-dir-1"), name)

	name, err = MkExclDir(parent, "my-dir", 0755)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "my-dir-2"), name)
}
