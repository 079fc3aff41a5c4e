package sevenz

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_EncryptedZipRoundTrip(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "secret.zip")

	w, err := NewWriter(out, FormatZip)
	require.NoError(t, err)
	require.NoError(t, w.SetPassword("hunter2"))
	require.NoError(t, w.AddMemory([]byte("the secret payload"), "secret.txt"))
	require.NoError(t, w.Finalize(ctx))

	// listing works without a password; content does not.
	r, err := Open(out)
	require.NoError(t, err)

	item, err := r.Item(0)
	require.NoError(t, err)
	assert.Equal(t, "secret.txt", item.Path)
	assert.True(t, item.IsEncrypted)

	_, err = r.ExtractToMemory(0)
	assert.Equal(t, CodeWrongPassword, CodeOf(err))
	require.NoError(t, r.Close())

	// with the right password the content comes back.
	r, err = Open(out, WithPassword("hunter2"))
	require.NoError(t, err)
	defer r.Close()

	data, err := r.ExtractToMemory(0)
	assert.NoError(t, err)
	assert.Equal(t, "the secret payload", string(data))
}

func TestPassword_WrongPassword(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "secret.zip")

	w, err := NewWriter(out, FormatZip)
	require.NoError(t, err)
	require.NoError(t, w.SetPassword("hunter2"))
	require.NoError(t, w.AddMemory([]byte("the secret payload"), "secret.txt"))
	require.NoError(t, w.Finalize(ctx))

	r, err := Open(out, WithPassword("wrong"))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ExtractToMemory(0)
	assert.Equal(t, CodeWrongPassword, CodeOf(err))
}

func TestPassword_SetPasswordRebindsSession(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "secret.zip")

	w, err := NewWriter(out, FormatZip)
	require.NoError(t, err)
	require.NoError(t, w.SetPassword("hunter2"))
	require.NoError(t, w.AddMemory([]byte("the secret payload"), "secret.txt"))
	require.NoError(t, w.Finalize(ctx))

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ExtractToMemory(0)
	require.Equal(t, CodeWrongPassword, CodeOf(err))

	require.NoError(t, r.SetPassword("hunter2"))

	data, err := r.ExtractToMemory(0)
	assert.NoError(t, err)
	assert.Equal(t, "the secret payload", string(data))
}

// testdata/zipcrypto.zip was produced by Info-ZIP with legacy ZipCrypto
// encryption (password s3cr3t) and holds hello.txt and notes.txt.
func TestPassword_ZipCryptoFixture(t *testing.T) {
	r, err := Open(filepath.Join("testdata", "zipcrypto.zip"), WithPassword("s3cr3t"))
	require.NoError(t, err)
	defer r.Close()

	items, err := r.Items()
	require.NoError(t, err)

	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = item.Path
		assert.True(t, item.IsEncrypted)
	}
	slices.Sort(paths)
	assert.Equal(t, []string{"hello.txt", "notes.txt"}, paths)

	for _, item := range items {
		if item.Path == "hello.txt" {
			data, err := r.ExtractToMemory(item.Index)
			assert.NoError(t, err)
			assert.Equal(t, "hello, world\n", string(data))
		}
	}
}
