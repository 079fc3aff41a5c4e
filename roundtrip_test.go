package sevenz

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeSourceDir builds this tree and returns its root:
//
//	my-dir/a.txt
//	my-dir/b.txt
//	my-dir/sub/c.txt
func makeSourceDir(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "my-dir")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("content of a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("content of b, a bit longer"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("c"), 0644))
	return dir
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		format Format
		ext    string
	}{
		{FormatZip, ".zip"},
		{FormatTar, ".tar"},
		{FormatGzip, ".tar.gz"},
		{FormatBzip2, ".tar.bz2"},
		{FormatXz, ".tar.xz"},
		{FormatZstd, ".tar.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			src := makeSourceDir(t)
			out := filepath.Join(t.TempDir(), "out"+tt.ext)

			w, err := NewWriter(out, tt.format)
			require.NoErrorf(t, err, "NewWriter(%q, %v) error = %v", out, tt.format, err)

			require.NoError(t, w.AddDirectory(src, true))
			require.NoError(t, w.AddMemory([]byte("from memory"), "extra/mem.txt"))

			n, err := w.PendingCount()
			assert.NoError(t, err)
			assert.Equalf(t, 5, n, "PendingCount() = %d; want 5", n)

			require.NoErrorf(t, w.Finalize(ctx), "Finalize() error")

			// the format must be recoverable from the extension alone.
			assert.Equal(t, tt.format, FormatForPath(out))

			r, err := Open(out)
			require.NoErrorf(t, err, "Open(%q) error = %v", out, err)
			defer r.Close()

			assert.Equal(t, tt.format, r.Format())

			items, err := r.Items()
			require.NoError(t, err)

			var files, dirs []string
			byPath := map[string]ItemInfo{}
			for _, item := range items {
				byPath[item.Path] = item
				if item.IsDirectory {
					dirs = append(dirs, item.Path)
				} else {
					files = append(files, item.Path)
				}
			}

			slices.Sort(files)
			assert.Equal(t, []string{"extra/mem.txt", "my-dir/a.txt", "my-dir/b.txt", "my-dir/sub/c.txt"}, files)
			assert.Contains(t, dirs, "my-dir/sub")

			assert.Equal(t, int64(12), byPath["my-dir/a.txt"].Size)

			// single-item extraction.
			idx := slices.IndexFunc(items, func(it ItemInfo) bool { return it.Path == "my-dir/b.txt" })
			require.NotEqual(t, -1, idx)
			data, err := r.ExtractToMemory(idx)
			assert.NoError(t, err)
			assert.Equal(t, []byte("content of b, a bit longer"), data)

			// full extraction reproduces the tree.
			dest := t.TempDir()
			require.NoError(t, r.ExtractAll(ctx, dest, nil))
			for path, content := range map[string]string{
				"my-dir/a.txt":     "content of a",
				"my-dir/b.txt":     "content of b, a bit longer",
				"my-dir/sub/c.txt": "c",
				"extra/mem.txt":    "from memory",
			} {
				b, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(path)))
				assert.NoErrorf(t, err, "read extracted %q error = %v", path, err)
				assert.Equal(t, content, string(b))
			}

			// integrity check over the same session.
			assert.NoError(t, r.Test(ctx))
		})
	}
}

func TestRoundTrip_ArchiveInfo(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "out.zip")

	w, err := NewWriter(out, FormatZip)
	require.NoError(t, err)
	require.NoError(t, w.AddMemory([]byte("0123456789"), "ten.bin"))
	require.NoError(t, w.AddMemory(nil, "empty.bin"))
	require.NoError(t, w.Finalize(ctx))

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	info, err := r.Info()
	require.NoError(t, err)
	assert.Equal(t, FormatZip, info.Format)
	assert.Equal(t, 2, info.ItemCount)
	assert.Equal(t, int64(10), info.TotalSize)
	assert.Greater(t, info.PackedSize, int64(0))
	assert.Greater(t, info.CompressionRatio(), 0.0)
}

func TestRoundTrip_BareStream(t *testing.T) {
	// a bare gzip stream, not a tar.gz, reads back as a one-item archive
	// named after the stem.
	name := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(name, []byte("some notes"), 0644))

	out := filepath.Join(t.TempDir(), "notes.txt.gz")
	gzipFile(t, name, out)

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.Count()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	item, err := r.Item(0)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", item.Path)
	assert.False(t, item.IsDirectory)

	data, err := r.ExtractToMemory(0)
	assert.NoError(t, err)
	assert.Equal(t, []byte("some notes"), data)

	info, err := r.Info()
	require.NoError(t, err)
	assert.True(t, info.Solid)
}

func TestAddDirectory_DeterministicItemCount(t *testing.T) {
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file1.txt"), []byte("contents of file1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file2.txt"), []byte("contents of file2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subdir", "file3.txt"), []byte("file3 lives in subdir\n\n"), 0644))

	out := filepath.Join(t.TempDir(), "out.zip")
	w, err := NewWriter(out, FormatZip)
	require.NoError(t, err)
	require.NoError(t, w.AddDirectory(dir, true))
	require.NoError(t, w.Finalize(ctx))

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	// three files plus the subdir entry, rooted at the input's base name.
	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	items, err := r.Items()
	require.NoError(t, err)
	for _, item := range items {
		if item.IsDirectory {
			assert.Equal(t, "input/subdir", item.Path)
			continue
		}

		data, err := r.ExtractToMemory(item.Index)
		require.NoError(t, err)
		assert.Equalf(t, item.Size, int64(len(data)), "%q size mismatch", item.Path)
	}
}

func TestConvenience_CreateThenExtract(t *testing.T) {
	ctx := context.Background()
	src := makeSourceDir(t)
	out := filepath.Join(t.TempDir(), "archive.tar.gz")

	err := CreateArchive(ctx, out, []string{src}, FormatGzip)
	require.NoErrorf(t, err, "CreateArchive(...) error = %v", err)

	dest := t.TempDir()
	require.NoError(t, ExtractArchive(ctx, out, dest))

	b, err := os.ReadFile(filepath.Join(dest, "my-dir", "sub", "c.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "c", string(b))
}

func TestConvenience_CreateFailureRemovesOutput(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "archive.zip")

	err := CreateArchive(ctx, out, []string{filepath.Join(t.TempDir(), "no-such-input")}, FormatZip)
	assert.Equal(t, CodeFileNotFound, CodeOf(err))

	_, err = os.Stat(out)
	assert.Truef(t, os.IsNotExist(err), "partial output %q should have been removed", out)
}
