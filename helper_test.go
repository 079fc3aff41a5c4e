package sevenz

import (
	"archive/tar"
	"io"
	"os"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// writeRawTar writes a tar stream with a single member, making no attempt to
// sanitise the member name.
func writeRawTar(t *testing.T, dst io.Writer, name, content string) {
	t.Helper()

	tw := tar.NewWriter(dst)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     name,
		Size:     int64(len(content)),
		Mode:     0644,
		Typeflag: tar.TypeReg,
	}))
	_, err := io.WriteString(tw, content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
}

// gzipFile compresses src into dst as a bare gzip stream.
func gzipFile(t *testing.T, src, dst string) {
	t.Helper()

	data, err := os.ReadFile(src)
	require.NoError(t, err)

	f, err := os.Create(dst)
	require.NoError(t, err)

	zw := gzip.NewWriter(f)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}
