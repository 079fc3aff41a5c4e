package codec

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipCodec implements Codec for the gzip algorithm.
type GzipCodec struct{}

var _ Codec = GzipCodec{}

func (GzipCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}

func (GzipCodec) NewEncoder(dst io.Writer, level int32) (io.WriteCloser, error) {
	switch {
	case level == 0:
		return gzip.NewWriterLevel(dst, gzip.NoCompression)
	case level <= 1:
		return gzip.NewWriterLevel(dst, gzip.BestSpeed)
	case level <= 5:
		return gzip.NewWriterLevel(dst, 6)
	default:
		return gzip.NewWriterLevel(dst, gzip.BestCompression)
	}
}
