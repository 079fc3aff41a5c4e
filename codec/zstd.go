package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdCodec implements Codec for the zstd algorithm.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

func (ZstdCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, err
	}

	return dec.IOReadCloser(), nil
}

func (ZstdCodec) NewEncoder(dst io.Writer, level int32) (io.WriteCloser, error) {
	lvl := zstd.SpeedBestCompression
	switch {
	case level <= 1:
		lvl = zstd.SpeedFastest
	case level <= 5:
		lvl = zstd.SpeedDefault
	case level <= 7:
		lvl = zstd.SpeedBetterCompression
	}

	return zstd.NewWriter(dst, zstd.WithEncoderLevel(lvl))
}
