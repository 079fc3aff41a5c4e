package codec

import (
	"io"

	"github.com/dsnet/compress/bzip2"
)

// Bzip2Codec implements Codec for the bzip2 algorithm.
type Bzip2Codec struct{}

var _ Codec = Bzip2Codec{}

func (Bzip2Codec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(src, nil)
}

func (Bzip2Codec) NewEncoder(dst io.Writer, level int32) (io.WriteCloser, error) {
	// bzip2 has no store mode; level 0 degrades to the fastest setting.
	cfg := &bzip2.WriterConfig{Level: bzip2.BestCompression}
	switch {
	case level <= 1:
		cfg.Level = bzip2.BestSpeed
	case level <= 5:
		cfg.Level = bzip2.DefaultCompression
	}

	return bzip2.NewWriter(dst, cfg)
}
