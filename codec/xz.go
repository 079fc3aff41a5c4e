package codec

import (
	"io"

	"github.com/ulikunitz/xz"
)

// XzCodec implements Codec for the xz algorithm.
type XzCodec struct{}

var _ Codec = XzCodec{}

func (XzCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	r, err := xz.NewReader(src)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(r), nil
}

// NewEncoder ignores the level: ulikunitz/xz exposes no preset dial, so every
// level ordinal produces the default LZMA2 configuration.
func (XzCodec) NewEncoder(dst io.Writer, _ int32) (io.WriteCloser, error) {
	return xz.NewWriter(dst)
}
