// Package codec has stream codecs for the compressed container formats. Each
// codec pairs a decoder with an encoder that accepts the engine's level
// ordinal and maps it onto whatever the underlying library understands.
package codec

import (
	"io"
)

// Codec creates compressors and decompressors for one algorithm.
type Codec interface {
	// NewDecoder creates a decoder reading compressed content from src.
	NewDecoder(src io.Reader) (io.ReadCloser, error)
	// NewEncoder creates an encoder writing compressed content to dst.
	// level is the engine ordinal (0, 1, 5, 7, 9).
	NewEncoder(dst io.Writer, level int32) (io.WriteCloser, error)
}
