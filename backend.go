package sevenz

import (
	"github.com/vqhuy/sevenz/archive"
	"github.com/vqhuy/sevenz/codec"
)

// backendFor maps a format onto its reading backend. The single-stream codec
// formats all share the tar backend, which degrades to a one-member listing
// when the decompressed stream is not a tar.
func backendFor(f Format) (archive.Backend, bool) {
	switch f {
	case FormatSevenZip:
		return archive.SevenZip{}, true
	case FormatZip:
		return archive.Zip{}, true
	case FormatTar:
		return &archive.Tar{}, true
	case FormatGzip:
		return &archive.Tar{Codec: codec.GzipCodec{}}, true
	case FormatBzip2:
		return &archive.Tar{Codec: codec.Bzip2Codec{}}, true
	case FormatXz:
		return &archive.Tar{Codec: codec.XzCodec{}}, true
	case FormatZstd:
		return &archive.Tar{Codec: codec.ZstdCodec{}}, true
	case FormatRar:
		return archive.Rar{}, true
	default:
		return nil, false
	}
}

// creatorFor maps a format onto its writing backend, covering exactly the
// formats Format.CanWrite admits.
func creatorFor(f Format) (archive.Creator, bool) {
	switch f {
	case FormatZip:
		return archive.Zip{}, true
	case FormatTar:
		return &archive.Tar{}, true
	case FormatGzip:
		return &archive.Tar{Codec: codec.GzipCodec{}}, true
	case FormatBzip2:
		return &archive.Tar{Codec: codec.Bzip2Codec{}}, true
	case FormatXz:
		return &archive.Tar{Codec: codec.XzCodec{}}, true
	case FormatZstd:
		return &archive.Tar{Codec: codec.ZstdCodec{}}, true
	default:
		return nil, false
	}
}
