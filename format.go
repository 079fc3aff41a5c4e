package sevenz

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vqhuy/sevenz/abi"
	"github.com/vqhuy/sevenz/util"
)

// Format tags an archive container format. The ordinals match the engine's
// numbering (see package abi) and pass through the boundary unmodified.
type Format int32

const (
	// FormatAuto asks Open to detect the format; not valid for writing.
	FormatAuto     Format = Format(abi.FormatAuto)
	FormatSevenZip Format = Format(abi.FormatSevenZip)
	FormatZip      Format = Format(abi.FormatZip)
	FormatTar      Format = Format(abi.FormatTar)
	// FormatGzip, FormatBzip2, and FormatXz are single-stream codecs; as
	// multi-item containers they hold a tar stream (tar.gz and friends). A
	// compressed stream that is not a tar reads back as a one-item archive,
	// which is also what the native engine reports for a bare .gz file.
	FormatGzip  Format = Format(abi.FormatGzip)
	FormatBzip2 Format = Format(abi.FormatBzip2)
	FormatXz    Format = Format(abi.FormatXz)
	// FormatRar is a read-only extension.
	FormatRar Format = Format(abi.FormatRar)
	// FormatZstd (tar.zst) is an extension past the engine's numbering.
	FormatZstd Format = Format(abi.FormatZstd)
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatSevenZip:
		return "7z"
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatGzip:
		return "gzip"
	case FormatBzip2:
		return "bzip2"
	case FormatXz:
		return "xz"
	case FormatRar:
		return "rar"
	case FormatZstd:
		return "zstd"
	default:
		return fmt.Sprintf("format(%d)", int32(f))
	}
}

// CanRead reports whether archives of this format can be opened.
func (f Format) CanRead() bool {
	switch f {
	case FormatSevenZip, FormatZip, FormatTar, FormatGzip, FormatBzip2, FormatXz, FormatRar, FormatZstd:
		return true
	default:
		return false
	}
}

// CanWrite reports whether archives of this format can be created. 7z and rar
// have no pure Go encoder.
func (f Format) CanWrite() bool {
	switch f {
	case FormatZip, FormatTar, FormatGzip, FormatBzip2, FormatXz, FormatZstd:
		return true
	default:
		return false
	}
}

// ParseFormat resolves a format name as accepted by the CLI and config
// surfaces. Returns an InvalidArgument error for unknown names.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "auto", "":
		return FormatAuto, nil
	case "7z", "7zip", "sevenzip":
		return FormatSevenZip, nil
	case "zip":
		return FormatZip, nil
	case "tar":
		return FormatTar, nil
	case "gzip", "gz", "tgz":
		return FormatGzip, nil
	case "bzip2", "bz2", "tbz2":
		return FormatBzip2, nil
	case "xz", "txz":
		return FormatXz, nil
	case "rar":
		return FormatRar, nil
	case "zstd", "zst", "tzst":
		return FormatZstd, nil
	default:
		return FormatAuto, &Error{Code: CodeInvalidArgument, Op: "parse format", Path: name}
	}
}

// FormatForPath guesses the format from the file name extension. FormatAuto
// is returned when the extension is not recognised.
func FormatForPath(path string) Format {
	_, ext := util.StemAndExt(path)
	switch strings.ToLower(ext) {
	case ".7z":
		return FormatSevenZip
	case ".zip":
		return FormatZip
	case ".tar":
		return FormatTar
	case ".gz", ".tar.gz", ".tgz":
		return FormatGzip
	case ".bz2", ".tar.bz2", ".tbz2":
		return FormatBzip2
	case ".xz", ".tar.xz", ".txz":
		return FormatXz
	case ".rar":
		return FormatRar
	case ".zst", ".tar.zst", ".tzst":
		return FormatZstd
	default:
		return FormatAuto
	}
}

var (
	magicSevenZip = []byte{0x37, 0x7a, 0xbc, 0xaf, 0x27, 0x1c}
	magicGzip     = []byte{0x1f, 0x8b}
	magicBzip2    = []byte("BZh")
	magicXz       = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
	magicRar      = []byte("Rar!\x1a\x07")
	magicZstd     = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicZip      = []byte("PK")
	magicTar      = []byte("ustar") // at offset 257
)

// DetectFormat sniffs the container signature at the start of src. Returns
// FormatAuto when nothing matches.
func DetectFormat(src io.ReaderAt, size int64) Format {
	var buf [263]byte
	n, err := src.ReadAt(buf[:], 0)
	if err != nil && err != io.EOF {
		return FormatAuto
	}
	head := buf[:n]

	switch {
	case bytes.HasPrefix(head, magicSevenZip):
		return FormatSevenZip
	case bytes.HasPrefix(head, magicRar):
		return FormatRar
	case bytes.HasPrefix(head, magicXz):
		return FormatXz
	case bytes.HasPrefix(head, magicGzip):
		return FormatGzip
	case bytes.HasPrefix(head, magicBzip2):
		return FormatBzip2
	case bytes.HasPrefix(head, magicZstd):
		return FormatZstd
	case bytes.HasPrefix(head, magicZip):
		return FormatZip
	case len(head) >= 262 && bytes.Equal(head[257:262], magicTar):
		return FormatTar
	default:
		return FormatAuto
	}
}
