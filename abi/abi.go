// Package abi pins the numeric contract shared with the native 7-Zip engine:
// result codes, format tags, compression levels, and the serialized layouts of
// the item and archive descriptor records.
//
// The values here mirror the engine's C interface verbatim and must never be
// renumbered; everything user-facing in the parent package is defined in terms
// of these constants so there is exactly one place where the numbering lives.
package abi

// Result codes. 0 through 16 are the engine's own numbering; 17 and up are
// extensions reported only by this layer, never by the engine.
const (
	Ok                int32 = 0
	Fail              int32 = 1
	OutOfMemory       int32 = 2
	FileNotFound      int32 = 3
	AccessDenied      int32 = 4
	InvalidArgument   int32 = 5
	UnsupportedFormat int32 = 6
	CorruptedArchive  int32 = 7
	WrongPassword     int32 = 8
	Cancelled         int32 = 9
	IndexOutOfRange   int32 = 10
	AlreadyOpen       int32 = 11
	NotOpen           int32 = 12
	WriteError        int32 = 13
	ReadError         int32 = 14
	NotImplemented    int32 = 15
	DiskFull          int32 = 16

	InvalidState   int32 = 17
	BufferTooSmall int32 = 18
	Busy           int32 = 19
)

// Format tags. 0 through 6 match the engine; RAR (read-only) and Zstd are
// extensions appended after the engine's range.
const (
	FormatAuto     int32 = 0
	FormatSevenZip int32 = 1
	FormatZip      int32 = 2
	FormatTar      int32 = 3
	FormatGzip     int32 = 4
	FormatBzip2    int32 = 5
	FormatXz       int32 = 6
	FormatRar      int32 = 7
	FormatZstd     int32 = 8
)

// Compression levels. The gaps are intentional: the engine accepts the raw
// ordinal and these are the five it documents.
const (
	LevelNone    int32 = 0
	LevelFast    int32 = 1
	LevelNormal  int32 = 5
	LevelMaximum int32 = 7
	LevelUltra   int32 = 9
)
