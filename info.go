package sevenz

import (
	"time"
	"unicode/utf8"

	"github.com/vqhuy/sevenz/abi"
)

// ItemInfo describes one entry of an opened archive. The Index is stable for
// the lifetime of the Reader session, zero-based and contiguous.
type ItemInfo struct {
	Index int
	// Path is the entry's relative path inside the archive, UTF-8 with
	// forward slashes. The string is owned by the caller; it stays valid
	// after the Reader is closed.
	Path string
	Size int64
	// PackedSize is 0 when the container cannot attribute on-disk bytes to
	// the entry (directories, solid 7z blocks).
	PackedSize int64
	// CRC is meaningful only when HasCRC is true; absence is a distinct
	// state, not zero.
	CRC    uint32
	HasCRC bool
	// Created and Modified are round-tripped from the container verbatim;
	// a zero time means the container did not record one.
	Created     time.Time
	Modified    time.Time
	IsDirectory bool
	IsEncrypted bool
}

func (it ItemInfo) flags() uint32 {
	var f uint32
	if it.HasCRC {
		f |= abi.ItemFlagHasCRC
	}
	if it.IsDirectory {
		f |= abi.ItemFlagDirectory
	}
	if it.IsEncrypted {
		f |= abi.ItemFlagEncrypted
	}
	return f
}

// MarshalBinary serializes the item descriptor in the engine's record layout.
func (it ItemInfo) MarshalBinary() ([]byte, error) {
	if !utf8.ValidString(it.Path) {
		return nil, &Error{Code: CodeInvalidArgument, Op: "marshal item", Path: it.Path}
	}

	return abi.AppendItem(nil, abi.ItemRecord{
		Index:      uint64(it.Index),
		Size:       uint64(it.Size),
		PackedSize: uint64(it.PackedSize),
		CRC:        it.CRC,
		Flags:      it.flags(),
		Created:    unixOrZero(it.Created),
		Modified:   unixOrZero(it.Modified),
		Path:       []byte(it.Path),
	}), nil
}

// UnmarshalBinary decodes an item descriptor record.
func (it *ItemInfo) UnmarshalBinary(b []byte) error {
	rec, _, err := abi.ParseItem(b)
	if err != nil {
		return &Error{Code: CodeBufferTooSmall, Op: "unmarshal item", Err: err}
	}

	*it = ItemInfo{
		Index:       int(rec.Index),
		Path:        string(rec.Path),
		Size:        int64(rec.Size),
		PackedSize:  int64(rec.PackedSize),
		CRC:         rec.CRC,
		HasCRC:      rec.Flags&abi.ItemFlagHasCRC != 0,
		Created:     timeOrZero(rec.Created),
		Modified:    timeOrZero(rec.Modified),
		IsDirectory: rec.Flags&abi.ItemFlagDirectory != 0,
		IsEncrypted: rec.Flags&abi.ItemFlagEncrypted != 0,
	}
	return nil
}

// ArchiveInfo aggregates metadata over a whole archive.
type ArchiveInfo struct {
	Format    Format
	ItemCount int
	// TotalSize is the sum of the uncompressed entry sizes; PackedSize is
	// the container's size on disk.
	TotalSize  int64
	PackedSize int64
	// Solid is true when entries share one compressed block, which makes
	// random-access extraction pay for the whole prefix. Readers that
	// cannot know (7z metadata does not expose it) report false.
	Solid            bool
	MultiVolume      bool
	EncryptedHeaders bool
}

// CompressionRatio is packed size over total size, 0 for an empty archive.
func (ai ArchiveInfo) CompressionRatio() float64 {
	if ai.TotalSize == 0 {
		return 0
	}
	return float64(ai.PackedSize) / float64(ai.TotalSize)
}

func (ai ArchiveInfo) flags() uint32 {
	var f uint32
	if ai.Solid {
		f |= abi.ArchiveFlagSolid
	}
	if ai.MultiVolume {
		f |= abi.ArchiveFlagMultiVolume
	}
	if ai.EncryptedHeaders {
		f |= abi.ArchiveFlagEncryptedHeaders
	}
	return f
}

// MarshalBinary serializes the archive descriptor in the engine's layout.
func (ai ArchiveInfo) MarshalBinary() ([]byte, error) {
	return abi.AppendArchive(nil, abi.ArchiveRecord{
		Format:     uint32(ai.Format),
		ItemCount:  uint64(ai.ItemCount),
		TotalSize:  uint64(ai.TotalSize),
		PackedSize: uint64(ai.PackedSize),
		Flags:      ai.flags(),
	}), nil
}

// UnmarshalBinary decodes an archive descriptor record.
func (ai *ArchiveInfo) UnmarshalBinary(b []byte) error {
	rec, err := abi.ParseArchive(b)
	if err != nil {
		return &Error{Code: CodeBufferTooSmall, Op: "unmarshal archive", Err: err}
	}

	*ai = ArchiveInfo{
		Format:           Format(rec.Format),
		ItemCount:        int(rec.ItemCount),
		TotalSize:        int64(rec.TotalSize),
		PackedSize:       int64(rec.PackedSize),
		Solid:            rec.Flags&abi.ArchiveFlagSolid != 0,
		MultiVolume:      rec.Flags&abi.ArchiveFlagMultiVolume != 0,
		EncryptedHeaders: rec.Flags&abi.ArchiveFlagEncryptedHeaders != 0,
	}
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
