package abi

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// The descriptor records are serialized little-endian with the engine's field
// order and natural alignment. Variable-length data (the item path) follows
// the fixed part as a u32 length at ItemOffPathLen plus that many raw bytes;
// the engine's char* slot becomes that trailing run. Offsets are declared once
// here and shared by the encode and decode paths below; record_test.go checks
// every one of them against a hand-computed table.

// Item record layout.
const (
	ItemOffIndex      = 0  // u64
	ItemOffSize       = 8  // u64, uncompressed
	ItemOffPackedSize = 16 // u64, 0 when the container cannot attribute it
	ItemOffCRC        = 24 // u32
	ItemOffFlags      = 28 // u32
	ItemOffCreated    = 32 // i64, Unix seconds, round-tripped verbatim
	ItemOffModified   = 40 // i64, Unix seconds, round-tripped verbatim
	ItemOffPathLen    = 48 // u32
	ItemFixedSize     = 52
)

// Item flag bits, replacing the engine's three int fields.
const (
	ItemFlagHasCRC    = 1 << 0
	ItemFlagDirectory = 1 << 1
	ItemFlagEncrypted = 1 << 2
)

// Archive record layout.
const (
	ArchiveOffFormat     = 0  // u32
	ArchiveOffItemCount  = 8  // u64
	ArchiveOffTotalSize  = 16 // u64
	ArchiveOffPackedSize = 24 // u64
	ArchiveOffFlags      = 32 // u32
	ArchiveFixedSize     = 40 // includes 4 reserved bytes at 36
)

// Archive flag bits.
const (
	ArchiveFlagSolid            = 1 << 0
	ArchiveFlagMultiVolume      = 1 << 1
	ArchiveFlagEncryptedHeaders = 1 << 2
)

// ErrShortRecord reports a buffer too small to hold the record it claims.
var ErrShortRecord = errors.New("abi: short record")

// ItemRecord is the wire form of one archive entry descriptor.
type ItemRecord struct {
	Index      uint64
	Size       uint64
	PackedSize uint64
	CRC        uint32
	Flags      uint32
	Created    int64
	Modified   int64
	Path       []byte
}

// AppendItem serializes rec onto dst and returns the extended slice.
func AppendItem(dst []byte, rec ItemRecord) []byte {
	var fixed [ItemFixedSize]byte
	binary.LittleEndian.PutUint64(fixed[ItemOffIndex:], rec.Index)
	binary.LittleEndian.PutUint64(fixed[ItemOffSize:], rec.Size)
	binary.LittleEndian.PutUint64(fixed[ItemOffPackedSize:], rec.PackedSize)
	binary.LittleEndian.PutUint32(fixed[ItemOffCRC:], rec.CRC)
	binary.LittleEndian.PutUint32(fixed[ItemOffFlags:], rec.Flags)
	binary.LittleEndian.PutUint64(fixed[ItemOffCreated:], uint64(rec.Created))
	binary.LittleEndian.PutUint64(fixed[ItemOffModified:], uint64(rec.Modified))
	binary.LittleEndian.PutUint32(fixed[ItemOffPathLen:], uint32(len(rec.Path)))

	dst = append(dst, fixed[:]...)
	return append(dst, rec.Path...)
}

// ParseItem decodes one item record from b, returning the record and the
// number of bytes consumed.
func ParseItem(b []byte) (ItemRecord, int, error) {
	if len(b) < ItemFixedSize {
		return ItemRecord{}, 0, fmt.Errorf("%w: %d < %d", ErrShortRecord, len(b), ItemFixedSize)
	}

	rec := ItemRecord{
		Index:      binary.LittleEndian.Uint64(b[ItemOffIndex:]),
		Size:       binary.LittleEndian.Uint64(b[ItemOffSize:]),
		PackedSize: binary.LittleEndian.Uint64(b[ItemOffPackedSize:]),
		CRC:        binary.LittleEndian.Uint32(b[ItemOffCRC:]),
		Flags:      binary.LittleEndian.Uint32(b[ItemOffFlags:]),
		Created:    int64(binary.LittleEndian.Uint64(b[ItemOffCreated:])),
		Modified:   int64(binary.LittleEndian.Uint64(b[ItemOffModified:])),
	}

	n := ItemFixedSize + int(binary.LittleEndian.Uint32(b[ItemOffPathLen:]))
	if len(b) < n {
		return ItemRecord{}, 0, fmt.Errorf("%w: path needs %d bytes, have %d", ErrShortRecord, n, len(b))
	}

	rec.Path = append([]byte(nil), b[ItemFixedSize:n]...)
	return rec, n, nil
}

// ArchiveRecord is the wire form of the whole-archive descriptor.
type ArchiveRecord struct {
	Format     uint32
	ItemCount  uint64
	TotalSize  uint64
	PackedSize uint64
	Flags      uint32
}

// AppendArchive serializes rec onto dst and returns the extended slice.
func AppendArchive(dst []byte, rec ArchiveRecord) []byte {
	var fixed [ArchiveFixedSize]byte
	binary.LittleEndian.PutUint32(fixed[ArchiveOffFormat:], rec.Format)
	binary.LittleEndian.PutUint64(fixed[ArchiveOffItemCount:], rec.ItemCount)
	binary.LittleEndian.PutUint64(fixed[ArchiveOffTotalSize:], rec.TotalSize)
	binary.LittleEndian.PutUint64(fixed[ArchiveOffPackedSize:], rec.PackedSize)
	binary.LittleEndian.PutUint32(fixed[ArchiveOffFlags:], rec.Flags)
	return append(dst, fixed[:]...)
}

// ParseArchive decodes the archive descriptor at the start of b.
func ParseArchive(b []byte) (ArchiveRecord, error) {
	if len(b) < ArchiveFixedSize {
		return ArchiveRecord{}, fmt.Errorf("%w: %d < %d", ErrShortRecord, len(b), ArchiveFixedSize)
	}

	return ArchiveRecord{
		Format:     binary.LittleEndian.Uint32(b[ArchiveOffFormat:]),
		ItemCount:  binary.LittleEndian.Uint64(b[ArchiveOffItemCount:]),
		TotalSize:  binary.LittleEndian.Uint64(b[ArchiveOffTotalSize:]),
		PackedSize: binary.LittleEndian.Uint64(b[ArchiveOffPackedSize:]),
		Flags:      binary.LittleEndian.Uint32(b[ArchiveOffFlags:]),
	}, nil
}
