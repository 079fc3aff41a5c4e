// Package archive adapts one concrete container library per format to a
// common backend contract: List parses a container's metadata into entries
// with lazy per-entry readers, Create returns an add/close function pair that
// streams entries into a new container.
//
// Backends are not safe for concurrent use of a single Source or writer pair.
package archive

import (
	"errors"
	"io"
	"io/fs"
	"time"
)

// ErrPassword marks failures that are password problems rather than
// corruption, so callers can prompt instead of giving up on the archive.
var ErrPassword = errors.New("archive: wrong or missing password")

// Source is an opened container. ReaderAt must stay valid for as long as the
// listing and any entry readers obtained from it are in use.
type Source struct {
	ReaderAt io.ReaderAt
	Size     int64
	// Name is a display hint, used to name the single member of a bare
	// compressed stream. May be empty.
	Name     string
	Password string
}

// Entry is one member of a listed container, in container order.
type Entry struct {
	// Path is slash-separated and relative; it is reported exactly as the
	// container stores it.
	Path       string
	Size       int64
	PackedSize int64
	CRC32      uint32
	HasCRC     bool
	Mode       fs.FileMode
	Modified   time.Time
	Created    time.Time
	IsDir      bool
	Encrypted  bool
	// Open returns the entry's content. Directory entries have no content;
	// their Open is nil. Each call yields an independent reader.
	Open func() (io.ReadCloser, error)
}

// Archive is the result of listing a container.
type Archive struct {
	Entries []Entry
	// Solid is true when random access to one entry pays for decompressing
	// the entries before it (compressed tar streams behave this way).
	Solid            bool
	EncryptedHeaders bool
}

// Backend lists containers of one format.
type Backend interface {
	List(src *Source) (*Archive, error)
}

// WriteEntry is the metadata for one entry being added to a container. Size
// must equal the number of bytes subsequently written for the entry; tar
// needs it in the header, ahead of the content.
type WriteEntry struct {
	Path     string
	Size     int64
	Mode     fs.FileMode
	Modified time.Time
	IsDir    bool
}

// WriterConfig carries the writer-wide knobs down into a backend. Level is
// the engine ordinal (0, 1, 5, 7, 9); backends map it onto whatever their
// library accepts and ignore knobs the container cannot express.
type WriterConfig struct {
	Level            int32
	Password         string
	Solid            bool
	EncryptedHeaders bool
}

// AddFunc creates the next entry and returns the writer for its content.
// Adding an entry implicitly completes the previous one. The returned writer
// must be closed before the next add.
type AddFunc func(e WriteEntry) (io.WriteCloser, error)

// CloseFunc completes the container. It must be called exactly once, after
// the last entry's writer has been closed.
type CloseFunc func() error

// Creator builds containers of one format.
type Creator interface {
	Create(dst io.Writer, cfg WriterConfig) (AddFunc, CloseFunc, error)
}

// WriteNoopCloser adapts a plain io.Writer to the io.WriteCloser an AddFunc
// returns when the underlying library has no per-entry close.
type WriteNoopCloser struct {
	io.Writer
}

func (w *WriteNoopCloser) Close() error {
	return nil
}
