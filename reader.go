package sevenz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vqhuy/sevenz/archive"
	"github.com/vqhuy/sevenz/util"
)

// OpenOptions customises Open.
type OpenOptions struct {
	// Password decrypts protected archives. It may also be set after
	// opening with Reader.SetPassword, as long as it happens before any
	// extraction call.
	Password string

	// Format overrides detection. The default FormatAuto picks the format
	// from the file name extension, then from the container signature.
	Format Format
}

// WithPassword returns an option setting the password for Open.
func WithPassword(password string) func(*OpenOptions) {
	return func(o *OpenOptions) {
		o.Password = password
	}
}

// WithFormat returns an option pinning the format for Open.
func WithFormat(format Format) func(*OpenOptions) {
	return func(o *OpenOptions) {
		o.Format = format
	}
}

// Reader is an open archive session. It owns the underlying file (when opened
// by path) and must be released with exactly one Close; every operation after
// Close fails with CodeInvalidState.
//
// A Reader is not safe for concurrent use. Distinct Readers are independent
// and may be used from different goroutines.
type Reader struct {
	f       *os.File
	src     archive.Source
	format  Format
	backend archive.Backend
	arc     *archive.Archive
	closed  bool
}

// Open opens the named archive file for reading.
//
// The failure code distinguishes the stages: CodeFileNotFound and
// CodeAccessDenied from the filesystem, CodeUnsupportedFormat when no
// container signature matches, CodeWrongPassword for encrypted archives the
// given password cannot unlock, and CodeCorruptedArchive for everything the
// parser rejects. No Reader is returned alongside an error.
func Open(name string, optFns ...func(*OpenOptions)) (*Reader, error) {
	opts := &OpenOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	if !utf8.ValidString(name) || !utf8.ValidString(opts.Password) {
		return nil, &Error{Code: CodeInvalidArgument, Op: "open", Path: name}
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, opError(classifyPathError(err, CodeFail), "open", name, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, opError(classifyPathError(err, CodeFail), "open", name, err)
	}

	r, err := newReader(f, fi.Size(), name, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.f = f
	return r, nil
}

// OpenFile opens an archive from an already-open file. The file's name is
// used for format detection; ownership stays with the caller, so Close does
// not close f.
func OpenFile(f *os.File, optFns ...func(*OpenOptions)) (*Reader, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, opError(classifyPathError(err, CodeFail), "open", f.Name(), err)
	}

	return OpenReaderAt(f, fi.Size(), f.Name(), optFns...)
}

// OpenReaderAt opens an archive from an arbitrary io.ReaderAt, such as an
// [s3reader.Reader] or a bytes.Reader. name is only a display hint; ra must
// stay valid until Close.
func OpenReaderAt(ra io.ReaderAt, size int64, name string, optFns ...func(*OpenOptions)) (*Reader, error) {
	opts := &OpenOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	if !utf8.ValidString(name) || !utf8.ValidString(opts.Password) {
		return nil, &Error{Code: CodeInvalidArgument, Op: "open", Path: name}
	}

	return newReader(ra, size, name, opts)
}

func newReader(ra io.ReaderAt, size int64, name string, opts *OpenOptions) (*Reader, error) {
	format := opts.Format
	if format == FormatAuto {
		if format = FormatForPath(name); format == FormatAuto {
			format = DetectFormat(ra, size)
		}
	}

	backend, ok := backendFor(format)
	if !ok {
		return nil, &Error{Code: CodeUnsupportedFormat, Op: "open", Path: name}
	}

	// the display hint strips only the outermost extension, so the single
	// member of notes.txt.gz is named notes.txt.
	var stem string
	if name != "" {
		stem = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	r := &Reader{
		src: archive.Source{
			ReaderAt: ra,
			Size:     size,
			Name:     stem,
			Password: opts.Password,
		},
		format:  format,
		backend: backend,
	}

	if err := r.list("open"); err != nil {
		return nil, err
	}

	return r, nil
}

// list (re)parses the container metadata.
func (r *Reader) list(op string) error {
	arc, err := r.backend.List(&r.src)
	if err != nil {
		code := CodeCorruptedArchive
		if errors.Is(err, archive.ErrPassword) {
			code = CodeWrongPassword
		}
		return opError(code, op, r.src.Name, err)
	}

	// containers disagree on whether directories carry a trailing slash; the
	// reported paths never do.
	for i := range arc.Entries {
		arc.Entries[i].Path = strings.TrimSuffix(arc.Entries[i].Path, "/")
	}

	r.arc = arc
	return nil
}

func (r *Reader) stateErr(op string) error {
	if r.closed {
		return &Error{Code: CodeInvalidState, Op: op, Path: r.src.Name}
	}
	return nil
}

// Close releases the session. The first call closes the underlying file;
// subsequent calls are no-ops so a deferred Close after an explicit one is
// always safe.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	f := r.f
	r.f, r.arc = nil, nil
	if f == nil {
		return nil
	}

	if err := f.Close(); err != nil {
		return opError(CodeFail, "close", r.src.Name, err)
	}
	return nil
}

// Format returns the detected container format.
func (r *Reader) Format() Format {
	return r.format
}

// Count returns the number of items in the archive.
func (r *Reader) Count() (int, error) {
	if err := r.stateErr("get item count"); err != nil {
		return 0, err
	}
	return len(r.arc.Entries), nil
}

// Item returns the descriptor of the item at the given zero-based index.
// Enumerating [0, Count()) is stable and side-effect-free for the lifetime of
// the session.
func (r *Reader) Item(index int) (ItemInfo, error) {
	if err := r.stateErr("get item info"); err != nil {
		return ItemInfo{}, err
	}
	if index < 0 || index >= len(r.arc.Entries) {
		return ItemInfo{}, &Error{Code: CodeIndexOutOfRange, Op: "get item info", Path: fmt.Sprintf("index %d of %d", index, len(r.arc.Entries))}
	}

	return r.itemInfo(index), nil
}

// Items returns descriptors for all items in container order.
func (r *Reader) Items() ([]ItemInfo, error) {
	if err := r.stateErr("get item info"); err != nil {
		return nil, err
	}

	infos := make([]ItemInfo, len(r.arc.Entries))
	for i := range r.arc.Entries {
		infos[i] = r.itemInfo(i)
	}
	return infos, nil
}

func (r *Reader) itemInfo(index int) ItemInfo {
	e := &r.arc.Entries[index]
	return ItemInfo{
		Index:       index,
		Path:        filepath.ToSlash(e.Path),
		Size:        e.Size,
		PackedSize:  e.PackedSize,
		CRC:         e.CRC32,
		HasCRC:      e.HasCRC,
		Created:     e.Created,
		Modified:    e.Modified,
		IsDirectory: e.IsDir,
		IsEncrypted: e.Encrypted,
	}
}

// Info returns aggregate metadata for the whole archive.
func (r *Reader) Info() (ArchiveInfo, error) {
	if err := r.stateErr("get archive info"); err != nil {
		return ArchiveInfo{}, err
	}

	info := ArchiveInfo{
		Format:           r.format,
		ItemCount:        len(r.arc.Entries),
		PackedSize:       r.src.Size,
		Solid:            r.arc.Solid,
		EncryptedHeaders: r.arc.EncryptedHeaders,
	}
	for i := range r.arc.Entries {
		info.TotalSize += r.arc.Entries[i].Size
	}
	return info, nil
}

// SetPassword rebinds the session to a new password and re-parses the
// container listing. It must be called before any extraction.
func (r *Reader) SetPassword(password string) error {
	if err := r.stateErr("set password"); err != nil {
		return err
	}
	if !utf8.ValidString(password) {
		return &Error{Code: CodeInvalidArgument, Op: "set password", Path: r.src.Name}
	}

	r.src.Password = password
	return r.list("set password")
}

// ExtractToMemory extracts a single item and returns its content. The
// returned buffer is owned by the caller; it shares no storage with the
// session and stays valid after Close. Directory items yield an empty buffer.
func (r *Reader) ExtractToMemory(index int) ([]byte, error) {
	if err := r.stateErr("extract to memory"); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(r.arc.Entries) {
		return nil, &Error{Code: CodeIndexOutOfRange, Op: "extract to memory", Path: fmt.Sprintf("index %d of %d", index, len(r.arc.Entries))}
	}

	e := &r.arc.Entries[index]
	if e.IsDir {
		return []byte{}, nil
	}

	rc, err := e.Open()
	if err != nil {
		return nil, opError(r.readCode(e, err), "extract to memory", e.Path, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if e.Size > 0 {
		buf.Grow(int(e.Size))
	}
	if _, err = buf.ReadFrom(rc); err != nil {
		return nil, opError(r.readCode(e, err), "extract to memory", e.Path, err)
	}

	return buf.Bytes(), nil
}

// ExtractFile extracts a single item to the named destination file, creating
// parent directories as needed.
func (r *Reader) ExtractFile(ctx context.Context, index int, destPath string) error {
	if err := r.stateErr("extract item"); err != nil {
		return err
	}
	if index < 0 || index >= len(r.arc.Entries) {
		return &Error{Code: CodeIndexOutOfRange, Op: "extract item", Path: fmt.Sprintf("index %d of %d", index, len(r.arc.Entries))}
	}

	e := &r.arc.Entries[index]
	if e.IsDir {
		if err := os.MkdirAll(destPath, 0755); err != nil {
			return opError(classifyPathError(err, CodeWriteError), "extract item", destPath, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return opError(classifyPathError(err, CodeWriteError), "extract item", destPath, err)
	}

	return r.extractEntry(ctx, e, destPath, nil)
}

// ExtractAll extracts every item under destDir, recreating the archive's
// relative directory structure. progress may be nil; when given, it is
// invoked with monotonically non-decreasing byte counts and may cancel the
// operation, which then fails with CodeCancelled before the next item starts.
func (r *Reader) ExtractAll(ctx context.Context, destDir string, progress ProgressFunc) error {
	if err := r.stateErr("extract all"); err != nil {
		return err
	}

	var total int64
	for i := range r.arc.Entries {
		if !r.arc.Entries[i].IsDir {
			total += r.arc.Entries[i].Size
		}
	}

	tracker := newProgressTracker(progress, total)
	if !tracker.advance(0) {
		return &Error{Code: CodeCancelled, Op: "extract all", Path: r.src.Name}
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return opError(classifyPathError(err, CodeWriteError), "extract all", destDir, err)
	}

	for i := range r.arc.Entries {
		if err := ctx.Err(); err != nil {
			return opError(CodeCancelled, "extract all", r.src.Name, err)
		}

		e := &r.arc.Entries[i]

		dest, err := secureJoin(destDir, e.Path)
		if err != nil {
			return opError(CodeInvalidArgument, "extract all", e.Path, err)
		}

		if e.IsDir {
			if err = os.MkdirAll(dest, dirPerm(e.Mode)); err != nil {
				return opError(classifyPathError(err, CodeWriteError), "extract all", dest, err)
			}
			continue
		}

		if err = os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return opError(classifyPathError(err, CodeWriteError), "extract all", dest, err)
		}

		if err = r.extractEntry(ctx, e, dest, nil); err != nil {
			return err
		}

		// item-granularity checkpoint: cancellation never splits an item.
		if !tracker.advance(e.Size) {
			return &Error{Code: CodeCancelled, Op: "extract all", Path: r.src.Name}
		}
	}

	return nil
}

// extractEntry streams one entry to destPath.
func (r *Reader) extractEntry(ctx context.Context, e *archive.Entry, destPath string, buf []byte) error {
	rc, err := e.Open()
	if err != nil {
		return opError(r.readCode(e, err), "extract item", e.Path, err)
	}
	defer rc.Close()

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm(e.Mode))
	if err != nil {
		return opError(classifyPathError(err, CodeWriteError), "extract item", destPath, err)
	}

	_, err = util.CopyBufferWithContext(ctx, dst, rc, buf)
	if err2 := dst.Close(); err == nil {
		err = err2
	}
	if err != nil {
		_ = os.Remove(destPath)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return opError(CodeCancelled, "extract item", e.Path, err)
		case errors.Is(err, archive.ErrPassword):
			return opError(CodeWrongPassword, "extract item", e.Path, err)
		default:
			return opError(classifyPathError(err, r.readCode(e, err)), "extract item", e.Path, err)
		}
	}

	if !e.Modified.IsZero() {
		_ = os.Chtimes(destPath, e.Modified, e.Modified)
	}
	return nil
}

// Test walks every item and verifies the content decodes and matches the
// recorded CRC where the container stores one.
func (r *Reader) Test(ctx context.Context) error {
	if err := r.stateErr("test archive"); err != nil {
		return err
	}

	buf := make([]byte, 32*1024)
	for i := range r.arc.Entries {
		if err := ctx.Err(); err != nil {
			return opError(CodeCancelled, "test archive", r.src.Name, err)
		}

		e := &r.arc.Entries[i]
		if e.IsDir {
			continue
		}

		rc, err := e.Open()
		if err != nil {
			return opError(r.readCode(e, err), "test archive", e.Path, err)
		}

		h := crc32.NewIEEE()
		_, err = util.CopyBufferWithContext(ctx, h, rc, buf)
		if err2 := rc.Close(); err == nil {
			err = err2
		}
		if err != nil {
			return opError(r.readCode(e, err), "test archive", e.Path, err)
		}

		if e.HasCRC && h.Sum32() != e.CRC32 {
			return &Error{Code: CodeCorruptedArchive, Op: "test archive", Path: e.Path,
				Err: fmt.Errorf("crc mismatch: computed %08x, recorded %08x", h.Sum32(), e.CRC32)}
		}
	}

	return nil
}

// readCode classifies a failure while decoding entry content: password
// problems are distinguishable from corruption so callers can prompt for a
// different password instead of giving up on the archive.
func (r *Reader) readCode(e *archive.Entry, err error) Code {
	switch {
	case errors.Is(err, archive.ErrPassword):
		return CodeWrongPassword
	case e.Encrypted:
		return CodeWrongPassword
	default:
		return CodeCorruptedArchive
	}
}

// secureJoin joins an archive member path under dir, rejecting absolute
// members and traversal outside dir.
func secureJoin(dir, member string) (string, error) {
	member = filepath.FromSlash(member)
	if filepath.IsAbs(member) || !filepath.IsLocal(member) {
		return "", fmt.Errorf("archive member path escapes destination: %q", member)
	}

	return filepath.Join(dir, member), nil
}

func dirPerm(mode os.FileMode) os.FileMode {
	if p := mode.Perm(); p != 0 {
		return p | 0700
	}
	return 0755
}

func filePerm(mode os.FileMode) os.FileMode {
	if p := mode.Perm(); p != 0 {
		return p
	}
	return 0644
}
