package sevenz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vqhuy/sevenz/archive"
	"github.com/vqhuy/sevenz/util"
)

// Writer builds a new archive. Items added with AddFile, AddDirectory, and
// AddMemory are queued as metadata only; the container is written in one pass
// by Finalize, so the compression knobs and password may be adjusted at any
// point up to that call.
//
// The destination file is created (or truncated) by NewWriter. Finalize and
// Cancel both end the session; Cancel, or a failed Finalize, removes the
// partial output. A Writer is not safe for concurrent use.
type Writer struct {
	dst     io.Writer
	f       *os.File
	path    string
	format  Format
	creator archive.Creator
	state   writerState
	pending []pendingEntry

	level            Level
	password         string
	solid            bool
	encryptedHeaders bool
	progress         ProgressFunc
}

type writerState int

const (
	writerAdding writerState = iota
	writerFinalized
	writerCancelled
)

// pendingEntry is a queued item: file-backed when srcPath is set, otherwise
// an in-memory buffer or a bare directory.
type pendingEntry struct {
	archivePath string
	srcPath     string
	data        []byte
	size        int64
	mode        fs.FileMode
	modified    time.Time
	isDir       bool
}

// NewWriter creates the named archive file for writing. format must be a
// concrete writable format: FormatAuto is rejected with CodeInvalidArgument,
// and formats without an encoder (7z, rar) with CodeNotImplemented.
func NewWriter(name string, format Format) (*Writer, error) {
	if name == "" || !utf8.ValidString(name) {
		return nil, &Error{Code: CodeInvalidArgument, Op: "create", Path: name}
	}

	creator, err := writableCreator(format, name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, opError(classifyPathError(err, CodeFail), "create", name, err)
	}

	return &Writer{
		dst:     f,
		f:       f,
		path:    name,
		format:  format,
		creator: creator,
		level:   LevelNormal,
	}, nil
}

// NewWriterTo builds the archive into dst instead of a file on disk; pair it
// with a bytes.Buffer to keep the finished container in memory. Finalize
// writes the container to dst but never closes it, and Cancel leaves whatever
// was already written; the caller owns dst either way.
func NewWriterTo(dst io.Writer, format Format) (*Writer, error) {
	if dst == nil {
		return nil, &Error{Code: CodeInvalidArgument, Op: "create",
			Err: errors.New("nil destination writer")}
	}

	creator, err := writableCreator(format, "")
	if err != nil {
		return nil, err
	}

	return &Writer{
		dst:     dst,
		format:  format,
		creator: creator,
		level:   LevelNormal,
	}, nil
}

func writableCreator(format Format, name string) (archive.Creator, error) {
	creator, ok := creatorFor(format)
	if ok {
		return creator, nil
	}

	code := CodeUnsupportedFormat
	switch format {
	case FormatAuto:
		code = CodeInvalidArgument
	case FormatSevenZip, FormatRar:
		code = CodeNotImplemented
	}
	return nil, &Error{Code: code, Op: "create", Path: name,
		Err: fmt.Errorf("cannot write %v archives", format)}
}

// Format returns the container format being written.
func (w *Writer) Format() Format {
	return w.format
}

func (w *Writer) stateErr(op string) error {
	if w.state != writerAdding {
		return &Error{Code: CodeInvalidState, Op: op, Path: w.path}
	}
	return nil
}

// SetLevel selects the compression level for Finalize. The default is
// LevelNormal.
func (w *Writer) SetLevel(level Level) error {
	if err := w.stateErr("set level"); err != nil {
		return err
	}
	if !level.valid() {
		return &Error{Code: CodeInvalidArgument, Op: "set level", Path: w.path,
			Err: fmt.Errorf("unknown level %d", int32(level))}
	}

	w.level = level
	return nil
}

// SetPassword arms encryption for Finalize. The empty string disarms it.
// Only zip containers can be encrypted; other formats fail at Finalize with
// CodeNotImplemented rather than silently writing plaintext.
func (w *Writer) SetPassword(password string) error {
	if err := w.stateErr("set password"); err != nil {
		return err
	}
	if !utf8.ValidString(password) {
		return &Error{Code: CodeInvalidArgument, Op: "set password", Path: w.path}
	}

	w.password = password
	return nil
}

// SetSolid requests solid compression. Containers that cannot express it
// ignore the flag.
func (w *Writer) SetSolid(solid bool) error {
	if err := w.stateErr("set solid"); err != nil {
		return err
	}
	w.solid = solid
	return nil
}

// SetEncryptedHeaders requests header encryption alongside content
// encryption. Containers that cannot express it ignore the flag.
func (w *Writer) SetEncryptedHeaders(encrypted bool) error {
	if err := w.stateErr("set encrypted headers"); err != nil {
		return err
	}
	w.encryptedHeaders = encrypted
	return nil
}

// SetProgress installs a progress callback for Finalize. It may be nil.
func (w *Writer) SetProgress(fn ProgressFunc) error {
	if err := w.stateErr("set progress"); err != nil {
		return err
	}
	w.progress = fn
	return nil
}

// PendingCount returns the number of items queued so far.
func (w *Writer) PendingCount() (int, error) {
	if err := w.stateErr("get pending count"); err != nil {
		return 0, err
	}
	return len(w.pending), nil
}

// AddFile queues a file from disk. archivePath names the item inside the
// archive; the empty string uses the source's base name. The source is read
// at Finalize, not now, so it must remain readable until then.
func (w *Writer) AddFile(srcPath, archivePath string) error {
	if err := w.stateErr("add file"); err != nil {
		return err
	}

	fi, err := os.Stat(srcPath)
	if err != nil {
		return opError(classifyPathError(err, CodeFail), "add file", srcPath, err)
	}
	if fi.IsDir() {
		return &Error{Code: CodeInvalidArgument, Op: "add file", Path: srcPath,
			Err: errors.New("source is a directory")}
	}

	if archivePath == "" {
		archivePath = filepath.Base(srcPath)
	}
	archivePath, err = normalizeArchivePath(archivePath)
	if err != nil {
		return opError(CodeInvalidArgument, "add file", archivePath, err)
	}

	w.pending = append(w.pending, pendingEntry{
		archivePath: archivePath,
		srcPath:     srcPath,
		size:        fi.Size(),
		mode:        fi.Mode(),
		modified:    fi.ModTime(),
	})
	return nil
}

// AddMemory queues an in-memory item. data is copied, so the caller's buffer
// may be reused immediately.
func (w *Writer) AddMemory(data []byte, archivePath string) error {
	if err := w.stateErr("add memory"); err != nil {
		return err
	}

	archivePath, err := normalizeArchivePath(archivePath)
	if err != nil {
		return opError(CodeInvalidArgument, "add memory", archivePath, err)
	}

	w.pending = append(w.pending, pendingEntry{
		archivePath: archivePath,
		data:        append([]byte(nil), data...),
		size:        int64(len(data)),
		mode:        0644,
		modified:    time.Now(),
	})
	return nil
}

// AddDirectory queues a directory tree. The tree is rooted at the source's
// base name inside the archive: adding /tmp/photos queues photos/a.jpg and so
// on, not the source itself as a bare entry. With recursive false only the
// direct children are queued.
func (w *Writer) AddDirectory(srcDir string, recursive bool) error {
	if err := w.stateErr("add directory"); err != nil {
		return err
	}

	fi, err := os.Stat(srcDir)
	if err != nil {
		return opError(classifyPathError(err, CodeFail), "add directory", srcDir, err)
	}
	if !fi.IsDir() {
		return &Error{Code: CodeInvalidArgument, Op: "add directory", Path: srcDir,
			Err: errors.New("source is not a directory")}
	}

	base := filepath.Base(filepath.Clean(srcDir))
	if _, err = normalizeArchivePath(base); err != nil {
		return opError(CodeInvalidArgument, "add directory", srcDir, err)
	}

	if !recursive {
		return w.addDirectChildren(srcDir, base)
	}

	err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == srcDir {
			return nil
		}

		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		w.pending = append(w.pending, pendingEntry{
			archivePath: base + "/" + filepath.ToSlash(rel),
			srcPath:     p,
			size:        fileSize(info),
			mode:        info.Mode(),
			modified:    info.ModTime(),
			isDir:       d.IsDir(),
		})
		return nil
	})
	if err != nil {
		return opError(classifyPathError(err, CodeReadError), "add directory", srcDir, err)
	}
	return nil
}

func (w *Writer) addDirectChildren(srcDir, base string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return opError(classifyPathError(err, CodeReadError), "add directory", srcDir, err)
	}

	for _, d := range entries {
		info, err := d.Info()
		if err != nil {
			return opError(classifyPathError(err, CodeReadError), "add directory", srcDir, err)
		}

		w.pending = append(w.pending, pendingEntry{
			archivePath: base + "/" + d.Name(),
			srcPath:     filepath.Join(srcDir, d.Name()),
			size:        fileSize(info),
			mode:        info.Mode(),
			modified:    info.ModTime(),
			isDir:       d.IsDir(),
		})
	}
	return nil
}

// Finalize writes the container in one pass over the queued items and closes
// the destination file. On any failure, including cancellation from the
// context or the progress callback, the partial output file is removed and
// the session ends; Finalize cannot be retried.
func (w *Writer) Finalize(ctx context.Context) error {
	if err := w.stateErr("finalize"); err != nil {
		return err
	}

	if w.password != "" && w.format != FormatZip {
		return w.abort(&Error{Code: CodeNotImplemented, Op: "finalize", Path: w.path,
			Err: fmt.Errorf("%v archives cannot be encrypted", w.format)})
	}

	add, closeArchive, err := w.creator.Create(w.dst, archive.WriterConfig{
		Level:            int32(w.level),
		Password:         w.password,
		Solid:            w.solid,
		EncryptedHeaders: w.encryptedHeaders,
	})
	if err != nil {
		return w.abort(opError(CodeFail, "finalize", w.path, err))
	}

	var total int64
	for i := range w.pending {
		total += w.pending[i].size
	}

	tracker := newProgressTracker(w.progress, total)
	if !tracker.advance(0) {
		return w.abort(&Error{Code: CodeCancelled, Op: "finalize", Path: w.path})
	}

	buf := make([]byte, 32*1024)
	for i := range w.pending {
		if err = ctx.Err(); err != nil {
			return w.abort(opError(CodeCancelled, "finalize", w.path, err))
		}

		e := &w.pending[i]
		if err = w.writeEntry(ctx, add, e, buf); err != nil {
			return w.abort(err)
		}

		if !tracker.advance(e.size) {
			return w.abort(&Error{Code: CodeCancelled, Op: "finalize", Path: w.path})
		}
	}

	if err = closeArchive(); err != nil {
		return w.abort(opError(classifyPathError(err, CodeWriteError), "finalize", w.path, err))
	}
	if w.f != nil {
		if err = w.f.Sync(); err != nil {
			return w.abort(opError(classifyPathError(err, CodeWriteError), "finalize", w.path, err))
		}
		if err = w.f.Close(); err != nil {
			w.f = nil
			return w.abort(opError(classifyPathError(err, CodeWriteError), "finalize", w.path, err))
		}
	}

	w.f = nil
	w.pending = nil
	w.state = writerFinalized
	return nil
}

func (w *Writer) writeEntry(ctx context.Context, add archive.AddFunc, e *pendingEntry, buf []byte) error {
	dst, err := add(archive.WriteEntry{
		Path:     e.archivePath,
		Size:     e.size,
		Mode:     e.mode,
		Modified: e.modified,
		IsDir:    e.isDir,
	})
	if err != nil {
		return opError(classifyPathError(err, CodeWriteError), "finalize", e.archivePath, err)
	}

	switch {
	case e.isDir:
		// metadata only
	case e.srcPath != "":
		src, err := os.Open(e.srcPath)
		if err != nil {
			_ = dst.Close()
			return opError(classifyPathError(err, CodeReadError), "finalize", e.srcPath, err)
		}

		_, err = util.CopyBufferWithContext(ctx, dst, src, buf)
		_ = src.Close()
		if err != nil {
			_ = dst.Close()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return opError(CodeCancelled, "finalize", e.srcPath, err)
			}
			return opError(classifyPathError(err, CodeWriteError), "finalize", e.srcPath, err)
		}
	default:
		if _, err = dst.Write(e.data); err != nil {
			_ = dst.Close()
			return opError(classifyPathError(err, CodeWriteError), "finalize", e.archivePath, err)
		}
	}

	if err = dst.Close(); err != nil {
		return opError(classifyPathError(err, CodeWriteError), "finalize", e.archivePath, err)
	}
	return nil
}

// abort tears the session down after a Finalize failure.
func (w *Writer) abort(err error) error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	if w.path != "" {
		_ = os.Remove(w.path)
	}
	w.pending = nil
	w.state = writerCancelled
	return err
}

// Cancel discards the session and removes the destination file. Cancelling a
// writer that already finalized or cancelled is a no-op.
func (w *Writer) Cancel() error {
	if w.state != writerAdding {
		return nil
	}

	_ = w.abort(nil)
	return nil
}

// normalizeArchivePath validates and canonicalises an item path: forward
// slashes, relative, confined (no "..", no drive or root prefix), valid
// UTF-8.
func normalizeArchivePath(p string) (string, error) {
	if p == "" || !utf8.ValidString(p) {
		return "", fmt.Errorf("invalid archive path %q", p)
	}

	p = strings.TrimSuffix(filepath.ToSlash(p), "/")
	if p == "" || strings.HasPrefix(p, "/") || !filepath.IsLocal(filepath.FromSlash(p)) {
		return "", fmt.Errorf("archive path %q is not relative and confined", p)
	}

	return p, nil
}

func fileSize(fi fs.FileInfo) int64 {
	if fi.IsDir() {
		return 0
	}
	return fi.Size()
}
