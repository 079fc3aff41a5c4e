package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/vqhuy/sevenz/codec"
)

// Tar implements Backend and Creator for tar containers, optionally behind a
// stream codec (tar.gz, tar.bz2, tar.xz, tar.zst).
//
// A compressed source whose payload is not a tar stream is treated the way
// the native engine treats a bare .gz file: a container with exactly one
// member, named after the source file's stem.
type Tar struct {
	// Codec if given encodes/decodes the container stream.
	codec.Codec
}

var (
	_ Backend = &Tar{}
	_ Creator = &Tar{}
)

// tar magic at offset 257 of the first header block.
var tarMagic = []byte("ustar")

func (t *Tar) List(src *Source) (*Archive, error) {
	r, err := t.newDecoder(src)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read stream error: %w", err)
	}
	head = head[:n]

	if n < 512 || !bytes.Equal(head[257:262], tarMagic) {
		return t.listSingleMember(src)
	}

	// entries are listed by a full scan; content readers re-scan from the
	// start, which is what makes a compressed tar a solid archive.
	tr := tar.NewReader(io.MultiReader(bytes.NewReader(head), r))
	var entries []Entry
	for i := 0; ; i++ {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar header error: %w", err)
		}

		fi := hdr.FileInfo()
		e := Entry{
			Path:     strings.TrimSuffix(hdr.Name, "/"),
			Size:     hdr.Size,
			Mode:     fi.Mode(),
			Modified: hdr.ModTime,
			IsDir:    fi.IsDir(),
		}
		if !e.IsDir {
			index := i
			e.Open = func() (io.ReadCloser, error) {
				return t.openMember(src, index)
			}
		}

		entries = append(entries, e)
	}

	return &Archive{Entries: entries, Solid: t.Codec != nil}, nil
}

// listSingleMember wraps a non-tar compressed stream as a one-item archive.
func (t *Tar) listSingleMember(src *Source) (*Archive, error) {
	if t.Codec == nil {
		return nil, fmt.Errorf("not a tar stream")
	}

	name := src.Name
	if name == "" {
		name = "data"
	}

	// size is unknown without decompressing the whole stream; the gzip
	// trailer is unreliable past 4 GiB so it is not consulted either.
	e := Entry{
		Path: name,
		Mode: 0644,
		Open: func() (io.ReadCloser, error) {
			return t.newDecoder(src)
		},
	}

	return &Archive{Entries: []Entry{e}, Solid: true}, nil
}

// openMember returns a reader positioned at the content of member index,
// scanning a fresh decoder up to it.
func (t *Tar) openMember(src *Source, index int) (io.ReadCloser, error) {
	r, err := t.newDecoder(src)
	if err != nil {
		return nil, err
	}

	tr := tar.NewReader(r)
	for i := 0; ; i++ {
		if _, err = tr.Next(); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("seek to tar member %d error: %w", index, err)
		}
		if i == index {
			break
		}
	}

	return &memberReadCloser{Reader: tr, closer: r}, nil
}

// newDecoder opens the container stream from the start, decoding through the
// codec when one is configured.
func (t *Tar) newDecoder(src *Source) (io.ReadCloser, error) {
	r := io.NewSectionReader(src.ReaderAt, 0, src.Size)
	if t.Codec == nil {
		return io.NopCloser(r), nil
	}

	dec, err := t.Codec.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("create decoder error: %w", err)
	}
	return dec, nil
}

type memberReadCloser struct {
	io.Reader
	closer io.Closer
}

func (m *memberReadCloser) Close() error {
	return m.closer.Close()
}

func (t *Tar) Create(dst io.Writer, cfg WriterConfig) (AddFunc, CloseFunc, error) {
	enc := io.WriteCloser(&WriteNoopCloser{Writer: dst})
	if t.Codec != nil {
		var err error
		if enc, err = t.Codec.NewEncoder(dst, cfg.Level); err != nil {
			return nil, nil, fmt.Errorf("create encoder error: %w", err)
		}
	}

	w := tar.NewWriter(enc)

	add := func(e WriteEntry) (io.WriteCloser, error) {
		hdr := &tar.Header{
			Name:    e.Path,
			Size:    e.Size,
			Mode:    int64(e.Mode.Perm()),
			ModTime: e.Modified,
		}
		if hdr.ModTime.IsZero() {
			hdr.ModTime = time.Now()
		}
		if e.IsDir {
			hdr.Typeflag = tar.TypeDir
			hdr.Name = path.Clean(hdr.Name) + "/"
			hdr.Size = 0
			if e.Mode == 0 {
				hdr.Mode = 0755
			}
		} else {
			hdr.Typeflag = tar.TypeReg
			if e.Mode == 0 {
				hdr.Mode = 0644
			}
		}

		if err := w.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("write tar header error: %w", err)
		}

		return &WriteNoopCloser{Writer: w}, nil
	}

	closer := func() (err error) {
		err = w.Close()
		if err2 := enc.Close(); err == nil {
			err = err2
		}
		return
	}

	return add, closer, nil
}
