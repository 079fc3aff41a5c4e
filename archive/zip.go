package archive

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"strings"

	yzip "github.com/yeka/zip"
)

// Zip implements Backend and Creator for ZIP containers. The standard library
// does the plain work; yeka/zip takes over whenever a password is involved,
// since archive/zip speaks neither ZipCrypto nor AES.
type Zip struct {
}

var (
	_ Backend = Zip{}
	_ Creator = Zip{}
)

func (Zip) List(src *Source) (*Archive, error) {
	if src.Password != "" {
		return listZipEncrypted(src)
	}

	zr, err := zip.NewReader(src.ReaderAt, src.Size)
	if err != nil {
		return nil, fmt.Errorf("open zip archive error: %w", err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, zf := range zr.File {
		encrypted := zf.Flags&0x1 != 0

		e := Entry{
			Path:       zf.Name,
			Size:       int64(zf.UncompressedSize64),
			PackedSize: int64(zf.CompressedSize64),
			CRC32:      zf.CRC32,
			HasCRC:     true,
			Mode:       zf.Mode(),
			Modified:   zf.Modified,
			IsDir:      zf.FileInfo().IsDir(),
			Encrypted:  encrypted,
		}
		if !e.IsDir {
			if encrypted {
				// listing works without a password but content does not.
				e.Open = func() (io.ReadCloser, error) {
					return nil, fmt.Errorf("%w: entry is encrypted", ErrPassword)
				}
			} else {
				e.Open = zf.Open
			}
		}

		entries = append(entries, e)
	}

	return &Archive{Entries: entries}, nil
}

func listZipEncrypted(src *Source) (*Archive, error) {
	zr, err := yzip.NewReader(src.ReaderAt, src.Size)
	if err != nil {
		return nil, fmt.Errorf("open zip archive error: %w", err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, zf := range zr.File {
		zf := zf
		encrypted := zf.IsEncrypted()
		if encrypted {
			zf.SetPassword(src.Password)
		}

		e := Entry{
			Path:       zf.Name,
			Size:       int64(zf.UncompressedSize64),
			PackedSize: int64(zf.CompressedSize64),
			CRC32:      zf.CRC32,
			HasCRC:     true,
			Mode:       zf.Mode(),
			Modified:   zf.ModTime(),
			IsDir:      zf.FileInfo().IsDir(),
			Encrypted:  encrypted,
		}
		if !e.IsDir {
			e.Open = func() (io.ReadCloser, error) {
				rc, err := zf.Open()
				if err != nil {
					if encrypted {
						return nil, fmt.Errorf("%w: %w", ErrPassword, err)
					}
					return nil, err
				}
				if encrypted {
					return &sevenZipReadCloser{rc, encrypted}, nil
				}
				return rc, nil
			}
		}

		entries = append(entries, e)
	}

	return &Archive{Entries: entries}, nil
}

func (Zip) Create(dst io.Writer, cfg WriterConfig) (AddFunc, CloseFunc, error) {
	if cfg.Password != "" {
		return createZipEncrypted(dst, cfg)
	}

	w := zip.NewWriter(dst)

	method := uint16(zip.Deflate)
	if cfg.Level == 0 {
		method = zip.Store
	} else {
		level := flateLevel(cfg.Level)
		w.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, level)
		})
	}

	add := func(e WriteEntry) (io.WriteCloser, error) {
		fh := &zip.FileHeader{
			Name:     e.Path,
			Method:   method,
			Modified: e.Modified,
		}
		if e.IsDir {
			if !strings.HasSuffix(fh.Name, "/") {
				fh.Name += "/"
			}
			fh.Method = zip.Store
		}
		fh.SetMode(e.Mode)

		fw, err := w.CreateHeader(fh)
		if err != nil {
			return nil, fmt.Errorf("create zip entry error: %w", err)
		}

		return &WriteNoopCloser{Writer: fw}, nil
	}

	return add, w.Close, nil
}

func createZipEncrypted(dst io.Writer, cfg WriterConfig) (AddFunc, CloseFunc, error) {
	w := yzip.NewWriter(dst)

	add := func(e WriteEntry) (io.WriteCloser, error) {
		if e.IsDir {
			name := e.Path
			if !strings.HasSuffix(name, "/") {
				name += "/"
			}

			fh := &yzip.FileHeader{Name: name, Method: yzip.Store}
			fh.SetMode(e.Mode)
			if !e.Modified.IsZero() {
				fh.SetModTime(e.Modified)
			}

			fw, err := w.CreateHeader(fh)
			if err != nil {
				return nil, fmt.Errorf("create zip entry error: %w", err)
			}
			return &WriteNoopCloser{Writer: fw}, nil
		}

		// Encrypt builds its own header, so mode and mtime are not kept
		// for encrypted entries. AES-256 regardless of the level knob.
		fw, err := w.Encrypt(e.Path, cfg.Password, yzip.AES256Encryption)
		if err != nil {
			return nil, fmt.Errorf("create encrypted zip entry error: %w", err)
		}

		return &WriteNoopCloser{Writer: fw}, nil
	}

	return add, w.Close, nil
}

// flateLevel maps the engine's level ordinal to a flate level.
func flateLevel(level int32) int {
	switch {
	case level <= 1:
		return flate.BestSpeed
	case level <= 5:
		return flate.DefaultCompression
	default:
		return flate.BestCompression
	}
}
