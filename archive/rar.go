package archive

import (
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"
)

// Rar implements Backend for RAR containers, read-only.
type Rar struct {
}

var _ Backend = Rar{}

func (Rar) List(src *Source) (*Archive, error) {
	var opts []rardecode.Option
	if src.Password != "" {
		opts = append(opts, rardecode.Password(src.Password))
	}

	rr, err := newRarReader(src, opts)
	if err != nil {
		return nil, fmt.Errorf("open rar archive error: %w", err)
	}

	var (
		entries []Entry
		solid   bool
	)
	for i := 0; ; i++ {
		fh, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rar header error: %w", err)
		}

		if fh.Solid {
			solid = true
		}

		e := Entry{
			Path:       fh.Name,
			Size:       fh.UnPackedSize,
			PackedSize: fh.PackedSize,
			Mode:       fh.Mode(),
			Modified:   fh.ModificationTime,
			Created:    fh.CreationTime,
			IsDir:      fh.IsDir,
		}
		if !e.IsDir {
			index := i
			e.Open = func() (io.ReadCloser, error) {
				return openRarMember(src, opts, index)
			}
		}

		entries = append(entries, e)
	}

	return &Archive{Entries: entries, Solid: solid}, nil
}

// openRarMember scans a fresh reader up to member index, the same rewind
// trick the tar backend uses; rardecode has no random access either.
func openRarMember(src *Source, opts []rardecode.Option, index int) (io.ReadCloser, error) {
	rr, err := newRarReader(src, opts)
	if err != nil {
		return nil, err
	}

	for i := 0; ; i++ {
		if _, err = rr.Next(); err != nil {
			return nil, fmt.Errorf("seek to rar member %d error: %w", index, err)
		}
		if i == index {
			break
		}
	}

	return io.NopCloser(rr), nil
}

func newRarReader(src *Source, opts []rardecode.Option) (*rardecode.Reader, error) {
	return rardecode.NewReader(io.NewSectionReader(src.ReaderAt, 0, src.Size), opts...)
}
