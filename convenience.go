package sevenz

import (
	"context"
	"os"
)

// ExtractOptions customises ExtractArchive.
type ExtractOptions struct {
	Password string
	Format   Format
	Progress ProgressFunc
}

// ExtractArchive opens the named archive, extracts every item under
// outputDir, and closes the session. It is the one-shot form of
// Open + Reader.ExtractAll.
func ExtractArchive(ctx context.Context, archivePath, outputDir string, optFns ...func(*ExtractOptions)) error {
	opts := &ExtractOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	r, err := Open(archivePath, func(o *OpenOptions) {
		o.Password = opts.Password
		o.Format = opts.Format
	})
	if err != nil {
		return err
	}
	defer r.Close()

	return r.ExtractAll(ctx, outputDir, opts.Progress)
}

// CreateOptions customises CreateArchive.
type CreateOptions struct {
	Password string
	Level    Level
	Progress ProgressFunc
	// Recursive controls whether directory inputs descend into
	// subdirectories. Default true.
	Recursive *bool
}

// CreateArchive builds an archive at outputPath from the given input paths,
// dispatching each input to AddFile or AddDirectory by what it is on disk.
// Any failure cancels the writer, removing the partial output, before the
// error propagates.
func CreateArchive(ctx context.Context, outputPath string, inputs []string, format Format, optFns ...func(*CreateOptions)) error {
	opts := &CreateOptions{Level: LevelNormal}
	for _, fn := range optFns {
		fn(opts)
	}

	recursive := true
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}

	w, err := NewWriter(outputPath, format)
	if err != nil {
		return err
	}

	if err = func() error {
		if err := w.SetLevel(opts.Level); err != nil {
			return err
		}
		if opts.Password != "" {
			if err := w.SetPassword(opts.Password); err != nil {
				return err
			}
		}
		if err := w.SetProgress(opts.Progress); err != nil {
			return err
		}

		for _, in := range inputs {
			fi, err := os.Stat(in)
			if err != nil {
				return opError(classifyPathError(err, CodeFail), "create archive", in, err)
			}

			if fi.IsDir() {
				err = w.AddDirectory(in, recursive)
			} else {
				err = w.AddFile(in, "")
			}
			if err != nil {
				return err
			}
		}
		return nil
	}(); err != nil {
		_ = w.Cancel()
		return err
	}

	return w.Finalize(ctx)
}
