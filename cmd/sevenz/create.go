package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/vqhuy/sevenz"
)

type CreateCommand struct {
	Format       string `short:"f" long:"format" description:"archive format (zip, tar, gzip, bzip2, xz, zstd); detected from the output name when omitted" default:"auto"`
	Level        string `short:"l" long:"level" description:"compression level (none, fast, normal, maximum, ultra)" default:"normal"`
	NonRecursive bool   `long:"non-recursive" description:"only add the direct children of directory inputs"`
	Args         struct {
		Output flags.Filename   `positional-arg-name:"output" description:"the archive to be created" required:"yes"`
		Files  []flags.Filename `positional-arg-name:"file" description:"the files and directories to be added" required:"yes"`
	} `positional-args:"yes"`
}

func (c *CreateCommand) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	format, err := sevenz.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	if format == sevenz.FormatAuto {
		if format = sevenz.FormatForPath(string(c.Args.Output)); format == sevenz.FormatAuto {
			return fmt.Errorf(`cannot detect the format of "%s"; specify one with --format`, c.Args.Output)
		}
	}

	level, err := sevenz.ParseLevel(c.Level)
	if err != nil {
		return err
	}

	inputs := make([]string, len(c.Args.Files))
	for i, f := range c.Args.Files {
		inputs[i] = string(f)
	}

	var bar interface{ Set64(int64) error }
	recursive := !c.NonRecursive

	err = sevenz.CreateArchive(ctx, string(c.Args.Output), inputs, format, func(o *sevenz.CreateOptions) {
		o.Password = opts.Password
		o.Level = level
		o.Recursive = &recursive
		o.Progress = func(completed, total int64) bool {
			if bar == nil {
				bar = defaultBytes(total, fmt.Sprintf(`compressing %s`, humanize.Bytes(uint64(total))))
			}
			_ = bar.Set64(completed)
			return ctx.Err() == nil
		}
	})
	if err != nil {
		return err
	}

	fi, err := os.Stat(string(c.Args.Output))
	if err != nil {
		return err
	}

	log.Printf(`successfully created "%s" (%s, %s)`, c.Args.Output, format, humanize.Bytes(uint64(fi.Size())))
	return nil
}
