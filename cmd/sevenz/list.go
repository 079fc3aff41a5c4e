package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
)

type ListCommand struct {
	Long bool `short:"l" long:"long" description:"also show per-item sizes and modification times"`
	Args struct {
		Files []flags.Filename `positional-arg-name:"file" description:"the archives to be listed (local paths or s3:// URIs)" required:"yes"`
	} `positional-args:"yes"`
}

func (c *ListCommand) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	for _, file := range c.Args.Files {
		if err := c.list(ctx, string(file)); err != nil {
			return err
		}
	}

	return nil
}

func (c *ListCommand) list(ctx context.Context, name string) error {
	r, err := openArchive(ctx, name)
	if err != nil {
		return err
	}
	defer r.Close()

	info, err := r.Info()
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s, %d items, %s (%s packed, ratio %.2f)\n",
		name, info.Format, info.ItemCount,
		humanize.Bytes(uint64(info.TotalSize)), humanize.Bytes(uint64(info.PackedSize)),
		info.CompressionRatio())

	items, err := r.Items()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	for _, item := range items {
		path := item.Path
		if item.IsDirectory {
			path += "/"
		}

		if !c.Long {
			fmt.Fprintf(w, "  %s\n", path)
			continue
		}

		modified := "-"
		if !item.Modified.IsZero() {
			modified = item.Modified.Format("2006-01-02 15:04:05")
		}

		encrypted := " "
		if item.IsEncrypted {
			encrypted = "*"
		}

		fmt.Fprintf(w, "  %s\t%s\t%s%s\n", humanize.Bytes(uint64(item.Size)), modified, encrypted, path)
	}

	return w.Flush()
}
