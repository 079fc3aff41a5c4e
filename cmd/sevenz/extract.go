package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/vqhuy/sevenz/util"
	"golang.org/x/time/rate"
)

type ExtractCommand struct {
	OutputDir flags.Filename `short:"o" long:"output-dir" description:"parent directory for the extraction directories" default:"."`
	Args      struct {
		Files []flags.Filename `positional-arg-name:"file" description:"the archives to be extracted (local paths or s3:// URIs)" required:"yes"`
	} `positional-args:"yes"`
}

type extractFailure struct {
	File string
	Err  error
}

func (c *ExtractCommand) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	n := len(c.Args.Files)
	failures := make([]extractFailure, 0)

	for i, file := range c.Args.Files {
		output, err := c.extract(ctx, string(file))
		if err != nil {
			log.Printf(`%d/%d: extract "%s" error: %v`, i+1, n, file, err)
			failures = append(failures, extractFailure{File: string(file), Err: err})
			continue
		}

		log.Printf(`%d/%d: successfully extracted "%s" to "%s"`, i+1, n, file, output)
	}

	if len(failures) != 0 {
		return fmt.Errorf("%d/%d archives failed to extract", len(failures), n)
	}

	return nil
}

// extract extracts one archive into a fresh directory named after its stem
// and returns that directory.
func (c *ExtractCommand) extract(ctx context.Context, name string) (string, error) {
	r, err := openArchive(ctx, name)
	if err != nil {
		return "", err
	}
	defer r.Close()

	info, err := r.Info()
	if err != nil {
		return "", err
	}

	stem, _ := util.StemAndExt(name)
	output, err := util.MkExclDir(string(c.OutputDir), stem, 0755)
	if err != nil {
		return "", err
	}

	bar := defaultBytes(info.TotalSize, fmt.Sprintf(`extracting %d items (%s)`, info.ItemCount, humanize.Bytes(uint64(info.TotalSize))))
	sometimes := rate.Sometimes{Interval: 5 * time.Second}

	err = r.ExtractAll(ctx, output, func(completed, total int64) bool {
		_ = bar.Set64(completed)
		sometimes.Do(func() {
			log.Printf(`extracted %s/%s of "%s" so far`, humanize.Bytes(uint64(completed)), humanize.Bytes(uint64(total)), name)
		})
		return ctx.Err() == nil
	})
	_ = bar.Close()
	if err != nil {
		_ = os.RemoveAll(output)
		return "", err
	}

	return output, nil
}
