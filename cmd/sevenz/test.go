package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/jessevdk/go-flags"
)

type TestCommand struct {
	Args struct {
		Files []flags.Filename `positional-arg-name:"file" description:"the archives to be verified (local paths or s3:// URIs)" required:"yes"`
	} `positional-args:"yes"`
}

func (c *TestCommand) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	n := len(c.Args.Files)
	failed := 0

	for i, file := range c.Args.Files {
		if err := c.test(ctx, string(file)); err != nil {
			log.Printf(`%d/%d: "%s" failed verification: %v`, i+1, n, file, err)
			failed++
			continue
		}

		log.Printf(`%d/%d: "%s" OK`, i+1, n, file)
	}

	if failed != 0 {
		return fmt.Errorf("%d/%d archives failed verification", failed, n)
	}

	return nil
}

func (c *TestCommand) test(ctx context.Context, name string) error {
	r, err := openArchive(ctx, name)
	if err != nil {
		return err
	}
	defer r.Close()

	return r.Test(ctx)
}
