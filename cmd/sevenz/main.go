package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

var opts struct {
	Password string `short:"p" long:"password" description:"password for encrypted archives" default-mask:"-"`

	List    ListCommand    `command:"list" alias:"ls" description:"list the items of archives"`
	Extract ExtractCommand `command:"extract" alias:"x" description:"extract archives into directories named after them"`
	Create  CreateCommand  `command:"create" alias:"c" description:"create an archive from files and directories"`
	Test    TestCommand    `command:"test" alias:"t" description:"verify archive integrity against the recorded checksums"`
}

func main() {
	p := flags.NewParser(&opts, flags.Default)

	if _, err := p.Parse(); err != nil && !flags.WroteHelp(err) {
		os.Exit(1)
	}
}
