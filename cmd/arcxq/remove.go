package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arcxq/arcxq/archive"
)

const removeHelp = `arcxq remove <archive.zip> <path>

Delete a single entry in place, compacting the archive and rewriting
its central directory.

Example:
  % arcxq remove backup.zip old/file.txt
`

func remove(args []string) error {
	fset := flag.NewFlagSet("remove", flag.ExitOnError)
	fset.Usage = func() { fmt.Fprint(os.Stderr, removeHelp) }
	fset.Parse(args)
	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}

	stream, err := archive.OpenFileRW(fset.Arg(0))
	if err != nil {
		return err
	}
	defer stream.Close()

	a, err := archive.Open(stream, archive.Options{})
	if err != nil {
		return err
	}
	if err := a.RemoveEntry(fset.Arg(1)); err != nil {
		return err
	}
	return a.Close()
}
