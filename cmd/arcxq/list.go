package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arcxq/arcxq/archive"
)

const listHelp = `arcxq list <archive.zip>

List the entries of an archive along with their uncompressed and
compressed sizes.

Example:
  % arcxq list backup.zip
`

func list(args []string) error {
	fset := flag.NewFlagSet("list", flag.ExitOnError)
	fset.Usage = func() { fmt.Fprint(os.Stderr, listHelp) }
	fset.Parse(args)
	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}

	a, stream, err := archive.OpenFile(fset.Arg(0), archive.Options{})
	if err != nil {
		return err
	}
	defer stream.Close()

	for _, e := range a.Entries() {
		kind := "file"
		switch {
		case e.Flags&archive.ItemFolder != 0:
			kind = "dir"
		case e.Flags&archive.ItemLink != 0:
			kind = "link"
		}
		fmt.Printf("%6s %10d %10d  %s\n", kind, e.UncompSize, e.CompSize, e.Path)
	}
	return nil
}
