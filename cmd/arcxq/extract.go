package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arcxq/arcxq/archive"
)

const extractHelp = `arcxq extract [-flags] <archive.zip> <pattern>

Extract entries whose path matches pattern (a case-insensitive glob,
'*' and '?') into the destination directory.

Example:
  % arcxq extract -C out backup.zip '*.go'
`

func extract(args []string) error {
	fset := flag.NewFlagSet("extract", flag.ExitOnError)
	dest := fset.String("C", ".", "destination directory")
	security := fset.Bool("security", false, "apply stored permission bits")
	fset.Usage = func() { fmt.Fprint(os.Stderr, extractHelp) }
	fset.Parse(args)
	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}

	a, stream, err := archive.OpenFile(fset.Arg(0), archive.Options{})
	if err != nil {
		return err
	}
	defer stream.Close()

	progress := newProgressReporter(os.Stderr)
	if err := a.Decompress(fset.Arg(1), *dest, *security, progress.feedback); err != nil {
		return err
	}
	progress.done()
	return nil
}
