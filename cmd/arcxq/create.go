package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arcxq/arcxq/archive"
)

const createHelp = `arcxq create [-flags] -o <archive.zip> <path>...

Create an archive containing the given files and directories, walked
recursively.

Example:
  % arcxq create -o backup.zip ./src ./README.md
`

func create(args []string) error {
	fset := flag.NewFlagSet("create", flag.ExitOnError)
	out := fset.String("o", "", "output archive path")
	level := fset.Int("level", 60, "compression level, 0-100")
	fset.Usage = func() { fmt.Fprint(os.Stderr, createHelp) }
	fset.Parse(args)

	if *out == "" || fset.NArg() == 0 {
		fset.Usage()
		os.Exit(2)
	}

	stream, err := archive.CreateFile(*out)
	if err != nil {
		return err
	}
	defer stream.Close()

	a := archive.Create(stream, archive.Options{CompressionLevel: *level})
	progress := newProgressReporter(os.Stderr)

	for _, root := range fset.Args() {
		if err := addPath(a, root, progress.feedback); err != nil {
			return err
		}
	}
	progress.done()
	return a.Close()
}

func addPath(a *archive.Archive, root string, feedback archive.FeedbackFunc) error {
	base := filepath.Dir(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if d.IsDir() {
			return a.AddFolder(name)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return a.AddFile(name, nil, info.Mode(), target, feedback)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return a.AddFile(name, f, info.Mode(), "", feedback)
	})
}
