package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arcxq/arcxq/xpath"
	"github.com/arcxq/arcxq/xpath/xmltree"
)

const queryHelp = `xq query -f <file.xml> <expression>

Evaluates expression against the document in file and prints one line
per node-set match: its label and string value.
`

func query(args []string) error {
	fset := flag.NewFlagSet("query", flag.ExitOnError)
	file := fset.String("f", "", "XML file to evaluate against")
	trace := fset.Bool("trace", false, "enable trace logging")
	level := fset.String("trace-level", "warning", "trace verbosity: warning, info, detail, trace")
	fset.Parse(args)

	rest := fset.Args()
	if *file == "" || len(rest) != 1 {
		fset.Usage()
		os.Exit(2)
	}
	expr := rest[0]

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	tree, err := xmltree.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", *file, err)
	}

	ast, err := xpath.Compile(expr)
	if err != nil {
		return fmt.Errorf("compiling %q: %w", expr, err)
	}

	count := 0
	e := xpath.Query(tree, ast, nil, xpath.EvaluateOptions{Trace: *trace, TraceLevel: *level},
		func(doc xpath.Document, node xpath.Tag, attr string) xpath.CallbackAction {
			count++
			fmt.Printf("%s\t%s\n", xpath.NodeLabel(node, attr), xpath.NodeStringValue(node, attr))
			return xpath.CallbackContinue
		})
	if e.Failed() {
		return fmt.Errorf("evaluation failed: %s", e.ErrMsg())
	}
	if count == 0 {
		fmt.Fprintln(os.Stderr, "no matches")
	}
	return nil
}
