package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arcxq/arcxq/xpath"
	"github.com/arcxq/arcxq/xpath/xmltree"
)

const evalHelp = `xq eval -f <file.xml> <expression>

Evaluates expression against the document in file and prints its
string value.
`

func eval(args []string) error {
	fset := flag.NewFlagSet("eval", flag.ExitOnError)
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

	v, e := xpath.Evaluate(tree, ast, nil, xpath.EvaluateOptions{Trace: *trace, TraceLevel: *level})
	if e.Failed() {
		return fmt.Errorf("evaluation failed: %s", e.ErrMsg())
	}
	fmt.Println(v.AsString())
	return nil
}
