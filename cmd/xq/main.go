// Command xq evaluates XPath/XQuery expressions against an XML file
// using the github.com/arcxq/arcxq/xpath package.
package main

import (
	"flag"
	"fmt"
	"os"
)

var debug = flag.Bool("debug", false, "format error messages with additional detail")

type cmd struct {
	fn   func(args []string) error
	help string
}

var verbs = map[string]cmd{
	"eval":  {eval, evalHelp},
	"query": {query, queryHelp},
}

func usage() {
	fmt.Fprintf(os.Stderr, "xq [-flags] <command> [-flags] <args>\n")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "To get help on any command, use xq <command> -help.\n")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "\teval   - evaluate an expression and print its value\n")
	fmt.Fprintf(os.Stderr, "\tquery  - evaluate an expression and print each node-set match\n")
}

func funcmain() error {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	verb, args := args[0], args[1:]
	if verb == "help" {
		if len(args) != 1 {
			usage()
			os.Exit(2)
		}
		v, ok := verbs[args[0]]
		if !ok {
			return fmt.Errorf("unknown command %q", args[0])
		}
		fmt.Fprint(os.Stderr, v.help)
		return nil
	}

	v, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
		usage()
		os.Exit(2)
	}
	if err := v.fn(args); err != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", verb, err)
		}
		return fmt.Errorf("%s: %v", verb, err)
	}
	return nil
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
