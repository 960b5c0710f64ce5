// Command arcxq creates, lists, extracts and prunes PKZIP archives
// through the github.com/arcxq/arcxq/archive package.
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
	"create":  {create, createHelp},
	"list":    {list, listHelp},
	"extract": {extract, extractHelp},
	"remove":  {remove, removeHelp},
}

func usage() {
	fmt.Fprintf(os.Stderr, "arcxq [-flags] <command> [-flags] <args>\n")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "To get help on any command, use arcxq <command> -help.\n")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "\tcreate   - create an archive from files and directories\n")
	fmt.Fprintf(os.Stderr, "\tlist     - list the entries of an archive\n")
	fmt.Fprintf(os.Stderr, "\textract  - extract entries matching a glob pattern\n")
	fmt.Fprintf(os.Stderr, "\tremove   - delete an entry in place\n")
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
