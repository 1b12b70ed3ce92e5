// Program bfasm assembles match-action stage descriptions into a .bfa
// listing, context.json and register settings.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/p4lang/p4c-sub024/diag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the exit status: 0 on
// success, 1 on errors in the input or I/O, 2 on an internal error.
func run(args []string, stdout, stderr io.Writer) (status int) {
	defer func() {
		if r := recover(); r != nil {
			bug, ok := r.(*diag.BugError)
			if !ok {
				panic(r)
			}
			fmt.Fprintln(stderr, bug.Error())
			status = 2
		}
	}()

	root := NewRoot()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		if err != errFailed {
			fmt.Fprintf(stderr, "bfasm: %v\n", err)
		}
		return 1
	}
	return 0
}
