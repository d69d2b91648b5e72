// Package cli holds the terminal output helpers shared by queriesgen
// subcommands.
package cli

import (
	"errors"
	"fmt"
	"go/scanner"
	"io"
	"os"
)

// Output writes user-facing messages. Informational output goes to Out,
// warnings and errors to Err.
type Output struct {
	Out io.Writer
	Err io.Writer
}

// Std writes to stdout and stderr.
var Std = &Output{Out: os.Stdout, Err: os.Stderr}

// Infof prints a formatted informational message.
func (o *Output) Infof(format string, args ...any) {
	fmt.Fprintf(o.Out, format+"\n", args...)
}

// Successf prints a formatted success message.
func (o *Output) Successf(format string, args ...any) {
	fmt.Fprintf(o.Out, "✓ "+format+"\n", args...)
}

// Warnf prints a formatted warning.
func (o *Output) Warnf(format string, args ...any) {
	fmt.Fprintf(o.Err, "warning: "+format+"\n", args...)
}

// Errors prints err to stderr. Declaration error lists are printed one
// positioned error per line. It returns the number of lines written.
func (o *Output) Errors(err error) int {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			fmt.Fprintln(o.Err, e.Error())
		}
		return len(list)
	}
	fmt.Fprintln(o.Err, "error:", err)
	return 1
}
