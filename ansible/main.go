package ansible

import (
	"context"
	"fmt"

	"infraglue.org/version"
)

// RunFunc implements a module over its loaded arguments.
type RunFunc func(ctx context.Context, m *Module) (Result, error)

// Main is the body of a module binary. It loads the arguments file named by
// args[1], calls run and prints the result or the failure. "-version"
// prints the build version instead.
func Main(args []string, run RunFunc) {
	if len(args) == 2 && args[1] == "-version" {
		fmt.Fprintln(stdout, version.GetVersionInfo(name(args)))
		exit(0)
		return
	}
	m, err := Load(args)
	if err != nil {
		New(name(args), nil).Fail(err.Error())
		return
	}
	r, err := run(context.Background(), m)
	if err != nil {
		m.Fail(err.Error())
		return
	}
	m.Exit(r)
}
