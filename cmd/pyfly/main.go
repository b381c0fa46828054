// Package main implements the pyfly CLI: a thin cobra wrapper over
// pkg/rewrite's six rewriter primitives and the collect directory walk.
package main

import (
	"os"

	"github.com/deshaw/pyflyby/cmd/pyfly/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	os.Exit(commands.Execute())
}
