// Package main is the entry point for the pine CLI binary.
package main

import (
	"os"

	cli "github.com/fabianbadoi/pine/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
