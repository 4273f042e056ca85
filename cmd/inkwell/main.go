// Package main is the entry point for the Inkwell blog API.
package main

import (
	"fmt"
	"os"

	"inkwell/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
