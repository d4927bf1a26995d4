// Package main is the entry point for the scout CLI.
// The CLI is the terminal tool for interacting with the scout API.
package main

import (
	"os"

	"scout/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
