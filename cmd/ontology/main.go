// Package main provides the ontology CLI: a server mode plus commands for
// managing metadata types and instances from the shell.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
