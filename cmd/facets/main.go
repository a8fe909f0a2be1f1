// Package main provides the facets CLI.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	// A failed result has already been printed as JSON.
	if !errors.Is(err, errResultFailed) {
		fmt.Fprintln(os.Stderr, "facets:", err)
	}
	os.Exit(exitCode(err))
}
